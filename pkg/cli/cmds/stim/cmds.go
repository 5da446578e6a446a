// Package stim provides the shell commands driving a stimulation session.
package stim

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/openfes/fes.go/pkg/cli/sh"
	"github.com/openfes/fes.go/pkg/stim"
	"github.com/openfes/fes.go/pkg/uecu"
)

func channelArg(c *ishell.Context) (*stim.Channel, bool) {
	s := sh.ShellFrom(c)
	ch, ok := s.Stim.ChannelByName(c.Args[0])
	if !ok {
		c.Err(fmt.Errorf("unknown channel %q", c.Args[0]))
		return nil, false
	}
	return ch, true
}

func valueArgs(c *ishell.Context) (*stim.Channel, int, bool) {
	if len(c.Args) != 2 {
		c.Err(fmt.Errorf("expected CHANNEL VALUE"))
		return nil, 0, false
	}
	ch, ok := channelArg(c)
	if !ok {
		return nil, 0, false
	}
	v, err := strconv.Atoi(c.Args[1])
	if err != nil {
		c.Err(err)
		return nil, 0, false
	}
	return ch, v, true
}

var (
	// SchedCmd creates the schedule and registers one event per channel.
	SchedCmd = ishell.Cmd{
		Name:    "sched",
		Aliases: []string{"s"},
		Help:    "[SYNC_MSG [FREQ_HZ]]",
		Func: sh.MustBeEnabled(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			syncMsg, frequency := uint64(0xAA), 50.0
			var err error
			if len(c.Args) > 0 {
				if syncMsg, err = strconv.ParseUint(c.Args[0], 0, 8); err != nil {
					c.Err(err)
					return
				}
			}
			if len(c.Args) > 1 {
				if frequency, err = strconv.ParseFloat(c.Args[1], 64); err != nil {
					c.Err(err)
					return
				}
			}
			if err = s.Stim.CreateSchedule(byte(syncMsg), frequency); err != nil {
				c.Err(err)
				return
			}
			if err = s.Stim.AddEvents(s.Stim.Channels(), uecu.EventStim); err != nil {
				c.Err(err)
			}
		}),
	}

	// BeginCmd sends the sync message starting the schedule.
	BeginCmd = ishell.Cmd{
		Name:    "begin",
		Aliases: []string{"b"},
		Help:    "",
		Func: sh.MustBeEnabled(func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Stim.Begin(); err != nil {
				c.Err(err)
			}
		}),
	}

	// AmpCmd stages a channel amplitude.
	AmpCmd = ishell.Cmd{
		Name: "amp",
		Help: "CHANNEL VALUE",
		Func: sh.MustBeEnabled(func(c *ishell.Context) {
			ch, v, ok := valueArgs(c)
			if !ok {
				return
			}
			if err := sh.ShellFrom(c).Stim.SetAmp(ch, v); err != nil {
				c.Err(err)
			}
		}),
	}

	// PWCmd stages a channel pulse width.
	PWCmd = ishell.Cmd{
		Name: "pw",
		Help: "CHANNEL VALUE",
		Func: sh.MustBeEnabled(func(c *ishell.Context) {
			ch, v, ok := valueArgs(c)
			if !ok {
				return
			}
			if err := sh.ShellFrom(c).Stim.WritePW(ch, v); err != nil {
				c.Err(err)
			}
		}),
	}

	// MaxAmpCmd changes a channel's amplitude ceiling.
	MaxAmpCmd = ishell.Cmd{
		Name: "maxamp",
		Help: "CHANNEL VALUE",
		Func: sh.MustBeEnabled(func(c *ishell.Context) {
			ch, v, ok := valueArgs(c)
			if !ok {
				return
			}
			if err := sh.ShellFrom(c).Stim.UpdateMaxAmp(ch, v); err != nil {
				c.Err(err)
			}
		}),
	}

	// MaxPWCmd changes a channel's pulse-width ceiling.
	MaxPWCmd = ishell.Cmd{
		Name: "maxpw",
		Help: "CHANNEL VALUE",
		Func: sh.MustBeEnabled(func(c *ishell.Context) {
			ch, v, ok := valueArgs(c)
			if !ok {
				return
			}
			if err := sh.ShellFrom(c).Stim.UpdateMaxPW(ch, v); err != nil {
				c.Err(err)
			}
		}),
	}

	// UpdateCmd pushes the staged values to the board.
	UpdateCmd = ishell.Cmd{
		Name:    "update",
		Aliases: []string{"u"},
		Help:    "",
		Func: sh.MustBeEnabled(func(c *ishell.Context) {
			results, err := sh.ShellFrom(c).Stim.Update()
			for _, res := range results {
				if res.Err != nil {
					c.Printf("%s: %v\n", res.Event.Channel().Name(), res.Err)
				}
			}
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// HaltCmd stops the running schedule without closing the port.
	HaltCmd = ishell.Cmd{
		Name:    "halt",
		Aliases: []string{"h"},
		Help:    "",
		Func: sh.MustBeEnabled(func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Stim.Schedule().Halt(); err != nil {
				c.Err(err)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&SchedCmd,
		&BeginCmd,
		&AmpCmd,
		&PWCmd,
		&MaxAmpCmd,
		&MaxPWCmd,
		&UpdateCmd,
		&HaltCmd,
	)
}
