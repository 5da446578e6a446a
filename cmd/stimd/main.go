// stimd runs a stimulator session as a daemon: it enables the board,
// registers one stimulation event per channel, starts the schedule and
// keeps pushing the staged amplitudes/pulse widths at a fixed interval,
// optionally publishing state snapshots over MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/openfes/fes.go/pkg/run"
	"github.com/openfes/fes.go/pkg/serial"
	"github.com/openfes/fes.go/pkg/stim"
	"github.com/openfes/fes.go/pkg/telemetry"
	"github.com/openfes/fes.go/pkg/uecu"
)

// Config defines the daemon options.
type Config struct {
	Name      string
	Port      string
	Channels  string
	Sync      uint
	Frequency float64
	Interval  time.Duration
	Amps      string
	PWs       string
	Broker    string
}

var conf = Config{
	Name:      "stim",
	Port:      "/dev/ttyUSB0",
	Channels:  "Quad:0:50:250,Ham:1:50:250",
	Sync:      0xAA,
	Frequency: 50,
	Interval:  50 * time.Millisecond,
}

func init() {
	flag.StringVar(&conf.Name, "name", conf.Name, "Stimulator name.")
	flag.StringVar(&conf.Port, "port", conf.Port, "Serial port of the stimulator board.")
	flag.StringVar(&conf.Channels, "channels", conf.Channels, "Channel list as name:number:max-amp:max-pw, comma separated.")
	flag.UintVar(&conf.Sync, "sync", conf.Sync, "Sync message byte starting the schedule.")
	flag.Float64Var(&conf.Frequency, "freq", conf.Frequency, "Schedule firing frequency in Hz.")
	flag.DurationVar(&conf.Interval, "interval", conf.Interval, "Update loop interval.")
	flag.StringVar(&conf.Amps, "amps", conf.Amps, "Initial amplitudes per channel, comma separated.")
	flag.StringVar(&conf.PWs, "pws", conf.PWs, "Initial pulse widths per channel, comma separated.")
	flag.StringVar(&conf.Broker, "telemetry", conf.Broker, "MQTT broker URL for state snapshots, e.g. mqtt://localhost:1883/fes.")
}

func parseValues(spec string, n int) ([]int, error) {
	values := make([]int, n)
	if spec == "" {
		return values, nil
	}
	fields := strings.Split(spec, ",")
	if len(fields) != n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

func main() {
	flag.Parse()

	channels, err := stim.ParseChannels(conf.Channels)
	if err != nil {
		glog.Exit(err)
	}
	amps, err := parseValues(conf.Amps, len(channels))
	if err != nil {
		glog.Exitf("bad -amps: %v", err)
	}
	pws, err := parseValues(conf.PWs, len(channels))
	if err != nil {
		glog.Exitf("bad -pws: %v", err)
	}

	s := stim.NewStimulator(conf.Name, &serial.Opener{Name: conf.Port}, channels)
	if err := s.Enable(); err != nil {
		glog.Exitf("enable: %v", err)
	}
	defer s.Disable()

	if err := s.CreateSchedule(byte(conf.Sync), conf.Frequency); err != nil {
		glog.Exitf("create schedule: %v", err)
	}
	if err := s.AddEvents(channels, uecu.EventStim); err != nil {
		glog.Exitf("add events: %v", err)
	}
	if err := s.SetAmps(channels, amps); err != nil {
		glog.Exitf("set amplitudes: %v", err)
	}
	if err := s.WritePWs(channels, pws); err != nil {
		glog.Exitf("write pulse widths: %v", err)
	}
	if err := s.Begin(); err != nil {
		glog.Exitf("begin: %v", err)
	}

	runnables := []run.Runnable{
		&run.Periodic{
			Interval: conf.Interval,
			Tick: func(context.Context) error {
				_, err := s.Update()
				return err
			},
		},
	}

	if conf.Broker != "" {
		pub, err := telemetry.NewPublisher(conf.Broker, telemetry.ClientID("stimd"))
		if err != nil {
			glog.Exitf("telemetry: %v", err)
		}
		if err := pub.Connect(); err != nil {
			glog.Exitf("telemetry connect: %v", err)
		}
		defer pub.Close()
		runnables = append(runnables,
			pub.Periodic(conf.Interval*4, func() telemetry.State { return telemetry.StateOf(s) }))
	}

	runner := run.NewRunner(context.Background()).HandleSignals()
	if err := runner.Go(runnables...).Wait(); err != nil {
		glog.Exit(err)
	}
}
