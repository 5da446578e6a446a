package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"

	"github.com/abiosoft/ishell"

	"github.com/openfes/fes.go/pkg/serial"
	"github.com/openfes/fes.go/pkg/stim"
	"github.com/openfes/fes.go/pkg/telemetry"
)

// Config defines the stimulator session the shell drives.
type Config struct {
	Name     string
	Port     string
	Channels string
}

// NewConfig creates a Config with defaults.
func NewConfig() *Config {
	return &Config{
		Name:     "stim",
		Port:     "/dev/ttyUSB0",
		Channels: "Quad:0:50:250,Ham:1:50:250",
	}
}

// SetupFlags registers session flags.
func (c *Config) SetupFlags() {
	flag.StringVar(&c.Name, "name", c.Name, "Stimulator name.")
	flag.StringVar(&c.Port, "port", c.Port, "Serial port of the stimulator board.")
	flag.StringVar(&c.Channels, "channels", c.Channels, "Channel list as name:number:max-amp:max-pw, comma separated.")
}

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Config *Config
	Stim   *stim.Stimulator
}

const (
	shellKey       = "$shell"
	disabledPrompt = "[off] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&EnableCmd,
		&DisableCmd,
		&StatusCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell:  ishell.New(),
		Config: conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(disabledPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeEnabled wraps command func requiring an enabled stimulator.
func MustBeEnabled(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if s.Stim == nil || !s.Stim.Enabled() {
			c.Err(fmt.Errorf("not enabled"))
			return
		}
		fn(c)
	}
}

// Enable opens the configured port and runs channel setup.
func (s *Shell) Enable() error {
	channels, err := stim.ParseChannels(s.Config.Channels)
	if err != nil {
		return err
	}
	st := stim.NewStimulator(s.Config.Name, &serial.Opener{Name: s.Config.Port}, channels)
	if err := st.Enable(); err != nil {
		return err
	}
	s.Stim = st
	s.Shell.SetPrompt(fmt.Sprintf("%s > ", st.Name()))
	return nil
}

// Disable halts stimulation and closes the port.
func (s *Shell) Disable() {
	if s.Stim != nil {
		s.Stim.Disable()
		s.Stim = nil
		s.Shell.SetPrompt(disabledPrompt)
	}
}

// PrintState prints the current snapshot, honoring OutputJSON.
func (s *Shell) PrintState(c *ishell.Context) {
	state := telemetry.StateOf(s.Stim)
	if s.OutputJSON {
		out, err := json.Marshal(state)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	for i, name := range state.Channels {
		c.Printf("%-12s amp %3d/%3d  pw %3d/%3d\n", name,
			state.Amplitudes[i], state.MaxAmplitudes[i],
			state.PulseWidths[i], state.MaxPulseWidths[i])
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Disable()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// EnableCmd opens the port and sets up channels.
	EnableCmd = ishell.Cmd{
		Name:    "enable",
		Aliases: []string{"on"},
		Help:    "",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if s.Stim != nil && s.Stim.Enabled() {
				c.Err(fmt.Errorf("already enabled"))
				return
			}
			if err := s.Enable(); err != nil {
				c.Err(err)
			}
		},
	}

	// DisableCmd halts stimulation and closes the port.
	DisableCmd = ishell.Cmd{
		Name:    "disable",
		Aliases: []string{"off"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disable()
		},
	}

	// StatusCmd prints staged values and limits per channel.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: MustBeEnabled(func(c *ishell.Context) {
			ShellFrom(c).PrintState(c)
		}),
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	conf := NewConfig()
	conf.SetupFlags()
	flag.Parse()
	New(conf).Run(flag.Args()...)
}
