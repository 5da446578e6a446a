package stim

import (
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/openfes/fes.go/pkg/uecu"
)

// DefaultSetupDelay is the pause after each setup or handshake frame that
// lets the board process it before the next exchange.
const DefaultSetupDelay = 100 * time.Millisecond

// Stimulator is the top-level session with one board: it owns the
// transport, the channel list and one Schedule, and sequences port setup,
// board initialization and the periodic update.
type Stimulator struct {
	name       string
	opener     Opener
	transport  Transport
	channels   []*Channel
	sched      *Schedule
	enabled    bool
	setupDelay time.Duration

	// mu protects the snapshot arrays below so a concurrent reader never
	// observes a torn copy while Update refreshes them.
	mu             sync.Mutex
	amplitudes     []int
	pulseWidths    []int
	maxAmplitudes  []int
	maxPulseWidths []int
}

// NewStimulator creates a stimulator for the given channels. The opener
// supplies the serial transport when Enable runs; exactly one Stimulator
// may hold the opened transport at a time.
func NewStimulator(name string, opener Opener, channels []*Channel) *Stimulator {
	n := len(channels)
	return &Stimulator{
		name:           name,
		opener:         opener,
		channels:       channels,
		sched:          NewSchedule(),
		setupDelay:     DefaultSetupDelay,
		amplitudes:     make([]int, n),
		pulseWidths:    make([]int, n),
		maxAmplitudes:  make([]int, n),
		maxPulseWidths: make([]int, n),
	}
}

// WithSetupDelay overrides the per-frame setup delay.
func (s *Stimulator) WithSetupDelay(d time.Duration) *Stimulator {
	s.setupDelay = d
	return s
}

// Name returns the stimulator name.
func (s *Stimulator) Name() string { return s.name }

// Enabled reports whether the transport is open and the board initialized.
func (s *Stimulator) Enabled() bool { return s.enabled }

// Channels returns the configured channels.
func (s *Stimulator) Channels() []*Channel { return s.channels }

// Schedule returns the stimulator's schedule.
func (s *Stimulator) Schedule() *Schedule { return s.sched }

// ChannelByName finds a configured channel by name.
func (s *Stimulator) ChannelByName(name string) (*Channel, bool) {
	for _, ch := range s.channels {
		if ch.Name() == name {
			return ch, true
		}
	}
	return nil, false
}

// ChannelByNumber finds a configured channel by its index. Channel
// numbers are expected to be unique; with duplicates the first match
// wins, as in the event lookup.
func (s *Stimulator) ChannelByNumber(number byte) (*Channel, bool) {
	for _, ch := range s.channels {
		if ch.Number() == number {
			return ch, true
		}
	}
	return nil, false
}

// Enable opens and configures the transport, then sends every channel's
// setup frame in order, stopping at the first failure.
func (s *Stimulator) Enable() error {
	t, err := s.opener.Open()
	if err != nil {
		glog.Errorf("failed to open stimulator %q: %v", s.name, err)
		s.enabled = false
		return err
	}
	glog.Infof("opened stimulator %q", s.name)
	s.transport = t
	for _, ch := range s.channels {
		if err := ch.Setup(t, s.setupDelay); err != nil {
			s.enabled = false
			t.Close()
			s.transport = nil
			return err
		}
	}
	glog.Info("board setup completed")
	s.enabled = true
	return nil
}

// Disable halts the schedule and closes the transport. Disabling a
// stimulator that was never enabled is a no-op.
func (s *Stimulator) Disable() {
	if !s.enabled {
		glog.Info("stimulator has not been enabled yet")
		return
	}
	if s.sched.idAssigned {
		if err := s.sched.Halt(); err != nil {
			glog.Errorf("halt on disable: %v", err)
		}
	}
	s.sched.Disable()
	if s.transport != nil {
		s.transport.Close()
		s.transport = nil
	}
	s.enabled = false
	glog.Infof("stimulator %q disabled", s.name)
}

// CreateSchedule creates the board-side schedule with the given sync byte
// and firing frequency in Hz. Non-positive frequency falls back to the
// default period.
func (s *Stimulator) CreateSchedule(syncMsg byte, frequency float64) error {
	if !s.enabled {
		glog.Error("stimulator not enabled, not creating schedule")
		return ErrNotEnabled
	}
	var period time.Duration
	if frequency > 0 {
		period = time.Duration(1.0 / frequency * float64(time.Second))
	}
	return s.sched.Create(s.transport, syncMsg, period, s.setupDelay)
}

// AddEvent registers a stimulation event for ch on the schedule.
func (s *Stimulator) AddEvent(ch *Channel, eventType byte) error {
	if !s.enabled {
		glog.Error("stimulator not enabled, not adding event")
		return ErrNotEnabled
	}
	return s.sched.AddEvent(ch, s.setupDelay, eventType)
}

// AddEvents registers one event per channel in order, stopping at the
// first failure.
func (s *Stimulator) AddEvents(channels []*Channel, eventType byte) error {
	if !s.enabled {
		glog.Error("stimulator not enabled, not adding events")
		return ErrNotEnabled
	}
	return s.sched.AddEvents(channels, s.setupDelay, eventType)
}

// Begin starts synchronized execution of the schedule.
func (s *Stimulator) Begin() error {
	if !s.enabled {
		glog.Error("stimulator not enabled, not starting")
		return ErrNotEnabled
	}
	return s.sched.SendSync()
}

// SetAmp stages a new amplitude for the event bound to ch.
func (s *Stimulator) SetAmp(ch *Channel, amplitude int) error {
	if !s.enabled {
		glog.Error("stimulator not enabled, not writing amplitude")
		return ErrNotEnabled
	}
	return s.sched.SetAmp(ch, amplitude)
}

// SetAmps stages amplitudes for multiple channels pairwise.
func (s *Stimulator) SetAmps(channels []*Channel, amplitudes []int) error {
	for i, ch := range channels {
		if err := s.SetAmp(ch, amplitudes[i]); err != nil {
			return err
		}
	}
	return nil
}

// WritePW stages a new pulse width for the event bound to ch.
func (s *Stimulator) WritePW(ch *Channel, pulseWidth int) error {
	if !s.enabled {
		glog.Error("stimulator not enabled, not writing pulse width")
		return ErrNotEnabled
	}
	return s.sched.WritePW(ch, pulseWidth)
}

// WritePWs stages pulse widths for multiple channels pairwise.
func (s *Stimulator) WritePWs(channels []*Channel, pulseWidths []int) error {
	for i, ch := range channels {
		if err := s.WritePW(ch, pulseWidths[i]); err != nil {
			return err
		}
	}
	return nil
}

// UpdateMaxAmp updates a channel's amplitude ceiling.
func (s *Stimulator) UpdateMaxAmp(ch *Channel, max int) error {
	own, ok := s.ChannelByNumber(ch.Number())
	if !ok {
		glog.Error("did not find the channel to update")
		return ErrNoChannel
	}
	own.SetMaxAmplitude(max)
	return nil
}

// UpdateMaxPW updates a channel's pulse-width ceiling.
func (s *Stimulator) UpdateMaxPW(ch *Channel, max int) error {
	own, ok := s.ChannelByNumber(ch.Number())
	if !ok {
		glog.Error("did not find the channel to update")
		return ErrNoChannel
	}
	own.SetMaxPulseWidth(max)
	return nil
}

// Update snapshots the staged values and channel limits, pushes every
// event's parameters to the board, then drains and logs whatever the
// board sent back. The per-event outcomes are returned alongside the
// aggregate error.
func (s *Stimulator) Update() ([]EventResult, error) {
	if !s.enabled {
		glog.Error("stimulator not enabled, not updating")
		return nil, ErrNotEnabled
	}
	s.mu.Lock()
	for i, ch := range s.channels {
		if amp, err := s.sched.Amp(ch); err == nil {
			s.amplitudes[i] = amp
		}
		if pw, err := s.sched.PW(ch); err == nil {
			s.pulseWidths[i] = pw
		}
		s.maxAmplitudes[i] = ch.MaxAmplitude()
		s.maxPulseWidths[i] = ch.MaxPulseWidth()
	}
	s.mu.Unlock()

	results, err := s.sched.Update()
	s.drain()
	return results, err
}

// Snapshot returns copies of the parallel arrays captured by the last
// Update: staged amplitudes, staged pulse widths, and the channel limits.
func (s *Stimulator) Snapshot() (amplitudes, pulseWidths, maxAmplitudes, maxPulseWidths []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.amplitudes...),
		append([]int(nil), s.pulseWidths...),
		append([]int(nil), s.maxAmplitudes...),
		append([]int(nil), s.maxPulseWidths...)
}

// drain reads the board's reply stream until it times out, logging the
// bytes. An empty read means no more data, not an error.
func (s *Stimulator) drain() {
	data, err := uecu.NewReader(s.transport).Drain()
	if err != nil {
		glog.Errorf("could not read message: %v", err)
		return
	}
	if len(data) > 0 && glog.V(2) {
		hex := make([]string, len(data))
		for i, b := range data {
			hex[i] = uecu.HexByte(b)
		}
		glog.Infof("received: %v", hex)
	}
}
