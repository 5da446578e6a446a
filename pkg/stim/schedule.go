package stim

import (
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/openfes/fes.go/pkg/run"
	"github.com/openfes/fes.go/pkg/uecu"
)

// Schedule is the board-side execution context that periodically fires
// its events. It owns the ordered event list; insertion order matches the
// board's registration order. The schedule id and every event id are
// taken from the board's handshake replies, so no board operation may run
// before the corresponding id is assigned.
type Schedule struct {
	transport  Transport
	id         byte
	idAssigned bool
	enabled    bool
	syncMsg    byte
	events     []*Event
}

// DefaultPeriod is used when a schedule is created without a usable
// frequency.
const DefaultPeriod = 50 * time.Millisecond

// NewSchedule creates an empty, unregistered schedule.
func NewSchedule() *Schedule {
	return &Schedule{}
}

// ID returns the board-assigned schedule id, or ErrNoScheduleID before
// the create handshake completed.
func (s *Schedule) ID() (byte, error) {
	if !s.idAssigned {
		return 0, ErrNoScheduleID
	}
	return s.id, nil
}

// SetID records the board-assigned schedule id. Write-once; Create calls
// it after parsing the reply, it is exported for manual bring-up against
// boards that answer out of band.
func (s *Schedule) SetID(id byte) error {
	if s.idAssigned {
		return ErrIDAssigned
	}
	s.id, s.idAssigned = id, true
	return nil
}

// Enabled reports whether the board was told to execute the schedule.
func (s *Schedule) Enabled() bool { return s.enabled }

// SyncMsg returns the registered sync byte.
func (s *Schedule) SyncMsg() byte { return s.syncMsg }

// NumEvents returns the number of registered events.
func (s *Schedule) NumEvents() int { return len(s.events) }

// Events returns the ordered event list.
func (s *Schedule) Events() []*Event { return s.events }

// Create sends the create-schedule request registering syncMsg as the
// execution trigger and period as the firing interval, blocks for
// setupDelay, then reads the board's reply and takes the first payload
// byte as the schedule id.
func (s *Schedule) Create(t Transport, syncMsg byte, period, setupDelay time.Duration) error {
	if period <= 0 {
		period = DefaultPeriod
	}
	hi, lo := uecu.SplitUint16(int(period / time.Millisecond))
	f := &uecu.Frame{
		Type:    uecu.MsgCreateSchedule,
		Payload: []byte{syncMsg, hi, lo},
	}
	if _, err := f.WriteTo(t); err != nil {
		glog.Errorf("create schedule: %v", err)
		return err
	}
	time.Sleep(setupDelay)

	reply, err := uecu.NewReader(t).ReadFrame()
	if err != nil {
		glog.Errorf("create schedule reply: %v", err)
		return fmt.Errorf("create schedule reply: %w", err)
	}
	if reply.Type != uecu.MsgCreateScheduleReply {
		glog.V(1).Infof("create schedule: unexpected reply type %s", uecu.HexByte(reply.Type))
	}
	if len(reply.Payload) == 0 {
		return ErrEmptyReply
	}
	if err := s.SetID(reply.Payload[0]); err != nil {
		return err
	}
	s.transport = t
	s.syncMsg = syncMsg
	glog.Infof("schedule created, id %s", uecu.HexByte(s.id))
	return nil
}

// AddEvent registers a new event of eventType bound to ch. Valid only
// after Create assigned the schedule id. The event's own id is taken from
// the board's reply; on a failed handshake no event is appended, but the
// request frame is already on the wire and the board state must be
// assumed partially populated.
func (s *Schedule) AddEvent(ch *Channel, setupDelay time.Duration, eventType byte) error {
	if !s.idAssigned || s.transport == nil {
		return ErrNoScheduleID
	}
	f := &uecu.Frame{
		Type: uecu.MsgCreateEvent,
		Payload: []byte{
			s.id,
			0x00, 0x00, // delay from period start
			0x00, // priority
			eventType,
			ch.PortChannel(),
			0x00, // pulse width, staged later
			0x00, // amplitude, staged later
			0x00, // zone
		},
	}
	if _, err := f.WriteTo(s.transport); err != nil {
		glog.Errorf("add event for channel %q: %v", ch.Name(), err)
		return err
	}
	time.Sleep(setupDelay)

	reply, err := uecu.NewReader(s.transport).ReadFrame()
	if err != nil {
		glog.Errorf("add event reply for channel %q: %v", ch.Name(), err)
		return fmt.Errorf("add event reply: %w", err)
	}
	if reply.Type != uecu.MsgCreateEventReply {
		glog.V(1).Infof("add event: unexpected reply type %s", uecu.HexByte(reply.Type))
	}
	if len(reply.Payload) == 0 {
		return ErrEmptyReply
	}
	ev := newEvent(ch, eventType)
	if err := ev.setID(reply.Payload[0]); err != nil {
		return err
	}
	s.events = append(s.events, ev)
	glog.Infof("event %s added for channel %q", uecu.HexByte(reply.Payload[0]), ch.Name())
	return nil
}

// AddEvents registers one event per channel in order, stopping at the
// first failure. Events already registered are not rolled back.
func (s *Schedule) AddEvents(channels []*Channel, setupDelay time.Duration, eventType byte) error {
	for _, ch := range channels {
		if err := s.AddEvent(ch, setupDelay, eventType); err != nil {
			return err
		}
	}
	return nil
}

// event finds the first event bound to ch by channel number.
func (s *Schedule) event(ch *Channel) (*Event, error) {
	for _, ev := range s.events {
		if ev.channel.Number() == ch.Number() {
			return ev, nil
		}
	}
	return nil, ErrNoEvent
}

// SetAmp stages a new amplitude for the event bound to ch, clamped to the
// channel's current max. Nothing is transmitted until Update.
func (s *Schedule) SetAmp(ch *Channel, amplitude int) error {
	ev, err := s.event(ch)
	if err != nil {
		glog.Errorf("set amplitude: no event for channel %q", ch.Name())
		return err
	}
	if max := ch.MaxAmplitude(); amplitude > max {
		glog.Errorf("channel %q amplitude %d above max %d, clamping", ch.Name(), amplitude, max)
		amplitude = max
	}
	if amplitude < 0 {
		glog.Errorf("channel %q amplitude %d below zero, clamping", ch.Name(), amplitude)
		amplitude = 0
	}
	ev.amplitude = amplitude
	return nil
}

// WritePW stages a new pulse width for the event bound to ch, clamped to
// the channel's current max. Nothing is transmitted until Update.
func (s *Schedule) WritePW(ch *Channel, pulseWidth int) error {
	ev, err := s.event(ch)
	if err != nil {
		glog.Errorf("write pulse width: no event for channel %q", ch.Name())
		return err
	}
	if max := ch.MaxPulseWidth(); pulseWidth > max {
		glog.Errorf("channel %q pulse width %d above max %d, clamping", ch.Name(), pulseWidth, max)
		pulseWidth = max
	}
	if pulseWidth < 0 {
		glog.Errorf("channel %q pulse width %d below zero, clamping", ch.Name(), pulseWidth)
		pulseWidth = 0
	}
	ev.pulseWidth = pulseWidth
	return nil
}

// Amp returns the staged amplitude of the event bound to ch.
func (s *Schedule) Amp(ch *Channel) (int, error) {
	ev, err := s.event(ch)
	if err != nil {
		return 0, err
	}
	return ev.amplitude, nil
}

// PW returns the staged pulse width of the event bound to ch.
func (s *Schedule) PW(ch *Channel) (int, error) {
	ev, err := s.event(ch)
	if err != nil {
		return 0, err
	}
	return ev.pulseWidth, nil
}

// EventResult reports the outcome of one event's parameter transmission.
type EventResult struct {
	Event *Event
	Err   error
}

// Update transmits one change-event-params frame per event, carrying the
// staged amplitude and pulse width. Transmission is best effort: a failed
// event does not stop the remaining ones. The per-event outcomes are
// returned alongside the aggregate error.
func (s *Schedule) Update() ([]EventResult, error) {
	results := make([]EventResult, 0, len(s.events))
	var errs run.ErrorList
	for _, ev := range s.events {
		err := s.updateEvent(ev)
		if err != nil {
			errs.Append(fmt.Errorf("channel %q: %w", ev.channel.Name(), err))
		}
		results = append(results, EventResult{Event: ev, Err: err})
	}
	return results, errs.Err()
}

func (s *Schedule) updateEvent(ev *Event) error {
	f, err := ev.paramsFrame()
	if err != nil {
		return err
	}
	if _, err := f.WriteTo(s.transport); err != nil {
		return err
	}
	return nil
}

// SendSync transmits the registered sync byte, telling the board to begin
// executing the schedule's events at the configured period.
func (s *Schedule) SendSync() error {
	if !s.idAssigned || s.transport == nil {
		return ErrNoScheduleID
	}
	f := &uecu.Frame{Type: uecu.MsgSync, Payload: []byte{s.syncMsg}}
	if _, err := f.WriteTo(s.transport); err != nil {
		glog.Errorf("send sync: %v", err)
		return err
	}
	s.enabled = true
	return nil
}

// Halt deletes the schedule on the board, stopping all bound events.
func (s *Schedule) Halt() error {
	if !s.idAssigned || s.transport == nil {
		return ErrNoScheduleID
	}
	f := &uecu.Frame{Type: uecu.MsgDeleteSchedule, Payload: []byte{s.id}}
	if _, err := f.WriteTo(s.transport); err != nil {
		glog.Errorf("halt schedule: %v", err)
		return err
	}
	s.enabled = false
	return nil
}

// Disable marks the schedule disabled without transmitting a halt. Used
// during teardown when the link may already be closing.
func (s *Schedule) Disable() {
	s.enabled = false
}
