package stim

import "github.com/openfes/fes.go/pkg/uecu"

// Event is one schedulable stimulation pulse bound to a channel. Its id
// is assigned once by the board during the add-event handshake and is the
// addressing byte of every subsequent parameter update. Amplitude and
// pulse width are staged values; they are transmitted only by the
// schedule's Update.
type Event struct {
	channel    *Channel
	eventType  byte
	id         byte
	idAssigned bool
	amplitude  int
	pulseWidth int
}

func newEvent(ch *Channel, eventType byte) *Event {
	return &Event{channel: ch, eventType: eventType}
}

// Channel returns the bound channel.
func (e *Event) Channel() *Channel { return e.channel }

// EventType returns the event-type tag.
func (e *Event) EventType() byte { return e.eventType }

// ID returns the board-assigned event id, or ErrEventIDUnassigned before
// the add-event handshake completed.
func (e *Event) ID() (byte, error) {
	if !e.idAssigned {
		return 0, ErrEventIDUnassigned
	}
	return e.id, nil
}

// setID records the board-assigned id. Write-once.
func (e *Event) setID(id byte) error {
	if e.idAssigned {
		return ErrIDAssigned
	}
	e.id, e.idAssigned = id, true
	return nil
}

// Amplitude returns the staged amplitude.
func (e *Event) Amplitude() int { return e.amplitude }

// PulseWidth returns the staged pulse width.
func (e *Event) PulseWidth() int { return e.pulseWidth }

// paramsFrame builds the change-event-params frame carrying the staged
// amplitude and pulse width.
func (e *Event) paramsFrame() (*uecu.Frame, error) {
	if !e.idAssigned {
		return nil, ErrEventIDUnassigned
	}
	return &uecu.Frame{
		Type:    uecu.MsgChangeEventParams,
		Payload: []byte{e.id, byte(e.pulseWidth), byte(e.amplitude), 0x00},
	}, nil
}
