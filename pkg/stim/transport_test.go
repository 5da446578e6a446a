package stim

import (
	"bytes"
	"errors"

	"github.com/openfes/fes.go/pkg/uecu"
)

// scriptTransport captures frames written by the driver and serves
// scripted reply bytes one at a time, the way a serial port with a read
// timeout behaves.
type scriptTransport struct {
	wr      bytes.Buffer
	pending []byte
	closed  bool

	failWrite int // fail the nth write, 1-based
	writes    int
}

type scriptTimeout struct{}

func (scriptTimeout) Error() string { return "read timed out" }
func (scriptTimeout) Timeout() bool { return true }

var errWriteFailed = errors.New("write failed")

func (t *scriptTransport) Read(p []byte) (int, error) {
	if len(t.pending) == 0 {
		return 0, scriptTimeout{}
	}
	p[0] = t.pending[0]
	t.pending = t.pending[1:]
	return 1, nil
}

func (t *scriptTransport) Write(p []byte) (int, error) {
	t.writes++
	if t.failWrite > 0 && t.writes == t.failWrite {
		return 0, errWriteFailed
	}
	return t.wr.Write(p)
}

func (t *scriptTransport) Close() error {
	t.closed = true
	return nil
}

// reply queues an encoded frame as the board's next reply.
func (t *scriptTransport) reply(f *uecu.Frame) {
	t.pending = append(t.pending, f.Bytes()...)
}

// frames splits everything written so far into decoded frames.
func (t *scriptTransport) frames() ([]*uecu.Frame, error) {
	var out []*uecu.Frame
	b := t.wr.Bytes()
	for len(b) > 0 {
		if len(b) < 5 {
			return out, uecu.ErrShortFrame
		}
		n := 4 + int(b[3]) + 1
		if len(b) < n {
			return out, uecu.ErrShortFrame
		}
		f, err := uecu.Decode(b[:n])
		if err != nil {
			return out, err
		}
		out = append(out, f)
		b = b[n:]
	}
	return out, nil
}

func (t *scriptTransport) opener() Opener {
	return OpenFunc(func() (Transport, error) { return t, nil })
}
