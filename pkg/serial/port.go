// Package serial provides the real serial-port transport for the
// stimulator driver.
package serial

import (
	"fmt"
	"time"

	bugst "go.bug.st/serial"

	"github.com/openfes/fes.go/pkg/stim"
)

// Board link settings: 9600 baud, 8 data bits, 1 stop bit, no parity, no
// flow control.
const BaudRate = 9600

// DefaultReadTimeout bounds a single Read; expiry surfaces as an empty
// read, which the driver treats as end of available data.
const DefaultReadTimeout = 20 * time.Millisecond

// Open opens and configures the named port as a stim.Transport.
func Open(name string, readTimeout time.Duration) (stim.Transport, error) {
	mode := &bugst.Mode{
		BaudRate: BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}
	p, err := bugst.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("open port %s: %w", name, err)
	}
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	if err := p.SetReadTimeout(readTimeout); err != nil {
		p.Close()
		return nil, fmt.Errorf("configure port %s: %w", name, err)
	}
	return p, nil
}

// Opener defers opening the configured port until the stimulator enables.
type Opener struct {
	Name        string
	ReadTimeout time.Duration
}

// Open implements stim.Opener.
func (o *Opener) Open() (stim.Transport, error) {
	return Open(o.Name, o.ReadTimeout)
}
