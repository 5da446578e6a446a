package stim

import "io"

// Transport is the serial link capability the driver writes frames to and
// reads replies from. Read is expected to block up to the transport's read
// timeout and then return (0, nil) or a timeout error; the driver treats
// both as "no data available", not as a failure.
type Transport interface {
	io.ReadWriteCloser
}

// Opener opens the transport for a stimulator session. Exactly one
// Stimulator owns the opened transport at a time.
type Opener interface {
	Open() (Transport, error)
}

// OpenFunc is the func form of Opener.
type OpenFunc func() (Transport, error)

// Open implements Opener.
func (f OpenFunc) Open() (Transport, error) { return f() }
