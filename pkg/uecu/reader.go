package uecu

import (
	"io"
	"os"
)

// Reader reads reply frames from the board. The underlying Read is
// expected to block up to the transport's read timeout and then return
// either (0, nil) or a timeout error; both are treated as end of
// available data, not as a hard failure.
type Reader struct {
	r   io.Reader
	buf [1]byte
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// readByte reads a single byte. ok is false when no byte arrived before
// the timeout.
func (rd *Reader) readByte() (b byte, ok bool, err error) {
	n, err := rd.r.Read(rd.buf[:])
	if err != nil {
		if os.IsTimeout(err) || err == io.EOF {
			return 0, false, nil
		}
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	return rd.buf[0], true, nil
}

// ReadFrame reads and decodes one reply frame. It returns ErrNoReply if
// the stream times out before the first byte, and ErrShortFrame if it
// times out mid-frame.
func (rd *Reader) ReadFrame() (*Frame, error) {
	raw := make([]byte, 0, headerLen+8)
	for i := 0; i < headerLen; i++ {
		b, ok, err := rd.readByte()
		if err != nil {
			return nil, err
		}
		if !ok {
			if i == 0 {
				return nil, ErrNoReply
			}
			return nil, ErrShortFrame
		}
		raw = append(raw, b)
	}
	// payload + checksum
	for i := 0; i < int(raw[3])+1; i++ {
		b, ok, err := rd.readByte()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrShortFrame
		}
		raw = append(raw, b)
	}
	return Decode(raw)
}

// Drain reads until the stream times out and returns the bytes received.
func (rd *Reader) Drain() ([]byte, error) {
	var out []byte
	for {
		b, ok, err := rd.readByte()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, b)
	}
}
