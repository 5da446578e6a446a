package uecu

import "errors"

var (
	// ErrNoReply indicates the board sent nothing before the read timed out.
	ErrNoReply = errors.New("no reply")
	// ErrShortFrame indicates the byte stream ended inside a frame.
	ErrShortFrame = errors.New("short frame")
	// ErrBadLength indicates the declared payload length does not match.
	ErrBadLength = errors.New("bad payload length")
	// ErrBadChecksum indicates the trailing checksum byte does not match.
	ErrBadChecksum = errors.New("bad checksum")
)
