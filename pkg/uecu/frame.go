package uecu

import (
	"fmt"
	"io"
)

// Fixed addressing bytes of every host-originated frame.
const (
	DestAddr byte = 0x04
	SrcAddr  byte = 0x80
)

// Message types.
const (
	MsgCreateSchedule      byte = 0x10
	MsgCreateScheduleReply byte = 0x11
	MsgDeleteSchedule      byte = 0x12
	MsgCreateEvent         byte = 0x15
	MsgCreateEventReply    byte = 0x16
	MsgChangeEventParams   byte = 0x19
	MsgSync                byte = 0x1B
	MsgChannelSetup        byte = 0x47
)

// EventStim is the event type of a live stimulation event.
const EventStim byte = 0x03

// DelScheduleLen is the payload length of a delete-schedule frame.
const DelScheduleLen byte = 0x01

// headerLen is dest + src + type + len.
const headerLen = 4

// Frame is one protocol message, header and checksum excluded.
type Frame struct {
	Type    byte
	Payload []byte
}

// Checksum computes the one-byte checksum over b: sum all bytes, fold the
// carry byte back into the low byte, invert.
func Checksum(b []byte) byte {
	sum := 0
	for _, c := range b {
		sum += int(c)
	}
	return byte(((sum & 0xFF) + (sum >> 8)) ^ 0xFF)
}

// Seal overwrites the final byte of frame with the checksum of the
// preceding bytes and returns frame.
func Seal(frame []byte) []byte {
	frame[len(frame)-1] = Checksum(frame[:len(frame)-1])
	return frame
}

// Valid reports whether the trailing byte of frame is the checksum of the
// preceding bytes.
func Valid(frame []byte) bool {
	if len(frame) == 0 {
		return false
	}
	return frame[len(frame)-1] == Checksum(frame[:len(frame)-1])
}

// Bytes returns the encoded frame ready for transmission.
func (f *Frame) Bytes() []byte {
	b := make([]byte, headerLen+len(f.Payload)+1)
	b[0], b[1], b[2], b[3] = DestAddr, SrcAddr, f.Type, byte(len(f.Payload))
	copy(b[headerLen:], f.Payload)
	return Seal(b)
}

// WriteTo writes the encoded frame.
func (f *Frame) WriteTo(w io.Writer) (int, error) {
	return w.Write(f.Bytes())
}

// Decode parses an encoded frame, validating the declared payload length
// and the checksum. The addressing bytes are not validated: replies carry
// the board's own addressing and the board is trusted on that.
func Decode(b []byte) (*Frame, error) {
	if len(b) < headerLen+1 {
		return nil, ErrShortFrame
	}
	if int(b[3]) != len(b)-headerLen-1 {
		return nil, ErrBadLength
	}
	if !Valid(b) {
		return nil, ErrBadChecksum
	}
	f := &Frame{Type: b[2]}
	if n := int(b[3]); n > 0 {
		f.Payload = b[headerLen : headerLen+n]
	}
	return f, nil
}

// SplitUint16 splits a 16-bit quantity into big-endian bytes for embedding
// in a frame. Out-of-range values wrap per byte conversion; the original
// protocol treats the halves as two independent single-byte fields.
func SplitUint16(v int) (hi, lo byte) {
	return byte(v / 256), byte(v % 256)
}

// HexByte formats a byte for debug logs.
func HexByte(b byte) string {
	return fmt.Sprintf("0x%02X", b)
}
