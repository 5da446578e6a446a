// Package uecu implements the UECU wire protocol codec.
package uecu

// The UECU protocol is communicated between the host and a multi-channel
// stimulation controller board over a serial link. Every message is a
// framed byte sequence:
//
//	[dest 0x04][src 0x80][type][len][payload...][checksum]
//
// where len counts payload bytes only and the trailing checksum is the
// inverted carry-folded sum of all preceding bytes. Replies from the board
// use the same framing. This package provides the frame codec and the
// reply reader; session state (channels, events, schedules) lives in
// package stim.
//
// Producer: stimulation controller firmware
// Consumer: host-side driver
