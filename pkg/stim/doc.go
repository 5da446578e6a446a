// Package stim drives a multi-channel FES controller board.
package stim

// The driver keeps host-side state synchronized with the board: channels
// are configured once at startup, a schedule is created on the board and
// events are registered to it through request/reply handshakes, and the
// staged amplitude/pulse-width values are pushed periodically with Update.
//
// The serial link is injected as a Transport; package serial provides the
// real port and tests use scripted doubles. Wire framing lives in package
// uecu.
