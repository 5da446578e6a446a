package stim

import "errors"

var (
	// ErrNotEnabled indicates the stimulator rejected an operation because
	// it is disabled or was never enabled.
	ErrNotEnabled = errors.New("stimulator not enabled")
	// ErrNoScheduleID indicates a schedule operation before the board
	// assigned the schedule id.
	ErrNoScheduleID = errors.New("schedule id not assigned")
	// ErrIDAssigned indicates an attempt to overwrite a board-assigned id.
	ErrIDAssigned = errors.New("id already assigned")
	// ErrEventIDUnassigned indicates an event is addressed before the board
	// assigned its id.
	ErrEventIDUnassigned = errors.New("event id not assigned")
	// ErrNoEvent indicates no event is registered for the channel.
	ErrNoEvent = errors.New("no event for channel")
	// ErrNoChannel indicates the channel is not in the stimulator's list.
	ErrNoChannel = errors.New("no such channel")
	// ErrEmptyReply indicates a handshake reply carried no payload to take
	// an id from.
	ErrEmptyReply = errors.New("empty reply payload")
)
