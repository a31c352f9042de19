// Package segment folds recognition events into transcript segments and generates segment IDs.
package segment

import (
	"errors"
	"fmt"
)

// State represents the lifecycle state of a segment.
type State int

const (
	// StateOpen - Segment is receiving events.
	StateOpen State = iota
	// StateClosed - Segment was ended by a transfer. Terminal.
	StateClosed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// IsTerminal returns true if no further events can be applied in this state.
func (s State) IsTerminal() bool {
	return s == StateClosed
}

// ErrSegmentClosed is returned when mutating a segment that was already closed.
var ErrSegmentClosed = errors.New("segment is closed")
