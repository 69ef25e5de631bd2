package domain

import "fmt"

// Direction is the way a rescheduling call lays records out from its anchor.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// ParseDirection validates a caller supplied direction.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Forward, Backward:
		return d, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// IsForward reports whether d is Forward.
func (d Direction) IsForward() bool { return d == Forward }

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Forward {
		return Backward
	}
	return Forward
}

// Mode is the sub-mode a rescheduling call ran in.
type Mode string

const (
	ModeConflictFreeForward  Mode = "conflict_free_forward"
	ModeConflictFreeBackward Mode = "conflict_free_backward"
	ModeInConflictForward    Mode = "in_conflict_forward"
	ModeInConflictBackward   Mode = "in_conflict_backward"
)

// ConflictFree reports whether m is one of the two conflict-free modes.
func (m Mode) ConflictFree() bool {
	return m == ModeConflictFreeForward || m == ModeConflictFreeBackward
}
