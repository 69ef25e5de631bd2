package domain

import "time"

// Hooks is the per-model strategy the engine consults. Implementations must
// not write to the store.
type Hooks interface {
	// IsRecordCandidate reports whether r may be moved at all.
	IsRecordCandidate(r *Record, fields FieldSet) bool
	// IsRelationCandidate reports whether rescheduling along master -> slave is allowed.
	IsRelationCandidate(master, slave *Record, fields FieldSet) bool
	// ComputeDates returns r's new (start, stop) laid out from anchor.
	ComputeDates(r *Record, anchor time.Time, dir Direction, fields FieldSet) (time.Time, time.Time)
	// IsInConflict reports whether master and slave violate precedence.
	IsInConflict(master, slave *Record, fields FieldSet) bool
}

// DefaultHooks implements the plain precedence rules with no calendar.
type DefaultHooks struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

func (h DefaultHooks) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// IsRecordCandidate requires both dates and a start in the future.
func (h DefaultHooks) IsRecordCandidate(r *Record, fields FieldSet) bool {
	start, stop := fields.Start.Get(r), fields.Stop.Get(r)
	return start != nil && stop != nil && start.After(h.now())
}

// IsRelationCandidate allows every relation.
func (DefaultHooks) IsRelationCandidate(_, _ *Record, _ FieldSet) bool {
	return true
}

// ComputeDates shifts r so that it starts (forward) or ends (backward) at
// anchor, keeping its duration.
func (DefaultHooks) ComputeDates(r *Record, anchor time.Time, dir Direction, fields FieldSet) (time.Time, time.Time) {
	return ShiftDates(fields.Start.Get(r), fields.Stop.Get(r), anchor, dir)
}

// IsInConflict holds when master stops after slave starts.
func (DefaultHooks) IsInConflict(master, slave *Record, fields FieldSet) bool {
	stop, start := fields.Stop.Get(master), fields.Start.Get(slave)
	return stop != nil && start != nil && stop.After(*start)
}

// ShiftDates places an interval of the same length as [start, stop] against
// anchor and returns it ordered. Missing dates count as a zero length.
func ShiftDates(start, stop *time.Time, anchor time.Time, dir Direction) (time.Time, time.Time) {
	var d time.Duration
	if start != nil && stop != nil {
		d = stop.Sub(*start)
	}
	a, b := anchor, anchor.Add(d)
	if dir == Backward {
		a, b = anchor.Add(-d), anchor
	}
	if b.Before(a) {
		a, b = b, a
	}
	return a.UTC(), b.UTC()
}
