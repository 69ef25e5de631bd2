package services

import (
	"errors"
	"time"

	"github.com/felixgeelhaar/ganttline/internal/planning/domain"
)

// ErrInvalidCalendar is returned for a working window that never opens.
var ErrInvalidCalendar = errors.New("working day must end after it starts")

// WorkingCalendar is a daily working window, optionally closed on weekends.
type WorkingCalendar struct {
	DayStart     time.Duration
	DayEnd       time.Duration
	SkipWeekends bool
	Location     *time.Location
}

// Validate checks the window opens and closes on the same day, before midnight.
func (c WorkingCalendar) Validate() error {
	if c.DayStart < 0 || c.DayEnd >= 24*time.Hour || c.DayEnd <= c.DayStart {
		return ErrInvalidCalendar
	}
	return nil
}

func (c WorkingCalendar) loc() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

func (c WorkingCalendar) isWorkday(day time.Time) bool {
	if !c.SkipWeekends {
		return true
	}
	wd := day.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// window returns the working window of t's day.
func (c WorkingCalendar) window(t time.Time) (time.Time, time.Time) {
	t = t.In(c.loc())
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc())
	return midnight.Add(c.DayStart), midnight.Add(c.DayEnd)
}

func nextMidnight(open time.Time) time.Time {
	y, m, d := open.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, open.Location())
}

// WorkingDuration sums the working time inside [start, stop].
func (c WorkingCalendar) WorkingDuration(start, stop time.Time) time.Duration {
	var total time.Duration
	for day := start; day.Before(stop); {
		open, end := c.window(day)
		if c.isWorkday(open) {
			from, to := maxTime(open, start), minTime(end, stop)
			if to.After(from) {
				total += to.Sub(from)
			}
		}
		day = nextMidnight(open)
	}
	return total
}

// LayForward returns the earliest working interval of length d starting at
// or after from.
func (c WorkingCalendar) LayForward(from time.Time, d time.Duration) (time.Time, time.Time) {
	var start time.Time
	t := from
	for {
		open, end := c.window(t)
		if !c.isWorkday(open) || !t.Before(end) {
			t = nextMidnight(open).Add(c.DayStart)
			continue
		}
		if t.Before(open) {
			t = open
		}
		if start.IsZero() {
			start = t
		}
		avail := end.Sub(t)
		if d <= avail {
			return start.UTC(), t.Add(d).UTC()
		}
		d -= avail
		t = nextMidnight(open).Add(c.DayStart)
	}
}

// LayBackward returns the latest working interval of length d ending at or
// before from.
func (c WorkingCalendar) LayBackward(from time.Time, d time.Duration) (time.Time, time.Time) {
	var stop time.Time
	t := from
	for {
		open, end := c.window(t)
		if !c.isWorkday(open) || !t.After(open) {
			_, t = c.window(open.Add(-24 * time.Hour))
			continue
		}
		if t.After(end) {
			t = end
		}
		if stop.IsZero() {
			stop = t
		}
		avail := t.Sub(open)
		if d <= avail {
			return t.Add(-d).UTC(), stop.UTC()
		}
		d -= avail
		_, t = c.window(open.Add(-24 * time.Hour))
	}
}

// WorkingCalendarHooks lays records out in working time only, keeping their
// working duration. Eligibility and conflict rules are the default ones.
type WorkingCalendarHooks struct {
	domain.DefaultHooks
	Calendar WorkingCalendar
}

// NewWorkingCalendarHooks validates the calendar and builds the hooks.
func NewWorkingCalendarHooks(calendar WorkingCalendar, now func() time.Time) (*WorkingCalendarHooks, error) {
	if err := calendar.Validate(); err != nil {
		return nil, err
	}
	return &WorkingCalendarHooks{
		DefaultHooks: domain.DefaultHooks{Now: now},
		Calendar:     calendar,
	}, nil
}

// ComputeDates moves r to the first working time at or after anchor
// (forward) or the last one at or before it (backward). A record without
// working time inside it is shifted plainly.
func (h *WorkingCalendarHooks) ComputeDates(r *domain.Record, anchor time.Time, dir domain.Direction, fields domain.FieldSet) (time.Time, time.Time) {
	start, stop := fields.Start.Get(r), fields.Stop.Get(r)
	if start == nil || stop == nil || stop.Before(*start) {
		return h.DefaultHooks.ComputeDates(r, anchor, dir, fields)
	}
	work := h.Calendar.WorkingDuration(*start, *stop)
	if work == 0 {
		return h.DefaultHooks.ComputeDates(r, anchor, dir, fields)
	}
	if dir.IsForward() {
		return h.Calendar.LayForward(anchor, work)
	}
	return h.Calendar.LayBackward(anchor, work)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
