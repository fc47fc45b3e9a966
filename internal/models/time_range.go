package models

import (
	"fmt"
	"time"
)

// TimeRange is a half-open [Start, End) window anchored either to a calendar date
// or to a weekday that repeats every week.
type TimeRange struct {
	date      LocalDate
	weekday   time.Weekday
	recurring bool
	start     ClockTime
	end       ClockTime
}

// NewDatedRange anchors a window to a single calendar date.
func NewDatedRange(date LocalDate, start, end ClockTime) (TimeRange, error) {
	if start >= end {
		return TimeRange{}, &InvalidRangeError{Start: start, End: end}
	}
	return TimeRange{date: date, weekday: date.Weekday(), start: start, end: end}, nil
}

// NewWeeklyRange anchors a window to a weekday.
func NewWeeklyRange(day time.Weekday, start, end ClockTime) (TimeRange, error) {
	if start >= end {
		return TimeRange{}, &InvalidRangeError{Start: start, End: end}
	}
	return TimeRange{weekday: day, recurring: true, start: start, end: end}, nil
}

// Start returns the inclusive start of the window.
func (r TimeRange) Start() ClockTime { return r.start }

// End returns the exclusive end of the window.
func (r TimeRange) End() ClockTime { return r.end }

// Recurring reports whether the window repeats weekly.
func (r TimeRange) Recurring() bool { return r.recurring }

// Date returns the anchor date; zero for recurring windows.
func (r TimeRange) Date() LocalDate { return r.date }

// Weekday returns the weekday the window falls on.
func (r TimeRange) Weekday() time.Weekday { return r.weekday }

// Overlaps reports whether both windows share at least one minute on the same day.
// Two dated windows must share the date; any pairing with a weekly window compares weekdays.
// Windows that only touch (r.End == o.Start) do not overlap.
func (r TimeRange) Overlaps(o TimeRange) bool {
	if !r.sameDay(o) {
		return false
	}
	return r.start < o.end && r.end > o.start
}

func (r TimeRange) sameDay(o TimeRange) bool {
	if !r.recurring && !o.recurring {
		return r.date.Equal(o.date)
	}
	return r.weekday == o.weekday
}

// Label renders the window as "HH:mm - HH:mm".
func (r TimeRange) Label() string {
	return fmt.Sprintf("%s - %s", r.start, r.end)
}

func (r TimeRange) String() string {
	if r.recurring {
		return fmt.Sprintf("%s %s", WeekdayOf(r.weekday), r.Label())
	}
	return fmt.Sprintf("%s %s", r.date, r.Label())
}
