package models

import "fmt"

// Horario is a weekly class slot for a subject.
type Horario struct {
	Block
	Subject   string    `json:"subject"`
	Weekday   Weekday   `json:"weekday"`
	StartTime ClockTime `json:"start_time"`
	EndTime   ClockTime `json:"end_time"`
	Professor string    `json:"professor,omitempty"`
	ClassType string    `json:"class_type,omitempty"`
}

// TimeRange returns the weekly window occupied by the slot.
func (h Horario) TimeRange() (TimeRange, error) {
	if !h.Weekday.Valid() {
		return TimeRange{}, fmt.Errorf("horario %d has unknown weekday %q", h.ID, h.Weekday)
	}
	return NewWeeklyRange(h.Weekday.Time(), h.StartTime, h.EndTime)
}

// ScheduleConflictError is returned when a candidate window overlaps an existing block.
type ScheduleConflictError struct {
	Kind    BlockKind `json:"kind"`
	ID      int64     `json:"id"`
	Label   string    `json:"label"`
	Window  string    `json:"window"`
	Message string    `json:"message"`
}

// ErrorDetails exposes the conflicting block to API clients.
func (e *ScheduleConflictError) ErrorDetails() interface{} { return e }

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
