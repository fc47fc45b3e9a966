package models

// Event is a one-off block on a single calendar date.
type Event struct {
	Block
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Start       LocalDateTime `json:"start"`
	End         LocalDateTime `json:"end"`
}

// TimeRange returns the dated window occupied by the event.
func (e Event) TimeRange() (TimeRange, error) {
	return NewDatedRange(e.Start.Date(), e.Start.Clock(), e.End.Clock())
}
