package models

// Occurrence is one concrete appearance of a block on a calendar date.
type Occurrence struct {
	Kind     BlockKind `json:"kind"`
	BlockID  int64     `json:"block_id"`
	Title    string    `json:"title"`
	Subject  string    `json:"subject,omitempty"`
	Location string    `json:"location,omitempty"`
	ColorHex string    `json:"color_hex,omitempty"`
	Date     LocalDate `json:"date"`
	Start    ClockTime `json:"start"`
	End      ClockTime `json:"end"`
}
