package models

import "fmt"

// BlockKind names the three kinds of scheduled blocks.
type BlockKind string

const (
	KindEvent      BlockKind = "event"
	KindHorario    BlockKind = "horario"
	KindEvaluacion BlockKind = "evaluacion"
)

// Block holds the fields shared by every scheduled item. ID and OwnerID are assigned by the store.
type Block struct {
	ID       int64  `json:"id"`
	OwnerID  int64  `json:"owner_id"`
	ColorHex string `json:"color_hex,omitempty"`
	Location string `json:"location,omitempty"`
}

// Entity is implemented by pointers to stored blocks.
type Entity interface {
	GetID() int64
	SetID(id int64)
	GetOwnerID() int64
	SetOwnerID(ownerID int64)
}

// GetID returns the store-assigned id.
func (b *Block) GetID() int64 { return b.ID }

// SetID sets the id; only the store calls it.
func (b *Block) SetID(id int64) { b.ID = id }

// GetOwnerID returns the owning user id.
func (b *Block) GetOwnerID() int64 { return b.OwnerID }

// SetOwnerID sets the owning user id.
func (b *Block) SetOwnerID(ownerID int64) { b.OwnerID = ownerID }

// BlockRef identifies a stored block across kinds.
type BlockRef struct {
	Kind BlockKind `json:"kind"`
	ID   int64     `json:"id"`
}

// InvalidRangeError is returned when a window does not end strictly after it starts.
type InvalidRangeError struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Error implements the error interface.
func (e *InvalidRangeError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("end time %s must be after start time %s", e.End, e.Start)
}
