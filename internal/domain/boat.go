package domain

import (
	"encoding/json"
	"slices"
)

// Boat is a vessel owned by one authenticated subject.
//
// Loads lists the ids of loads whose Carrier is this boat, in assignment order.
// It is written only by the relationship engine.
type Boat struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Length float64 `json:"length"`
	Owner  string  `json:"owner"`
	Loads  []int64 `json:"loads"`
}

// MarshalJSON renders an empty load list as [] rather than null.
func (b Boat) MarshalJSON() ([]byte, error) {
	type plain Boat
	if b.Loads == nil {
		b.Loads = []int64{}
	}
	return json.Marshal(plain(b))
}

// OwnedBy reports whether sub owns the boat.
func (b *Boat) OwnedBy(sub string) bool {
	return b.Owner == sub
}

// HasLoad reports whether loadID is in the boat's load list.
func (b *Boat) HasLoad(loadID int64) bool {
	return slices.Contains(b.Loads, loadID)
}

// AddLoad appends loadID to the load list.
func (b *Boat) AddLoad(loadID int64) {
	b.Loads = append(b.Loads, loadID)
}

// RemoveLoad removes the first occurrence of loadID and reports whether one was found.
// The list is never left nil.
func (b *Boat) RemoveLoad(loadID int64) bool {
	i := slices.Index(b.Loads, loadID)
	if i < 0 {
		if b.Loads == nil {
			b.Loads = []int64{}
		}
		return false
	}
	b.Loads = slices.Delete(slices.Clone(b.Loads), i, i+1)
	return true
}

// BoatPatch carries a partial boat update. Nil fields keep the current value.
type BoatPatch struct {
	Name   *string  `json:"name,omitempty" validate:"omitnil,notblank,max=100"`
	Type   *string  `json:"type,omitempty" validate:"omitnil,notblank,max=100"`
	Length *float64 `json:"length,omitempty" validate:"omitnil,gt=0"`
}

// Apply merges the patch into b, field by field.
func (p BoatPatch) Apply(b *Boat) {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Type != nil {
		b.Type = *p.Type
	}
	if p.Length != nil {
		b.Length = *p.Length
	}
}
