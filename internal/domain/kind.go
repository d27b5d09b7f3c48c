// Package domain holds the Boatyard entities and the rules that apply to a
// single entity in isolation. Rules spanning a boat and a load live in the
// service package.
package domain

// Kind names an entity collection in the store.
type Kind string

// Entity kinds.
const (
	KindBoat Kind = "BOAT"
	KindLoad Kind = "LOAD"
	KindUser Kind = "USER"
)

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }
