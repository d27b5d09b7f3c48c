// Package store defines the entity store used by the Boatyard services.
//
// A Store keeps flat attribute records keyed by kind and a store-assigned
// numeric id. Backends live in the badgerdb, sqlite and clouddatastore
// subpackages and share the conformance suite in storetest.
package store

import (
	"context"

	"github.com/boatyard/boatyard-server/internal/domain"
)

// PageSize is the number of records returned per collection page.
const PageSize = 5

// Attributes is the non-key content of a record.
type Attributes map[string]any

// Record is a stored entity with its key.
type Record struct {
	ID         int64
	Attributes Attributes
}

// Filter matches records whose Field equals Value.
type Filter struct {
	Field string
	Value any
}

// Query selects one page of records of a kind.
// A Limit of zero or less returns every match in a single page.
type Query struct {
	Kind    domain.Kind
	Filters []Filter
	Limit   int
	Cursor  string
}

// Page is one page of query results in ascending id order.
// NextCursor is empty when no further matching records exist.
type Page struct {
	Items      []Record
	NextCursor string
}

// Store defines the persistence operations every backend provides.
// Each write is atomic for a single entity. There are no multi-entity transactions.
type Store interface {
	// Create stores attrs under a new id and returns the id.
	Create(ctx context.Context, kind domain.Kind, attrs Attributes) (int64, error)
	// Get returns ErrNotFound when no record exists.
	Get(ctx context.Context, kind domain.Kind, id int64) (Attributes, error)
	// Update overwrites every non-key attribute. Returns ErrNotFound when no record exists.
	Update(ctx context.Context, kind domain.Kind, id int64, attrs Attributes) error
	// Delete is idempotent.
	Delete(ctx context.Context, kind domain.Kind, id int64) error
	Query(ctx context.Context, q Query) (*Page, error)
	Count(ctx context.Context, kind domain.Kind, filters []Filter) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Matches reports whether attrs satisfies every filter.
func Matches(attrs Attributes, filters []Filter) bool {
	for _, f := range filters {
		v, ok := attrs[f.Field]
		if !ok || Canonical(v) != Canonical(f.Value) {
			return false
		}
	}
	return true
}
