package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"

	"github.com/boatyard/boatyard-server/internal/domain"
)

// idField is the JSON attribute that carries the record key. It is stripped
// on write and restored on read; backends never store it.
const idField = "id"

// Entity provides typed CRUD over one kind of a Store.
// T is encoded through its JSON form, so its json tags name the attributes.
type Entity[T any] struct {
	store Store
	kind  domain.Kind
}

// NewEntity creates a new Entity instance for type T.
func NewEntity[T any](s Store, kind domain.Kind) *Entity[T] {
	return &Entity[T]{store: s, kind: kind}
}

// Kind returns the kind this entity reads and writes.
func (e *Entity[T]) Kind() domain.Kind { return e.kind }

// Create stores a new entity and returns its id.
func (e *Entity[T]) Create(ctx context.Context, entity *T) (int64, error) {
	attrs, err := ToAttributes(entity)
	if err != nil {
		return 0, err
	}
	return e.store.Create(ctx, e.kind, attrs)
}

// Get retrieves an entity by ID.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Get(ctx context.Context, id int64) (*T, error) {
	attrs, err := e.store.Get(ctx, e.kind, id)
	if err != nil {
		return nil, err
	}
	return FromAttributes[T](id, attrs)
}

// Update overwrites an existing entity.
// Returns ErrNotFound if the entity does not exist.
func (e *Entity[T]) Update(ctx context.Context, id int64, entity *T) error {
	attrs, err := ToAttributes(entity)
	if err != nil {
		return err
	}
	return e.store.Update(ctx, e.kind, id, attrs)
}

// Delete deletes an entity by ID. Deleting a missing entity is not an error.
func (e *Entity[T]) Delete(ctx context.Context, id int64) error {
	return e.store.Delete(ctx, e.kind, id)
}

// List returns one page of entities matching filters and the cursor of the next page.
func (e *Entity[T]) List(ctx context.Context, filters []Filter, limit int, cursor string) ([]*T, string, error) {
	page, err := e.store.Query(ctx, Query{Kind: e.kind, Filters: filters, Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, "", err
	}

	items := make([]*T, 0, len(page.Items))
	for _, rec := range page.Items {
		v, err := FromAttributes[T](rec.ID, rec.Attributes)
		if err != nil {
			return nil, "", err
		}
		items = append(items, v)
	}
	return items, page.NextCursor, nil
}

// Count returns the number of entities matching filters.
func (e *Entity[T]) Count(ctx context.Context, filters []Filter) (int, error) {
	return e.store.Count(ctx, e.kind, filters)
}

// ToAttributes encodes v as attributes, dropping the id field.
// Numbers decode as json.Number so integers keep full precision.
func ToAttributes(v any) (Attributes, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	attrs, err := DecodeAttributes(data)
	if err != nil {
		return nil, err
	}
	delete(attrs, idField)
	return attrs, nil
}

// DecodeAttributes parses a JSON object into attributes.
func DecodeAttributes(data []byte) (Attributes, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var attrs Attributes
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attributes: %w", err)
	}
	if attrs == nil {
		attrs = Attributes{}
	}
	return attrs, nil
}

// FromAttributes decodes attrs into a T whose id field is set to id.
func FromAttributes[T any](id int64, attrs Attributes) (*T, error) {
	withID := maps.Clone(attrs)
	if withID == nil {
		withID = Attributes{}
	}
	withID[idField] = id

	data, err := json.Marshal(withID)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attributes: %w", err)
	}

	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &entity, nil
}
