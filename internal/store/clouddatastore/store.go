// Package clouddatastore implements store.Store on Google Cloud Datastore.
package clouddatastore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/boatyard/boatyard-server/internal/domain"
	"github.com/boatyard/boatyard-server/internal/store"
)

// Store wraps a Datastore client. Ids are allocated by Datastore.
type Store struct {
	client *datastore.Client
	logger *slog.Logger
}

// Config selects the project and credentials.
// When CredentialsFile is empty, application default credentials are used;
// DATASTORE_EMULATOR_HOST is honoured by the client.
type Config struct {
	ProjectID       string
	CredentialsFile string
}

// Open creates a Datastore client.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := datastore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("datastore client: %w", err)
	}

	if logger != nil {
		logger.Info("Datastore client created", "project", cfg.ProjectID)
	}
	return &Store{client: client, logger: logger}, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping issues a keys-only query to confirm the backend answers.
func (s *Store) Ping(ctx context.Context) error {
	q := datastore.NewQuery(string(domain.KindUser)).KeysOnly().Limit(1)
	_, err := s.client.GetAll(ctx, q, nil)
	return wrapErr(err, "ping")
}

// Create puts a new entity under an incomplete key.
func (s *Store) Create(ctx context.Context, kind domain.Kind, attrs store.Attributes) (int64, error) {
	props := toProperties(attrs)
	key, err := s.client.Put(ctx, datastore.IncompleteKey(string(kind), nil), &props)
	if err != nil {
		return 0, wrapErr(err, "put")
	}
	return key.ID, nil
}

// Get loads kind/id.
func (s *Store) Get(ctx context.Context, kind domain.Kind, id int64) (store.Attributes, error) {
	var props datastore.PropertyList
	if err := s.client.Get(ctx, datastore.IDKey(string(kind), id, nil), &props); err != nil {
		return nil, wrapErr(err, "get")
	}
	return fromProperties(props), nil
}

// Update overwrites an existing entity inside a transaction so a missing
// entity is reported rather than created.
func (s *Store) Update(ctx context.Context, kind domain.Kind, id int64, attrs store.Attributes) error {
	key := datastore.IDKey(string(kind), id, nil)
	props := toProperties(attrs)

	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var current datastore.PropertyList
		if err := tx.Get(key, &current); err != nil {
			return err
		}
		_, err := tx.Put(key, &props)
		return err
	})
	return wrapErr(err, "update")
}

// Delete removes kind/id. Datastore deletes are idempotent.
func (s *Store) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	return wrapErr(s.client.Delete(ctx, datastore.IDKey(string(kind), id, nil)), "delete")
}

// Query runs an equality query ordered by key and pages with native cursors.
func (s *Store) Query(ctx context.Context, q store.Query) (*store.Page, error) {
	dq := buildQuery(q.Kind, q.Filters)
	if q.Cursor != "" {
		cursor, err := datastore.DecodeCursor(q.Cursor)
		if err != nil {
			return nil, store.ErrInvalidCursor.WithCause(err)
		}
		dq = dq.Start(cursor)
	}
	if q.Limit > 0 {
		dq = dq.Limit(q.Limit + 1)
	}

	page := &store.Page{Items: []store.Record{}}
	it := s.client.Run(ctx, dq)
	for {
		if q.Limit > 0 && len(page.Items) == q.Limit {
			cursor, err := it.Cursor()
			if err != nil {
				return nil, wrapErr(err, "cursor")
			}
			var peek datastore.PropertyList
			_, err = it.Next(&peek)
			if errors.Is(err, iterator.Done) {
				return page, nil
			}
			if err != nil {
				return nil, wrapErr(err, "query")
			}
			page.NextCursor = cursor.String()
			return page, nil
		}

		var props datastore.PropertyList
		key, err := it.Next(&props)
		if errors.Is(err, iterator.Done) {
			return page, nil
		}
		if err != nil {
			return nil, wrapErr(err, "query")
		}
		page.Items = append(page.Items, store.Record{ID: key.ID, Attributes: fromProperties(props)})
	}
}

// Count returns the number of matching entities.
func (s *Store) Count(ctx context.Context, kind domain.Kind, filters []store.Filter) (int, error) {
	n, err := s.client.Count(ctx, buildQuery(kind, filters))
	if err != nil {
		return 0, wrapErr(err, "count")
	}
	return n, nil
}

func buildQuery(kind domain.Kind, filters []store.Filter) *datastore.Query {
	q := datastore.NewQuery(string(kind))
	for _, f := range filters {
		q = q.FilterField(f.Field, "=", store.Scalar(f.Value))
	}
	return q.Order("__key__")
}

// toProperties converts attributes to a property list. Lists become
// []interface{} values; numbers are stored as int64 when integral.
func toProperties(attrs store.Attributes) datastore.PropertyList {
	props := make(datastore.PropertyList, 0, len(attrs))
	for name, v := range attrs {
		props = append(props, datastore.Property{Name: name, Value: toValue(v)})
	}
	return props
}

func toValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = toValue(e)
		}
		return out
	case []int64:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out
	default:
		return store.Scalar(v)
	}
}

func fromProperties(props datastore.PropertyList) store.Attributes {
	attrs := make(store.Attributes, len(props))
	for _, p := range props {
		if list, ok := p.Value.([]interface{}); ok {
			attrs[p.Name] = append([]any{}, list...)
			continue
		}
		attrs[p.Name] = p.Value
	}
	return attrs
}

// wrapErr maps Datastore errors to store sentinels.
func wrapErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, datastore.ErrNoSuchEntity):
		return store.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Unauthenticated, codes.PermissionDenied:
		return store.ErrUnavailable.WithCause(fmt.Errorf("datastore %s: %w", op, err))
	case codes.NotFound:
		return store.ErrNotFound
	}
	return fmt.Errorf("datastore %s: %w", op, err)
}
