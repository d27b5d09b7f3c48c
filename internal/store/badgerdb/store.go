// Package badgerdb implements store.Store on an embedded Badger database.
package badgerdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/boatyard/boatyard-server/internal/domain"
	"github.com/boatyard/boatyard-server/internal/store"
)

// sequenceBandwidth is how many ids a sequence leases per disk write.
const sequenceBandwidth = 64

// Store wraps a Badger database instance.
type Store struct {
	db      *badger.DB
	logger  *slog.Logger
	indexes map[domain.Kind][]string

	mu   sync.Mutex
	seqs map[domain.Kind]*badger.Sequence
}

// Option configures a Store.
type Option func(*Store)

// WithIndex maintains a secondary index on field for records of kind.
// Equality filters on an indexed field scan only the matching index entries.
func WithIndex(kind domain.Kind, field string) Option {
	return func(s *Store) {
		s.indexes[kind] = append(s.indexes[kind], field)
	}
}

// DefaultIndexes covers the filters the services issue.
func DefaultIndexes() []Option {
	return []Option{
		WithIndex(domain.KindBoat, "owner"),
		WithIndex(domain.KindLoad, "carrier"),
		WithIndex(domain.KindUser, "sub"),
	}
}

// Open opens (or creates) the database at path.
func Open(path string, logger *slog.Logger, opts ...Option) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	bopts.Logger = nil            // Disable Badger's internal logging
	bopts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	bopts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:      db,
		logger:  logger,
		indexes: make(map[domain.Kind][]string),
		seqs:    make(map[domain.Kind]*badger.Sequence),
	}
	for _, opt := range opts {
		opt(s)
	}

	if logger != nil {
		logger.Info("Badger database opened successfully", "path", path)
	}

	return s, nil
}

// DB exposes the underlying database for components that share it, such as
// the login session store.
func (s *Store) DB() *badger.DB { return s.db }

// Close releases leased ids and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	for kind, seq := range s.seqs {
		if err := seq.Release(); err != nil && s.logger != nil {
			s.logger.Warn("failed to release id sequence", "kind", kind, "error", err)
		}
	}
	s.seqs = map[domain.Kind]*badger.Sequence{}
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Info("Closing database connection")
	}
	return s.db.Close()
}

// Ping reports ErrUnavailable once the database has been closed.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return store.ErrUnavailable.WithCause(badger.ErrDBClosed)
	}
	return nil
}

func (s *Store) sequence(kind domain.Kind) (*badger.Sequence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq, ok := s.seqs[kind]; ok {
		return seq, nil
	}
	seq, err := s.db.GetSequence(sequenceKey(kind), sequenceBandwidth)
	if err != nil {
		return nil, wrapErr(err, "open id sequence")
	}
	s.seqs[kind] = seq
	return seq, nil
}

// Create stores attrs under the next id of kind. Ids start at 1.
func (s *Store) Create(ctx context.Context, kind domain.Kind, attrs store.Attributes) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	seq, err := s.sequence(kind)
	if err != nil {
		return 0, err
	}
	n, err := seq.Next()
	if err != nil {
		return 0, wrapErr(err, "next id")
	}
	id := int64(n) + 1 //nolint:gosec // sequence values stay far below MaxInt64

	data, err := json.Marshal(attrs)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal attributes: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(dataKeyCopy(kind, id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return s.setIndexes(txn, kind, id, attrs)
	})
	if err != nil {
		return 0, wrapErr(err, "create")
	}
	return id, nil
}

// Get returns the attributes stored for kind/id.
func (s *Store) Get(ctx context.Context, kind domain.Kind, id int64) (store.Attributes, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var attrs store.Attributes
	err := s.db.View(func(txn *badger.Txn) error {
		key := dataKey(kind, id)
		defer releaseKey(key)

		var err error
		attrs, err = readAttributes(txn, key)
		return err
	})
	if err != nil {
		return nil, wrapErr(err, "get")
	}
	return attrs, nil
}

// Update overwrites the record and moves its index entries.
func (s *Store) Update(ctx context.Context, kind domain.Kind, id int64, attrs store.Attributes) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("failed to marshal attributes: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := dataKeyCopy(kind, id)
		old, err := readAttributes(txn, key)
		if err != nil {
			return err
		}
		if err := s.deleteIndexes(txn, kind, id, old); err != nil {
			return err
		}
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return s.setIndexes(txn, kind, id, attrs)
	})
	return wrapErr(err, "update")
}

// Delete removes the record and its index entries. Missing records are ignored.
func (s *Store) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		key := dataKeyCopy(kind, id)
		old, err := readAttributes(txn, key)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.deleteIndexes(txn, kind, id, old); err != nil {
			return err
		}
		if err := txn.Delete(key); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
		return nil
	})
	return wrapErr(err, "delete")
}

// Query returns one page of matching records in id order.
// The cursor is the last key scanned, so a page resumes strictly after it.
func (s *Store) Query(ctx context.Context, q store.Query) (*store.Page, error) {
	after, err := store.DecodeCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	plan := s.plan(q.Kind, q.Filters)
	if after != "" && !bytes.HasPrefix([]byte(after), plan.prefix) {
		return nil, store.ErrInvalidCursor.WithCause(fmt.Errorf("cursor does not belong to this query"))
	}

	page := &store.Page{Items: []store.Record{}}
	var lastKey []byte

	err = s.db.View(func(txn *badger.Txn) error {
		return s.scan(ctx, txn, plan, []byte(after), true, func(key []byte, rec store.Record) bool {
			if q.Limit > 0 && len(page.Items) == q.Limit {
				page.NextCursor = store.EncodeCursor(string(lastKey))
				return false
			}
			page.Items = append(page.Items, rec)
			lastKey = key
			return true
		})
	})
	if err != nil {
		return nil, wrapErr(err, "query")
	}
	return page, nil
}

// Count returns the number of records of kind matching filters.
func (s *Store) Count(ctx context.Context, kind domain.Kind, filters []store.Filter) (int, error) {
	plan := s.plan(kind, filters)
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		return s.scan(ctx, txn, plan, nil, len(plan.residual) > 0, func([]byte, store.Record) bool {
			n++
			return true
		})
	})
	if err != nil {
		return 0, wrapErr(err, "count")
	}
	return n, nil
}

// scanPlan is either a data scan over every record of a kind or an index scan
// over one field value, plus the filters still to be checked per record.
type scanPlan struct {
	kind      domain.Kind
	prefix    []byte
	indexScan bool
	residual  []store.Filter
}

func (s *Store) plan(kind domain.Kind, filters []store.Filter) scanPlan {
	for i, f := range filters {
		if !s.indexed(kind, f.Field) {
			continue
		}
		residual := make([]store.Filter, 0, len(filters)-1)
		residual = append(residual, filters[:i]...)
		residual = append(residual, filters[i+1:]...)
		return scanPlan{
			kind:      kind,
			prefix:    indexValuePrefix(kind, f.Field, store.Canonical(f.Value)),
			indexScan: true,
			residual:  residual,
		}
	}
	return scanPlan{kind: kind, prefix: dataKeyPrefix(kind), residual: filters}
}

// scan walks the plan's prefix starting strictly after the given key, calling
// fn for each matching record until fn returns false. When load is false only
// keys are visited and records carry just their id.
func (s *Store) scan(ctx context.Context, txn *badger.Txn, p scanPlan, after []byte, load bool, fn func(key []byte, rec store.Record) bool) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = p.prefix
	opts.PrefetchValues = load && !p.indexScan

	it := txn.NewIterator(opts)
	defer it.Close()

	start := p.prefix
	if len(after) > 0 {
		start = after
	}

	for it.Seek(start); it.ValidForPrefix(p.prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}

		item := it.Item()
		key := item.KeyCopy(nil)
		if len(after) > 0 && bytes.Equal(key, after) {
			continue
		}

		id, err := idFromKey(key)
		if err != nil {
			return err
		}
		rec := store.Record{ID: id}

		if load {
			if p.indexScan {
				rec.Attributes, err = readAttributes(txn, dataKeyCopy(p.kind, id))
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
			} else {
				rec.Attributes, err = decodeItem(item)
			}
			if err != nil {
				return err
			}
			if !store.Matches(rec.Attributes, p.residual) {
				continue
			}
		}

		if !fn(key, rec) {
			return nil
		}
	}
	return nil
}

func (s *Store) indexed(kind domain.Kind, field string) bool {
	for _, f := range s.indexes[kind] {
		if f == field {
			return true
		}
	}
	return false
}

func (s *Store) setIndexes(txn *badger.Txn, kind domain.Kind, id int64, attrs store.Attributes) error {
	for _, field := range s.indexes[kind] {
		v, ok := attrs[field]
		if !ok {
			continue
		}
		if err := txn.Set(indexKey(kind, field, store.Canonical(v), id), nil); err != nil {
			return fmt.Errorf("failed to set index key: %w", err)
		}
	}
	return nil
}

func (s *Store) deleteIndexes(txn *badger.Txn, kind domain.Kind, id int64, attrs store.Attributes) error {
	for _, field := range s.indexes[kind] {
		v, ok := attrs[field]
		if !ok {
			continue
		}
		if err := txn.Delete(indexKey(kind, field, store.Canonical(v), id)); err != nil {
			return fmt.Errorf("failed to delete index key: %w", err)
		}
	}
	return nil
}

// dataKeyCopy builds an unpooled record key for writes; badger holds write
// keys until the transaction commits.
func dataKeyCopy(kind domain.Kind, id int64) []byte {
	return append(dataKeyPrefix(kind), formatID(id)...)
}

func readAttributes(txn *badger.Txn, key []byte) (store.Attributes, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return decodeItem(item)
}

func decodeItem(item *badger.Item) (store.Attributes, error) {
	var attrs store.Attributes
	err := item.Value(func(val []byte) error {
		var err error
		attrs, err = store.DecodeAttributes(val)
		return err
	})
	return attrs, err
}

// wrapErr keeps store sentinels and context errors as they are and reports a
// closed database as ErrUnavailable.
func wrapErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrDBClosed):
		return store.ErrUnavailable.WithCause(fmt.Errorf("%s: %w", op, err))
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrInvalidCursor),
		errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("badger %s: %w", op, err)
	}
}
