package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const badgerPrefix = "x:sess:"

// BadgerStore keeps sessions as TTL entries in a Badger database.
// The database may be shared with the entity store; keys use their own prefix.
type BadgerStore struct {
	db     *badger.DB
	ownsDB bool
}

// NewBadgerStore uses an already open database. Close leaves it open.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadgerStore opens a dedicated database at path. Close closes it.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}
	return &BadgerStore{db: db, ownsDB: true}, nil
}

// Put implements Store.
func (s *BadgerStore) Put(ctx context.Context, id string, st State, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := encode(st)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(badgerPrefix+id), data).WithTTL(ttl))
	})
}

// Take implements Store.
func (s *BadgerStore) Take(ctx context.Context, id string) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var st *State
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(badgerPrefix + id)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			st, err = decode(val)
			return err
		}); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
