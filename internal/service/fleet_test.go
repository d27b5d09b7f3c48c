package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boatyard/boatyard-server/internal/domain"
	"github.com/boatyard/boatyard-server/internal/store"
	"github.com/boatyard/boatyard-server/internal/store/badgerdb"
	"github.com/boatyard/boatyard-server/internal/store/sqlite"
	"github.com/boatyard/boatyard-server/internal/validation"
)

// fleet bundles the services under test over one store.
type fleet struct {
	store     *faultyStore
	boats     *BoatService
	loads     *LoadService
	relations *RelationshipService
	users     *UserService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFleet(t *testing.T, st store.Store) *fleet {
	t.Helper()
	t.Cleanup(func() { _ = st.Close() })

	logger := discardLogger()
	v := validation.New()
	fs := &faultyStore{Store: st}

	boats := NewBoatService(fs, v, logger)
	loads := NewLoadService(fs, v, logger)
	return &fleet{
		store:     fs,
		boats:     boats,
		loads:     loads,
		relations: NewRelationshipService(boats, loads, logger),
		users:     NewUserService(fs, logger),
	}
}

// forEachBackend runs fn against a fresh fleet on every local backend.
func forEachBackend(t *testing.T, fn func(t *testing.T, f *fleet)) {
	t.Helper()

	t.Run("badger", func(t *testing.T) {
		st, err := badgerdb.Open(t.TempDir(), nil, badgerdb.DefaultIndexes()...)
		require.NoError(t, err)
		fn(t, newFleet(t, st))
	})
	t.Run("sqlite", func(t *testing.T) {
		st, err := sqlite.Open(filepath.Join(t.TempDir(), "boatyard.db"), nil)
		require.NoError(t, err)
		fn(t, newFleet(t, st))
	})
}

func (f *fleet) boat(t *testing.T, owner, name string) *domain.Boat {
	t.Helper()
	b, err := f.boats.Create(context.Background(), owner, BoatRequest{Name: name, Type: "Sloop", Length: 28})
	require.NoError(t, err)
	return b
}

func (f *fleet) load(t *testing.T, weight float64) *domain.Load {
	t.Helper()
	l, err := f.loads.Create(context.Background(), LoadRequest{Weight: weight, Country: "US", Manufacturer: "Acme"})
	require.NoError(t, err)
	return l
}

// reload reads both entities back from the store, bypassing ownership.
func (f *fleet) reload(t *testing.T, boatID, loadID int64) (*domain.Boat, *domain.Load) {
	t.Helper()
	b, err := f.boats.fetch(context.Background(), boatID)
	require.NoError(t, err)
	l, err := f.loads.Get(context.Background(), loadID)
	require.NoError(t, err)
	return b, l
}

var errInjected = errors.New("injected write failure")

// faultyStore fails writes of one kind once armed.
type faultyStore struct {
	store.Store
	failKind   domain.Kind
	failUpdate atomic.Bool
	failDelete atomic.Bool
}

func (s *faultyStore) Update(ctx context.Context, kind domain.Kind, id int64, attrs store.Attributes) error {
	if kind == s.failKind && s.failUpdate.Load() {
		return errInjected
	}
	return s.Store.Update(ctx, kind, id, attrs)
}

func (s *faultyStore) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	if kind == s.failKind && s.failDelete.Load() {
		return errInjected
	}
	return s.Store.Delete(ctx, kind, id)
}

func (s *faultyStore) failUpdates(kind domain.Kind) {
	s.failKind = kind
	s.failUpdate.Store(true)
}

func (s *faultyStore) failDeletes(kind domain.Kind) {
	s.failKind = kind
	s.failDelete.Store(true)
}

func (s *faultyStore) heal() {
	s.failUpdate.Store(false)
	s.failDelete.Store(false)
}

func mustBadger(t *testing.T) store.Store {
	t.Helper()
	st, err := badgerdb.Open(t.TempDir(), nil, badgerdb.DefaultIndexes()...)
	require.NoError(t, err)
	return st
}
