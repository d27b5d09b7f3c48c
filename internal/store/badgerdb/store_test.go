package badgerdb

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boatyard/boatyard-server/internal/domain"
	"github.com/boatyard/boatyard-server/internal/store"
	"github.com/boatyard/boatyard-server/internal/store/storetest"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	if len(opts) == 0 {
		opts = DefaultIndexes()
	}
	s, err := Open(t.TempDir(), slog.New(slog.DiscardHandler), opts...)
	require.NoError(t, err)
	return s
}

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t)
	})
}

func TestConformance_NoIndexes(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return newTestStore(t, func(*Store) {})
	})
}

func TestIDsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := Open(dir, nil, DefaultIndexes()...)
	require.NoError(t, err)
	first, err := s.Create(ctx, domain.KindBoat, store.Attributes{"owner": "a"})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir, nil, DefaultIndexes()...)
	require.NoError(t, err)
	defer s.Close()

	second, err := s.Create(ctx, domain.KindBoat, store.Attributes{"owner": "a"})
	require.NoError(t, err)
	assert.Greater(t, second, first)

	n, err := s.Count(ctx, domain.KindBoat, []store.Filter{{Field: "owner", Value: "a"}})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestIndexValueWithSeparator(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	_, err := s.Create(ctx, domain.KindBoat, store.Attributes{"owner": "a:b"})
	require.NoError(t, err)
	_, err = s.Create(ctx, domain.KindBoat, store.Attributes{"owner": "a"})
	require.NoError(t, err)

	n, err := s.Count(ctx, domain.KindBoat, []store.Filter{{Field: "owner", Value: "a"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCursorFromOtherQueryRejected(t *testing.T) {
	s := newTestStore(t)
	defer s.Close()
	ctx := context.Background()

	for range 6 {
		_, err := s.Create(ctx, domain.KindBoat, store.Attributes{"owner": "a"})
		require.NoError(t, err)
	}

	page, err := s.Query(ctx, store.Query{Kind: domain.KindBoat, Limit: store.PageSize})
	require.NoError(t, err)
	require.NotEmpty(t, page.NextCursor)

	_, err = s.Query(ctx, store.Query{
		Kind:    domain.KindBoat,
		Filters: []store.Filter{{Field: "owner", Value: "a"}},
		Limit:   store.PageSize,
		Cursor:  page.NextCursor,
	})
	assert.ErrorIs(t, err, store.ErrInvalidCursor)
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Ping(context.Background()), store.ErrUnavailable)

	_, err := s.Get(context.Background(), domain.KindBoat, 1)
	assert.ErrorIs(t, err, store.ErrUnavailable)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}

func TestIDFromKey(t *testing.T) {
	id, err := idFromKey(dataKeyCopy(domain.KindLoad, 42))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = idFromKey(indexKey(domain.KindBoat, "owner", "x", 7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = idFromKey([]byte("e:BOAT:12"))
	assert.Error(t, err)
}
