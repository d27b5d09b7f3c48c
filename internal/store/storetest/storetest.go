// Package storetest runs the behaviour every store.Store backend must share.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boatyard/boatyard-server/internal/domain"
	"github.com/boatyard/boatyard-server/internal/store"
)

// Factory returns an empty store. The suite closes it.
type Factory func(t *testing.T) store.Store

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, s store.Store)
	}{
		{"CreateGet", testCreateGet},
		{"GetMissing", testGetMissing},
		{"IDsPerKind", testIDsPerKind},
		{"UpdateOverwrites", testUpdateOverwrites},
		{"UpdateMissing", testUpdateMissing},
		{"DeleteIdempotent", testDeleteIdempotent},
		{"QueryFiltersAndPages", testQueryFiltersAndPages},
		{"QueryExactPageHasNoCursor", testQueryExactPage},
		{"QueryIndexFollowsUpdate", testQueryIndexFollowsUpdate},
		{"QueryNumericFilter", testQueryNumericFilter},
		{"QueryUnlimited", testQueryUnlimited},
		{"InvalidCursor", testInvalidCursor},
		{"Ping", testPing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStore(t)
			t.Cleanup(func() { _ = s.Close() })
			tt.fn(t, s)
		})
	}
}

func boatAttrs(name, owner string) store.Attributes {
	return store.Attributes{
		"name":   name,
		"type":   "Sloop",
		"length": 28.5,
		"owner":  owner,
		"loads":  []any{},
	}
}

func testCreateGet(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.Create(ctx, domain.KindBoat, boatAttrs("Sea Witch", "sub-a"))
	require.NoError(t, err)
	assert.Positive(t, id)

	got, err := s.Get(ctx, domain.KindBoat, id)
	require.NoError(t, err)
	assert.Equal(t, "Sea Witch", got["name"])
	assert.Equal(t, "sub-a", got["owner"])
	assert.Equal(t, "28.5", store.Canonical(got["length"]))
	assert.NotContains(t, got, "id")

	boat, err := store.FromAttributes[domain.Boat](id, got)
	require.NoError(t, err)
	assert.Equal(t, id, boat.ID)
	assert.Equal(t, []int64{}, boat.Loads)
}

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.Get(context.Background(), domain.KindLoad, 424242)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrUnavailable)
}

func testIDsPerKind(t *testing.T, s store.Store) {
	ctx := context.Background()

	b1, err := s.Create(ctx, domain.KindBoat, boatAttrs("one", "sub-a"))
	require.NoError(t, err)
	b2, err := s.Create(ctx, domain.KindBoat, boatAttrs("two", "sub-a"))
	require.NoError(t, err)
	assert.Greater(t, b2, b1)

	l1, err := s.Create(ctx, domain.KindLoad, store.Attributes{"weight": 5, "carrier": -1})
	require.NoError(t, err)

	_, err = s.Get(ctx, domain.KindLoad, l1)
	require.NoError(t, err)

	// Kinds are separate namespaces even when ids collide.
	if l1 == b1 {
		got, err := s.Get(ctx, domain.KindBoat, b1)
		require.NoError(t, err)
		assert.Equal(t, "one", got["name"])
	}
}

func testUpdateOverwrites(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.Create(ctx, domain.KindBoat, boatAttrs("Before", "sub-a"))
	require.NoError(t, err)

	updated := boatAttrs("After", "sub-a")
	updated["loads"] = []any{int64(3), int64(9)}
	delete(updated, "type")
	require.NoError(t, s.Update(ctx, domain.KindBoat, id, updated))

	got, err := s.Get(ctx, domain.KindBoat, id)
	require.NoError(t, err)
	assert.Equal(t, "After", got["name"])
	assert.NotContains(t, got, "type", "update replaces every attribute")

	boat, err := store.FromAttributes[domain.Boat](id, got)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 9}, boat.Loads)
}

func testUpdateMissing(t *testing.T, s store.Store) {
	err := s.Update(context.Background(), domain.KindBoat, 999, boatAttrs("x", "y"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testDeleteIdempotent(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.Create(ctx, domain.KindBoat, boatAttrs("Doomed", "sub-a"))
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, domain.KindBoat, id))
	require.NoError(t, s.Delete(ctx, domain.KindBoat, id))

	_, err = s.Get(ctx, domain.KindBoat, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	n, err := s.Count(ctx, domain.KindBoat, []store.Filter{{Field: "owner", Value: "sub-a"}})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testQueryFiltersAndPages(t *testing.T, s store.Store) {
	ctx := context.Background()

	var mine []int64
	for i := range 7 {
		id, err := s.Create(ctx, domain.KindBoat, boatAttrs("mine", "sub-a"))
		require.NoError(t, err)
		mine = append(mine, id)

		if i%2 == 0 {
			_, err := s.Create(ctx, domain.KindBoat, boatAttrs("theirs", "sub-b"))
			require.NoError(t, err)
		}
	}

	filters := []store.Filter{{Field: "owner", Value: "sub-a"}}

	total, err := s.Count(ctx, domain.KindBoat, filters)
	require.NoError(t, err)
	assert.Equal(t, 7, total)

	all, err := s.Count(ctx, domain.KindBoat, nil)
	require.NoError(t, err)
	assert.Equal(t, 11, all)

	first, err := s.Query(ctx, store.Query{Kind: domain.KindBoat, Filters: filters, Limit: store.PageSize})
	require.NoError(t, err)
	require.Len(t, first.Items, 5)
	require.NotEmpty(t, first.NextCursor)

	second, err := s.Query(ctx, store.Query{Kind: domain.KindBoat, Filters: filters, Limit: store.PageSize, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	assert.Empty(t, second.NextCursor)

	var got []int64
	for _, rec := range append(first.Items, second.Items...) {
		assert.Equal(t, "sub-a", rec.Attributes["owner"])
		got = append(got, rec.ID)
	}
	assert.Equal(t, mine, got, "pages are in id order without gaps or repeats")
}

func testQueryExactPage(t *testing.T, s store.Store) {
	ctx := context.Background()

	for range store.PageSize {
		_, err := s.Create(ctx, domain.KindLoad, store.Attributes{"weight": 1, "carrier": -1})
		require.NoError(t, err)
	}

	page, err := s.Query(ctx, store.Query{Kind: domain.KindLoad, Limit: store.PageSize})
	require.NoError(t, err)
	assert.Len(t, page.Items, store.PageSize)
	assert.Empty(t, page.NextCursor)

	empty, err := s.Query(ctx, store.Query{Kind: domain.KindUser, Limit: store.PageSize})
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Empty(t, empty.Items)
}

func testQueryIndexFollowsUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()

	id, err := s.Create(ctx, domain.KindLoad, store.Attributes{"weight": 3, "carrier": -1})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, domain.KindLoad, id, store.Attributes{"weight": 3, "carrier": 12}))

	unassigned, err := s.Count(ctx, domain.KindLoad, []store.Filter{{Field: "carrier", Value: int64(-1)}})
	require.NoError(t, err)
	assert.Zero(t, unassigned)

	onBoat, err := s.Query(ctx, store.Query{Kind: domain.KindLoad, Filters: []store.Filter{{Field: "carrier", Value: 12}}})
	require.NoError(t, err)
	require.Len(t, onBoat.Items, 1)
	assert.Equal(t, id, onBoat.Items[0].ID)
}

func testQueryNumericFilter(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Create(ctx, domain.KindLoad, store.Attributes{"weight": 10.5, "country": "NO", "carrier": -1})
	require.NoError(t, err)
	_, err = s.Create(ctx, domain.KindLoad, store.Attributes{"weight": 10, "country": "NO", "carrier": -1})
	require.NoError(t, err)

	n, err := s.Count(ctx, domain.KindLoad, []store.Filter{
		{Field: "country", Value: "NO"},
		{Field: "weight", Value: 10.0},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testQueryUnlimited(t *testing.T, s store.Store) {
	ctx := context.Background()

	for range 8 {
		_, err := s.Create(ctx, domain.KindUser, store.Attributes{"name": "n", "sub": "s"})
		require.NoError(t, err)
	}

	page, err := s.Query(ctx, store.Query{Kind: domain.KindUser})
	require.NoError(t, err)
	assert.Len(t, page.Items, 8)
	assert.Empty(t, page.NextCursor)
}

func testInvalidCursor(t *testing.T, s store.Store) {
	_, err := s.Query(context.Background(), store.Query{Kind: domain.KindBoat, Limit: store.PageSize, Cursor: "%%%not-a-cursor"})
	assert.ErrorIs(t, err, store.ErrInvalidCursor)
}

func testPing(t *testing.T, s store.Store) {
	assert.NoError(t, s.Ping(context.Background()))
}
