package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/boatyard/boatyard-server/internal/errors"
)

// statusOf returns the HTTP status a service error maps to.
func statusOf(t *testing.T, err error) int {
	t.Helper()
	var de *domainerrors.Error
	require.ErrorAs(t, err, &de)
	return de.HTTPStatus()
}

func TestClosedStore_IsUnavailableNotNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, f *fleet) {
		ctx := context.Background()
		b := f.boat(t, "alice", "Sea Witch")
		l := f.load(t, 10)
		require.NoError(t, f.store.Close())

		tests := []struct {
			name string
			call func() error
		}{
			{"boat get", func() error { _, err := f.boats.Get(ctx, b.ID, "alice"); return err }},
			{"boat list", func() error { _, err := f.boats.List(ctx, "alice", ""); return err }},
			{"load get", func() error { _, err := f.loads.Get(ctx, l.ID); return err }},
			{"load list", func() error { _, err := f.loads.List(ctx, ""); return err }},
			{"assign", func() error { return f.relations.Assign(ctx, b.ID, l.ID, "alice") }},
			{"delete boat", func() error { return f.relations.DeleteBoat(ctx, b.ID, "alice") }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.call()
				require.Error(t, err)
				assert.NotErrorIs(t, err, domainerrors.ErrNotFound)
				assert.Equal(t, http.StatusServiceUnavailable, statusOf(t, err))
				assert.Equal(t, msgStoreUnavailable, message(t, err))
			})
		}
	})
}
