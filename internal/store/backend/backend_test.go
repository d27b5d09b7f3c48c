package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boatyard/boatyard-server/internal/domain"
	"github.com/boatyard/boatyard-server/internal/store"
	"github.com/boatyard/boatyard-server/internal/store/badgerdb"
	"github.com/boatyard/boatyard-server/internal/store/sqlite"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		backend string
		check   func(t *testing.T, s store.Store)
	}{
		{"", func(t *testing.T, s store.Store) { assert.IsType(t, &badgerdb.Store{}, s) }},
		{Badger, func(t *testing.T, s store.Store) { assert.IsType(t, &badgerdb.Store{}, s) }},
		{SQLite, func(t *testing.T, s store.Store) { assert.IsType(t, &sqlite.Store{}, s) }},
	}

	for _, tt := range tests {
		t.Run("backend="+tt.backend, func(t *testing.T) {
			ctx := context.Background()
			dir := filepath.Join(t.TempDir(), "nested")

			s, err := Open(ctx, Config{Backend: tt.backend, DataDir: dir}, nil)
			require.NoError(t, err)
			defer s.Close()
			tt.check(t, s)

			id, err := s.Create(ctx, domain.KindLoad, store.Attributes{"weight": 1.5})
			require.NoError(t, err)
			assert.Equal(t, int64(1), id)
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), Config{Backend: "etcd", DataDir: t.TempDir()}, nil)
	assert.ErrorContains(t, err, `unknown store backend "etcd"`)
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "db"), Config{DataDir: "data"}.Path())
	assert.Equal(t, filepath.Join("data", "boatyard.db"), Config{Backend: SQLite, DataDir: "data"}.Path())
	assert.Empty(t, Config{Backend: Datastore, DataDir: "data"}.Path())
}
