// Package backend opens a store.Store by backend name.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/boatyard/boatyard-server/internal/store"
	"github.com/boatyard/boatyard-server/internal/store/badgerdb"
	"github.com/boatyard/boatyard-server/internal/store/clouddatastore"
	"github.com/boatyard/boatyard-server/internal/store/sqlite"
)

// Backend names.
const (
	Badger    = "badger"
	SQLite    = "sqlite"
	Datastore = "datastore"
)

// Config selects a backend. DataDir holds the badger and sqlite files.
type Config struct {
	Backend          string
	DataDir          string
	DatastoreProject string
	CredentialsFile  string
}

// Path returns the on-disk location used for cfg, or "" for datastore.
func (cfg Config) Path() string {
	switch cfg.Backend {
	case SQLite:
		return filepath.Join(cfg.DataDir, "boatyard.db")
	case Datastore:
		return ""
	default:
		return filepath.Join(cfg.DataDir, "db")
	}
}

// Open opens the store described by cfg. An empty Backend means badger.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (store.Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	switch cfg.Backend {
	case Datastore:
		return clouddatastore.Open(ctx, clouddatastore.Config{
			ProjectID:       cfg.DatastoreProject,
			CredentialsFile: cfg.CredentialsFile,
		}, logger)
	case SQLite, Badger, "":
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if cfg.Backend == SQLite {
		return sqlite.Open(cfg.Path(), logger)
	}
	return badgerdb.Open(cfg.Path(), logger, badgerdb.DefaultIndexes()...)
}
