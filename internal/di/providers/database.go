package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/boatyard/boatyard-server/internal/config"
	"github.com/boatyard/boatyard-server/internal/logger"
	"github.com/boatyard/boatyard-server/internal/session"
	"github.com/boatyard/boatyard-server/internal/store"
	"github.com/boatyard/boatyard-server/internal/store/backend"
	"github.com/boatyard/boatyard-server/internal/store/badgerdb"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore opens the configured entity store backend.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	bc := backend.Config{
		Backend:          cfg.Store.Backend,
		DataDir:          cfg.Metadata.BasePath,
		DatastoreProject: cfg.Store.DatastoreProject,
		CredentialsFile:  cfg.Store.CredentialsFile,
	}
	st, err := backend.Open(ctx, bc, log.Component("store"))
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "backend", cfg.Store.Backend, "path", bc.Path())
	return &StoreHandle{Store: st}, nil
}

// SessionStoreHandle wraps the login session store with shutdown capability.
type SessionStoreHandle struct {
	session.Store
}

// Shutdown implements do.Shutdownable.
func (h *SessionStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideSessionStore opens the configured login session store. The badger
// backend shares the entity database when that is badger too.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Session.Backend {
	case config.BackendRedis:
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		rs, err := session.OpenRedisStore(ctx, session.RedisConfig{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Session store initialized", "backend", config.BackendRedis, "addr", cfg.Session.RedisAddr)
		return &SessionStoreHandle{Store: rs}, nil

	case config.BackendMemory:
		log.Warn("Login sessions are kept in memory and are lost on restart")
		return &SessionStoreHandle{Store: session.NewMemoryStore()}, nil
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	if bs, ok := storeHandle.Store.(*badgerdb.Store); ok {
		log.Info("Session store initialized", "backend", config.BackendBadger, "shared", true)
		return &SessionStoreHandle{Store: session.NewBadgerStore(bs.DB())}, nil
	}

	path := filepath.Join(cfg.Metadata.BasePath, "sessions")
	bs, err := session.OpenBadgerStore(path)
	if err != nil {
		return nil, err
	}
	log.Info("Session store initialized", "backend", config.BackendBadger, "path", path)
	return &SessionStoreHandle{Store: bs}, nil
}
