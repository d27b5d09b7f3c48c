package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/samber/do/v2"

	"github.com/boatyard/boatyard-server/internal/api"
	"github.com/boatyard/boatyard-server/internal/auth"
	"github.com/boatyard/boatyard-server/internal/config"
	"github.com/boatyard/boatyard-server/internal/logger"
	"github.com/boatyard/boatyard-server/internal/service"
)

// shutdownTimeout bounds graceful shutdown and backend dials.
const shutdownTimeout = 30 * time.Second

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server and starts it in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	limiter := do.MustInvoke[*LoginLimiterHandle](i)
	verifier := do.MustInvoke[*auth.GoogleVerifier](i)

	services := &api.Services{
		Boats:         do.MustInvoke[*service.BoatService](i),
		Loads:         do.MustInvoke[*service.LoadService](i),
		Relationships: do.MustInvoke[*service.RelationshipService](i),
		Users:         do.MustInvoke[*service.UserService](i),
		Login:         do.MustInvoke[*service.LoginService](i),
	}

	health := map[string]api.Pinger{"store": storeHandle.Store}
	if p, ok := sessions.Store.(api.Pinger); ok {
		health["sessions"] = p
	}

	handler := api.NewServer(services, verifier, api.Options{
		PublicURL:     cfg.Server.PublicURL,
		CORSOrigins:   cfg.Server.CORSOrigins,
		TrustProxy:    cfg.Server.TrustProxy,
		SecureCookies: strings.HasPrefix(cfg.Server.PublicURL, "https://") || cfg.App.Environment == "production",
		LoginLimiter:  limiter.KeyedRateLimiter,
		Health:        health,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
