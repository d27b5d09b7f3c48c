package providers

import (
	"github.com/samber/do/v2"

	"github.com/boatyard/boatyard-server/internal/auth"
	"github.com/boatyard/boatyard-server/internal/config"
	"github.com/boatyard/boatyard-server/internal/logger"
	"github.com/boatyard/boatyard-server/internal/oauth"
	"github.com/boatyard/boatyard-server/internal/ratelimit"
	"github.com/boatyard/boatyard-server/internal/service"
	"github.com/boatyard/boatyard-server/internal/validation"
)

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideBoatService provides the boat registry.
func ProvideBoatService(i do.Injector) (*service.BoatService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBoatService(storeHandle.Store, v, log.Component("boats")), nil
}

// ProvideLoadService provides the load registry.
func ProvideLoadService(i do.Injector) (*service.LoadService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLoadService(storeHandle.Store, v, log.Component("loads")), nil
}

// ProvideRelationshipService provides the boat and load relationship engine.
func ProvideRelationshipService(i do.Injector) (*service.RelationshipService, error) {
	boats := do.MustInvoke[*service.BoatService](i)
	loads := do.MustInvoke[*service.LoadService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRelationshipService(boats, loads, log.Component("relationships")), nil
}

// ProvideUserService provides the user cache.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, log.Component("users")), nil
}

// ProvideLoginService provides the OAuth login flow.
func ProvideLoginService(i do.Injector) (*service.LoginService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	client := do.MustInvoke[*oauth.Client](i)
	sessions := do.MustInvoke[*SessionStoreHandle](i)
	sealer := do.MustInvoke[*auth.CookieSealer](i)
	verifier := do.MustInvoke[*auth.GoogleVerifier](i)
	users := do.MustInvoke[*service.UserService](i)

	return service.NewLoginService(client, sessions.Store, sealer, verifier, users, cfg.Auth.SessionTTL, log.Component("login")), nil
}

// LoginLimiterHandle wraps the login rate limiter with shutdown capability.
type LoginLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *LoginLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideLoginLimiter provides the per-IP limiter for /mid and /oauth.
func ProvideLoginLimiter(i do.Injector) (*LoginLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return &LoginLimiterHandle{
		KeyedRateLimiter: ratelimit.PerMinute(cfg.RateLimit.LoginPerMinute, cfg.RateLimit.LoginBurst),
	}, nil
}
