// Package di provides dependency injection configuration for the Boatyard server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/boatyard/boatyard-server/internal/config"
	"github.com/boatyard/boatyard-server/internal/di/providers"
	"github.com/boatyard/boatyard-server/internal/logger"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSessionStore)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenVerifier)
	do.Provide(injector, providers.ProvideCookieSealer)
	do.Provide(injector, providers.ProvideOAuthClient)
	do.Provide(injector, providers.ProvideLoginLimiter)

	// Business services
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideBoatService)
	do.Provide(injector, providers.ProvideLoadService)
	do.Provide(injector, providers.ProvideRelationshipService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideLoginService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services.
// This triggers lazy initialization, so configuration and storage errors
// surface before the server starts listening.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.SessionStoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
