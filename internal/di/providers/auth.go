package providers

import (
	"github.com/samber/do/v2"

	"github.com/boatyard/boatyard-server/internal/auth"
	"github.com/boatyard/boatyard-server/internal/config"
	"github.com/boatyard/boatyard-server/internal/logger"
	"github.com/boatyard/boatyard-server/internal/oauth"
)

// ProvideTokenVerifier provides the Google identity token verifier.
func ProvideTokenVerifier(i do.Injector) (*auth.GoogleVerifier, error) {
	cfg := do.MustInvoke[*config.Config](i)

	return auth.NewGoogleVerifier(auth.VerifierConfig{
		JWKSURL:          cfg.Auth.JWKSURL,
		Issuers:          cfg.Auth.Issuers,
		Audience:         cfg.Auth.Audience,
		RefreshPerMinute: cfg.Auth.JWKSRefreshPerMinute,
	}), nil
}

// ProvideCookieSealer loads the session cookie key and builds the sealer.
func ProvideCookieSealer(i do.Injector) (*auth.CookieSealer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.SessionKey(cfg.Auth.SessionSecret, cfg.Metadata.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("Session cookie key loaded",
		"derived", cfg.Auth.SessionSecret != "",
		"session_ttl", cfg.Auth.SessionTTL,
	)

	return auth.NewCookieSealer(key)
}

// ProvideOAuthClient provides the Google OAuth client used by the login flow.
func ProvideOAuthClient(i do.Injector) (*oauth.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.OAuth.ClientID == "" {
		log.Warn("CLIENT_ID is not set; /mid and /oauth will fail at Google")
	}

	return oauth.NewClient(oauth.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectURL,
		Scopes:       cfg.OAuth.Scopes,
	}), nil
}
