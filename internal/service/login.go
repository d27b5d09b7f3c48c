package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/boatyard/boatyard-server/internal/auth"
	"github.com/boatyard/boatyard-server/internal/domain"
	domainerrors "github.com/boatyard/boatyard-server/internal/errors"
	"github.com/boatyard/boatyard-server/internal/id"
	"github.com/boatyard/boatyard-server/internal/oauth"
	"github.com/boatyard/boatyard-server/internal/session"
)

const (
	msgStateInvalid  = "State not valid"
	msgMissingCode   = "The authorization response has no code"
	msgSignInFailed  = "Could not complete sign-in with Google"
	msgProfileFailed = "Could not read the Google profile"
)

// LoginStart is where to send the browser and the cookie to set first.
type LoginStart struct {
	RedirectURL string
	Cookie      string
}

// LoginResult describes a completed login.
type LoginResult struct {
	User    *domain.User
	Created bool
	Name    string
	Sub     string
	IDToken string
}

// LoginService runs the browser OAuth flow. The random state lives in a
// server-side session addressed by a sealed cookie, one per login attempt.
type LoginService struct {
	provider oauth.Provider
	sessions session.Store
	sealer   *auth.CookieSealer
	verifier auth.TokenVerifier
	users    *UserService
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewLoginService creates a new login service.
func NewLoginService(
	provider oauth.Provider,
	sessions session.Store,
	sealer *auth.CookieSealer,
	verifier auth.TokenVerifier,
	users *UserService,
	ttl time.Duration,
	logger *slog.Logger,
) *LoginService {
	return &LoginService{
		provider: provider,
		sessions: sessions,
		sealer:   sealer,
		verifier: verifier,
		users:    users,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// TTL is how long a started login stays valid.
func (s *LoginService) TTL() time.Duration { return s.ttl }

// Begin starts a login attempt with a fresh state value.
func (s *LoginService) Begin(ctx context.Context) (*LoginStart, error) {
	sid, err := id.Generate("sess")
	if err != nil {
		return nil, err
	}
	state, err := id.NewState()
	if err != nil {
		return nil, err
	}

	st := session.State{OAuthState: state, CreatedAt: s.now().UTC()}
	if err := s.sessions.Put(ctx, sid, st, s.ttl); err != nil {
		return nil, domainerrors.Unavailable(msgStoreUnavailable).WithCause(err)
	}

	return &LoginStart{
		RedirectURL: s.provider.AuthCodeURL(state),
		Cookie:      s.sealer.Seal(sid, s.ttl),
	}, nil
}

// Complete checks state against the session named by cookie, exchanges
// code, reads the profile and records the user on first login.
// Every state problem is the same Forbidden error.
func (s *LoginService) Complete(ctx context.Context, cookie, state, code string) (*LoginResult, error) {
	if err := s.checkState(ctx, cookie, state); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, domainerrors.Validation(msgMissingCode)
	}

	tokens, err := s.provider.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("code exchange failed", "error", err)
		return nil, domainerrors.Upstream(msgSignInFailed).WithCause(err)
	}

	claims, err := s.verifier.Verify(ctx, tokens.IDToken)
	if err != nil {
		s.logger.Warn("id token from exchange rejected", "error", err)
		return nil, domainerrors.Upstream(msgSignInFailed).WithCause(err)
	}

	profile, err := s.provider.FetchProfile(ctx, tokens)
	if err != nil {
		s.logger.Warn("profile lookup failed", "error", err, "sub", claims.Subject)
		return nil, domainerrors.Upstream(msgProfileFailed).WithCause(err)
	}

	user, created, err := s.users.FindOrCreate(ctx, claims.Subject, profile.Name())
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		User:    user,
		Created: created,
		Name:    profile.Name(),
		Sub:     claims.Subject,
		IDToken: tokens.IDToken,
	}, nil
}

func (s *LoginService) checkState(ctx context.Context, cookie, state string) error {
	if cookie == "" || state == "" {
		return domainerrors.Forbidden(msgStateInvalid)
	}

	sid, err := s.sealer.Open(cookie)
	if err != nil {
		return domainerrors.Forbidden(msgStateInvalid).WithCause(err)
	}

	st, err := s.sessions.Take(ctx, sid)
	if errors.Is(err, session.ErrNotFound) {
		return domainerrors.Forbidden(msgStateInvalid).WithCause(err)
	}
	if err != nil {
		return domainerrors.Unavailable(msgStoreUnavailable).WithCause(err)
	}

	if subtle.ConstantTimeCompare([]byte(st.OAuthState), []byte(state)) != 1 {
		return domainerrors.Forbidden(msgStateInvalid)
	}
	return nil
}
