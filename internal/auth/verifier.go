package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// ErrInvalidToken wraps every identity token rejection.
var ErrInvalidToken = errors.New("invalid identity token")

// errRefreshThrottled is returned by a JWKS refresh denied by the refetch limiter.
var errRefreshThrottled = errors.New("jwks refresh throttled")

// DefaultRefreshPerMinute bounds JWKS fetches when VerifierConfig leaves it unset.
const DefaultRefreshPerMinute = 5

// IDClaims are the identity token claims the server reads.
type IDClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier checks an identity token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (*IDClaims, error)
}

// VerifierConfig configures a GoogleVerifier.
type VerifierConfig struct {
	JWKSURL  string
	Issuers  []string
	Audience string // empty skips the audience check
	Leeway   time.Duration
	CacheTTL time.Duration
	Client   *http.Client
	// RefreshPerMinute caps JWKS fetches, including those caused by unknown kids.
	RefreshPerMinute int
}

// GoogleVerifier verifies RS256 identity tokens against a cached JWKS.
type GoogleVerifier struct {
	cfg    VerifierConfig
	parser *jwt.Parser

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	group     singleflight.Group
	refetch   *rate.Limiter
}

// NewGoogleVerifier creates a verifier. Keys are fetched lazily.
func NewGoogleVerifier(cfg VerifierConfig) *GoogleVerifier {
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	if cfg.Leeway == 0 {
		cfg.Leeway = 30 * time.Second
	}
	if cfg.RefreshPerMinute <= 0 {
		cfg.RefreshPerMinute = DefaultRefreshPerMinute
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	return &GoogleVerifier{
		cfg:    cfg,
		parser: jwt.NewParser(opts...),
		keys:   map[string]*rsa.PublicKey{},
		refetch: rate.NewLimiter(
			rate.Every(time.Minute/time.Duration(cfg.RefreshPerMinute)),
			cfg.RefreshPerMinute,
		),
	}
}

// Verify checks signature, expiry, issuer and audience and requires a subject.
func (v *GoogleVerifier) Verify(ctx context.Context, raw string) (*IDClaims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidToken)
	}

	claims := &IDClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		return v.key(ctx, kid)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if !slices.Contains(v.cfg.Issuers, claims.Issuer) {
		return nil, fmt.Errorf("%w: issuer %q not accepted", ErrInvalidToken, claims.Issuer)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return claims, nil
}

// key returns the public key for kid, refreshing the set when it is stale or
// the kid is unknown. Concurrent refreshes collapse into one fetch, and
// refreshes beyond the refetch limit are skipped: a cached key is then served
// even if stale, and an unknown kid fails without a fetch.
func (v *GoogleVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key := v.keys[kid]
	stale := time.Since(v.fetchedAt) > v.cfg.CacheTTL
	v.mu.RUnlock()

	if key != nil && !stale {
		return key, nil
	}

	_, err, _ := v.group.Do("jwks", func() (any, error) {
		if !v.refetch.Allow() {
			return nil, errRefreshThrottled
		}
		return nil, v.refresh(ctx)
	})

	v.mu.RLock()
	defer v.mu.RUnlock()
	if key := v.keys[kid]; key != nil {
		return key, nil
	}
	if err != nil && !errors.Is(err, errRefreshThrottled) {
		return nil, err
	}
	return nil, fmt.Errorf("kid not found in jwks: %s", kid)
}

type jwkSet struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *GoogleVerifier) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.cfg.JWKSURL, nil)
	if err != nil {
		return err
	}
	res, err := v.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("jwks fetch: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("jwks fetch failed: %s", res.Status)
	}

	var set jwkSet
	if err := json.NewDecoder(res.Body).Decode(&set); err != nil {
		return fmt.Errorf("jwks decode: %w", err)
	}

	next := map[string]*rsa.PublicKey{}
	for _, k := range set.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		if pub, err := rsaFromModExp(k.N, k.E); err == nil {
			next[k.Kid] = pub
		}
	}
	if len(next) == 0 {
		return errors.New("jwks contained no usable keys")
	}

	v.mu.Lock()
	v.keys = next
	v.fetchedAt = time.Now()
	v.mu.Unlock()
	return nil
}

func rsaFromModExp(nB64, eB64 string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(nB64)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(eB64)
	if err != nil {
		return nil, err
	}

	e := 0
	for _, b := range eb {
		e = e<<8 + int(b)
	}
	if e == 0 {
		return nil, errors.New("invalid exponent")
	}

	return &rsa.PublicKey{N: new(big.Int).SetBytes(nb), E: e}, nil
}
