package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

const (
	cookieIssuer   = "boatyard-server"
	cookieAudience = "boatyard-login"
	sessionClaim   = "sid"
)

// ErrInvalidCookie is returned for cookies that fail decryption, have expired
// or were minted for another purpose.
var ErrInvalidCookie = errors.New("invalid session cookie")

// CookieSealer encrypts login session ids into PASETO v4.local tokens.
// The cookie carries only the id; state lives in the session store.
type CookieSealer struct {
	key paseto.V4SymmetricKey
}

// NewCookieSealer creates a sealer from a 32-byte key.
func NewCookieSealer(key []byte) (*CookieSealer, error) {
	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}
	return &CookieSealer{key: k}, nil
}

// Seal returns an encrypted cookie value for sessionID valid for ttl.
func (c *CookieSealer) Seal(sessionID string, ttl time.Duration) string {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(cookieIssuer)
	token.SetAudience(cookieAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(ttl))
	token.SetString(sessionClaim, sessionID)

	return token.V4Encrypt(c.key, nil)
}

// Open decrypts a cookie value and returns the session id.
func (c *CookieSealer) Open(value string) (string, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.IssuedBy(cookieIssuer))
	parser.AddRule(paseto.ForAudience(cookieAudience))
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(c.key, value, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}

	sid, err := token.GetString(sessionClaim)
	if err != nil || sid == "" {
		return "", fmt.Errorf("%w: missing session id", ErrInvalidCookie)
	}
	return sid, nil
}
