package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boatyard/boatyard-server/internal/auth"
	"github.com/boatyard/boatyard-server/internal/auth/authtest"
)

func newVerifier(iss *authtest.TokenIssuer) *auth.GoogleVerifier {
	return auth.NewGoogleVerifier(auth.VerifierConfig{
		JWKSURL:  iss.JWKSURL(),
		Issuers:  []string{authtest.Issuer, "accounts.google.com"},
		Audience: authtest.Audience,
	})
}

func TestGoogleVerifier_Valid(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newVerifier(iss)

	claims, err := v.Verify(context.Background(), iss.Token(t, "sub-123", "Ada"))
	require.NoError(t, err)
	assert.Equal(t, "sub-123", claims.Subject)
	assert.Equal(t, "Ada", claims.Name)

	_, err = v.Verify(context.Background(), iss.Token(t, "sub-456", "Bo"))
	require.NoError(t, err)
	assert.Equal(t, 1, iss.Fetches(), "keys are cached")
}

func TestGoogleVerifier_Rejects(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newVerifier(iss)
	now := time.Now()

	base := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss": authtest.Issuer,
			"aud": authtest.Audience,
			"sub": "sub-1",
			"iat": now.Unix(),
			"exp": now.Add(time.Hour).Unix(),
		}
	}

	tests := []struct {
		name  string
		token func() string
	}{
		{"empty", func() string { return "" }},
		{"garbage", func() string { return "not.a.jwt" }},
		{"expired", func() string {
			c := base()
			c["exp"] = now.Add(-time.Hour).Unix()
			return iss.Sign(t, c)
		}},
		{"missing exp", func() string {
			c := base()
			delete(c, "exp")
			return iss.Sign(t, c)
		}},
		{"wrong audience", func() string {
			c := base()
			c["aud"] = "someone-else"
			return iss.Sign(t, c)
		}},
		{"wrong issuer", func() string {
			c := base()
			c["iss"] = "https://evil.example"
			return iss.Sign(t, c)
		}},
		{"missing sub", func() string {
			c := base()
			delete(c, "sub")
			return iss.Sign(t, c)
		}},
		{"foreign key", func() string {
			other, err := rsa.GenerateKey(rand.Reader, 2048)
			require.NoError(t, err)
			tok := jwt.NewWithClaims(jwt.SigningMethodRS256, base())
			tok.Header["kid"] = authtest.KeyID
			s, err := tok.SignedString(other)
			require.NoError(t, err)
			return s
		}},
		{"hs256", func() string {
			tok := jwt.NewWithClaims(jwt.SigningMethodHS256, base())
			s, err := tok.SignedString([]byte("secret"))
			require.NoError(t, err)
			return s
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token())
			assert.ErrorIs(t, err, auth.ErrInvalidToken)
		})
	}
}

func TestGoogleVerifier_ConcurrentFirstUse(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := newVerifier(iss)
	token := iss.Token(t, "sub-1", "")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := v.Verify(context.Background(), token)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, iss.Fetches(), 8)
}

func TestGoogleVerifier_UnknownKidsDoNotRefetch(t *testing.T) {
	iss := authtest.NewIssuer(t)
	v := auth.NewGoogleVerifier(auth.VerifierConfig{
		JWKSURL:          iss.JWKSURL(),
		Issuers:          []string{authtest.Issuer},
		Audience:         authtest.Audience,
		RefreshPerMinute: 2,
	})

	_, err := v.Verify(context.Background(), iss.Token(t, "sub-1", ""))
	require.NoError(t, err)
	require.Equal(t, 1, iss.Fetches())

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	for i := range 50 {
		tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
			"iss": authtest.Issuer,
			"aud": authtest.Audience,
			"sub": "intruder",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		tok.Header["kid"] = fmt.Sprintf("unknown-%d", i)
		raw, err := tok.SignedString(other)
		require.NoError(t, err)

		_, err = v.Verify(context.Background(), raw)
		require.ErrorIs(t, err, auth.ErrInvalidToken)
	}

	// The burst allows two fetches, one of which warmed the cache.
	assert.LessOrEqual(t, iss.Fetches(), 2)

	_, err = v.Verify(context.Background(), iss.Token(t, "sub-2", ""))
	assert.NoError(t, err, "cached keys still verify while refetches are throttled")
}

func TestCookieSealer_RoundTrip(t *testing.T) {
	key, err := auth.DeriveKey("correct horse battery staple, correct horse")
	require.NoError(t, err)
	sealer, err := auth.NewCookieSealer(key)
	require.NoError(t, err)

	value := sealer.Seal("sess-abc", time.Minute)
	sid, err := sealer.Open(value)
	require.NoError(t, err)
	assert.Equal(t, "sess-abc", sid)
}

func TestCookieSealer_Rejects(t *testing.T) {
	key, err := auth.DeriveKey("one secret")
	require.NoError(t, err)
	sealer, err := auth.NewCookieSealer(key)
	require.NoError(t, err)

	otherKey, err := auth.DeriveKey("another secret")
	require.NoError(t, err)
	other, err := auth.NewCookieSealer(otherKey)
	require.NoError(t, err)

	_, err = sealer.Open(other.Seal("sess-abc", time.Minute))
	assert.ErrorIs(t, err, auth.ErrInvalidCookie)

	_, err = sealer.Open(sealer.Seal("sess-abc", -time.Minute))
	assert.ErrorIs(t, err, auth.ErrInvalidCookie)

	_, err = sealer.Open("v4.local.garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidCookie)
}

func TestDeriveKey(t *testing.T) {
	a, err := auth.DeriveKey("secret")
	require.NoError(t, err)
	b, err := auth.DeriveKey("secret")
	require.NoError(t, err)
	c, err := auth.DeriveKey("other")
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	_, err = auth.DeriveKey("")
	assert.Error(t, err)
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := t.TempDir()

	first, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	again, err := auth.SessionKey("", dir)
	require.NoError(t, err)
	assert.Equal(t, first, again, "key is persisted")

	info, err := os.Stat(filepath.Join(dir, "session.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "session.key"), []byte("short"), 0o600))
	_, err = auth.LoadOrGenerateKey(dir)
	assert.ErrorContains(t, err, "invalid session key length")
}

func TestSubjectContext(t *testing.T) {
	_, ok := auth.SubjectFromContext(context.Background())
	assert.False(t, ok)

	sub, ok := auth.SubjectFromContext(auth.WithSubject(context.Background(), "sub-9"))
	assert.True(t, ok)
	assert.Equal(t, "sub-9", sub)
}
