// Package authtest provides a local identity token issuer for tests.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer values accepted by verifiers built with Config.
const (
	Issuer   = "https://accounts.google.com"
	Audience = "boatyard-test-client"
	KeyID    = "test-key"
)

// TokenIssuer signs RS256 identity tokens and serves the matching JWKS.
type TokenIssuer struct {
	Server  *httptest.Server
	key     *rsa.PrivateKey
	fetches atomic.Int32
}

// NewIssuer starts a JWKS server that is closed when the test ends.
func NewIssuer(t testing.TB) *TokenIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate rsa key: %v", err)
	}

	iss := &TokenIssuer{key: key}
	iss.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		iss.fetches.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": KeyID,
				"alg": "RS256",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(iss.Server.Close)
	return iss
}

// JWKSURL is the URL verifiers should fetch keys from.
func (i *TokenIssuer) JWKSURL() string { return i.Server.URL }

// Fetches returns how many times the JWKS was served.
func (i *TokenIssuer) Fetches() int { return int(i.fetches.Load()) }

// Token signs a valid token for sub with the given display name.
func (i *TokenIssuer) Token(t testing.TB, sub, name string) string {
	t.Helper()
	now := time.Now()
	return i.Sign(t, jwt.MapClaims{
		"iss":  Issuer,
		"aud":  Audience,
		"sub":  sub,
		"name": name,
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
	})
}

// Sign signs arbitrary claims with the issuer key.
func (i *TokenIssuer) Sign(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	tok.Header["kid"] = KeyID
	s, err := tok.SignedString(i.key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}
