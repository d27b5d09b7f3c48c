package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeGoogle struct {
	server   *httptest.Server
	idToken  string
	names    []map[string]string
	gotCode  string
	gotAuthz string
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{
		idToken: "header.payload.sig",
		names:   []map[string]string{{"givenName": "Ada", "familyName": "Lovelace"}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		f.gotCode = r.PostForm.Get("code")
		if f.gotCode == "bad" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		body := map[string]any{
			"access_token": "access-1",
			"token_type":   "Bearer",
			"expires_in":   3600,
		}
		if f.idToken != "" {
			body["id_token"] = f.idToken
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})
	mux.HandleFunc("GET /v1/people/me", func(w http.ResponseWriter, r *http.Request) {
		f.gotAuthz = r.Header.Get("Authorization")
		assert.Equal(t, "names", r.URL.Query().Get("personFields"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"resourceName": "people/123",
			"names":        f.names,
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGoogle) client() *Client {
	return NewClient(Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RedirectURL:  "http://localhost:8080/oauth",
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.server.URL + "/auth",
			TokenURL:  f.server.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		PeopleEndpoint: f.server.URL + "/",
	})
}

func TestAuthCodeURL(t *testing.T) {
	c := NewClient(Config{ClientID: "client-1", RedirectURL: "http://localhost:8080/oauth"})

	u, err := url.Parse(c.AuthCodeURL("state-xyz"))
	require.NoError(t, err)

	assert.Equal(t, "accounts.google.com", u.Host)
	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "state-xyz", q.Get("state"))
	assert.Equal(t, "http://localhost:8080/oauth", q.Get("redirect_uri"))
	assert.Contains(t, q.Get("scope"), "userinfo.profile")
}

func TestExchangeAndFetchProfile(t *testing.T) {
	f := newFakeGoogle(t)
	c := f.client()
	ctx := context.Background()

	tok, err := c.Exchange(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "code-1", f.gotCode)
	assert.Equal(t, "header.payload.sig", tok.IDToken)

	p, err := c.FetchProfile(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.Name())
	assert.Equal(t, "Bearer access-1", f.gotAuthz)
}

func TestExchange_Errors(t *testing.T) {
	f := newFakeGoogle(t)
	c := f.client()

	_, err := c.Exchange(context.Background(), "bad")
	assert.Error(t, err)

	f.idToken = ""
	_, err = c.Exchange(context.Background(), "code-2")
	assert.ErrorIs(t, err, ErrMissingIDToken)
}

func TestFetchProfile_Names(t *testing.T) {
	tests := []struct {
		name  string
		names []map[string]string
		want  string
		err   error
	}{
		{name: "display name fallback", names: []map[string]string{{"displayName": "Grace"}}, want: "Grace"},
		{name: "given only", names: []map[string]string{{"givenName": "Linus"}}, want: "Linus"},
		{name: "no names", names: []map[string]string{}, err: ErrNoName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeGoogle(t)
			f.names = tt.names
			c := f.client()

			tok, err := c.Exchange(context.Background(), "code")
			require.NoError(t, err)

			p, err := c.FetchProfile(context.Background(), tok)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Name())
		})
	}
}
