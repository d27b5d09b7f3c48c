// Package oauth runs the Google authorization code exchange and the People
// API profile lookup used by the browser login flow.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	people "google.golang.org/api/people/v1"
)

// DefaultScopes is requested when no scopes are configured.
var DefaultScopes = []string{"openid", "https://www.googleapis.com/auth/userinfo.profile"}

var (
	// ErrMissingIDToken is returned when the token response has no id_token.
	ErrMissingIDToken = errors.New("token response has no id_token")
	// ErrNoName is returned when the profile carries no usable name.
	ErrNoName = errors.New("profile has no name")
)

// Config configures a Client. Endpoint and PeopleEndpoint default to Google.
type Config struct {
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	Scopes         []string
	Endpoint       oauth2.Endpoint
	PeopleEndpoint string
	HTTPClient     *http.Client
}

// Tokens is the result of a code exchange.
type Tokens struct {
	IDToken string
	token   *oauth2.Token
}

// Profile is the part of the People API person the server uses.
type Profile struct {
	GivenName  string
	FamilyName string
}

// Name joins given and family name.
func (p *Profile) Name() string {
	return strings.TrimSpace(p.GivenName + " " + p.FamilyName)
}

// Provider is the login collaborator the service layer depends on.
type Provider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Tokens, error)
	FetchProfile(ctx context.Context, tok *Tokens) (*Profile, error)
}

// Client implements Provider against Google.
type Client struct {
	conf           *oauth2.Config
	peopleEndpoint string
	httpClient     *http.Client
}

// NewClient creates a client from cfg.
func NewClient(cfg Config) *Client {
	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = google.Endpoint
	}
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	return &Client{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
		peopleEndpoint: cfg.PeopleEndpoint,
		httpClient:     cfg.HTTPClient,
	}
}

// AuthCodeURL returns the consent page URL carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.conf.AuthCodeURL(state)
}

// Exchange trades an authorization code for tokens.
func (c *Client) Exchange(ctx context.Context, code string) (*Tokens, error) {
	tok, err := c.conf.Exchange(c.clientContext(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return nil, ErrMissingIDToken
	}
	return &Tokens{IDToken: idToken, token: tok}, nil
}

// FetchProfile reads the caller's names from the People API.
func (c *Client) FetchProfile(ctx context.Context, tok *Tokens) (*Profile, error) {
	ctx = c.clientContext(ctx)
	opts := []option.ClientOption{
		option.WithHTTPClient(c.conf.Client(ctx, tok.token)),
	}
	if c.peopleEndpoint != "" {
		opts = append(opts, option.WithEndpoint(c.peopleEndpoint))
	}

	svc, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("people service: %w", err)
	}

	person, err := svc.People.Get("people/me").PersonFields("names").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("people get: %w", err)
	}
	if len(person.Names) == 0 {
		return nil, ErrNoName
	}

	name := person.Names[0]
	p := &Profile{GivenName: name.GivenName, FamilyName: name.FamilyName}
	if p.Name() == "" {
		if name.DisplayName == "" {
			return nil, ErrNoName
		}
		p.GivenName = name.DisplayName
	}
	return p, nil
}

func (c *Client) clientContext(ctx context.Context) context.Context {
	if c.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}
