// Package session keeps short-lived login state between the /mid redirect
// and the /oauth callback. Entries are read once and expire on their own.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned for unknown, expired or already consumed sessions.
var ErrNotFound = errors.New("session not found")

// State is what the server remembers about one login attempt.
type State struct {
	OAuthState string    `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store persists login state by session id.
type Store interface {
	// Put stores st under id for ttl.
	Put(ctx context.Context, id string, st State, ttl time.Duration) error
	// Take returns and removes the state for id.
	Take(ctx context.Context, id string) (*State, error)
	Close() error
}

func encode(st State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*State, error) {
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &st, nil
}
