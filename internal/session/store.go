// Package session owns the client's single authentication token.
//
// A Store is created once by the dispatcher and passed explicitly to the
// components that need it. It is set on login, and cleared on logout, on a
// 401-class rejection, or when a JWT token's exp claim has passed.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"taskmgr/internal/service"
)

// Store holds at most one session token. When path is non-empty the token
// is persisted there as an oauth2.Token JSON document with mode 0600.
type Store struct {
	mu    sync.Mutex
	path  string
	token string
	now   func() time.Time
}

// NewStore returns a store persisted at path, loading any existing token.
// A missing file means no session. An unreadable file is reported as an
// error alongside a usable store without a session, so that logout can
// still remove it.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path, now: time.Now}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return s, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	s.token = tok.AccessToken
	return s, nil
}

// NewMemoryStore returns a non-persistent store holding token.
func NewMemoryStore(token string) *Store {
	return &Store{token: token, now: time.Now}
}

// Get returns the current token. It returns service.ErrNoToken when there is
// no session and ErrExpired when the token carries an exp claim in the past.
func (s *Store) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return "", service.ErrNoToken
	}
	if exp, ok := expiry(s.token); ok && !s.now().Before(exp) {
		return "", service.ErrExpired
	}
	return s.token, nil
}

// Active reports whether a usable token is present.
func (s *Store) Active() bool {
	_, err := s.Get()
	return err == nil
}

// Save replaces the session with token and persists it.
func (s *Store) Save(token string) error {
	if token == "" {
		return errors.New("empty session token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != "" {
		if err := writeToken(s.path, token); err != nil {
			return err
		}
	}
	s.token = token
	return nil
}

// Clear destroys the session. Clearing an absent session is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

// Token implements oauth2.TokenSource. The token is re-read on every call,
// so a cleared session stops outgoing requests immediately.
func (s *Store) Token() (*oauth2.Token, error) {
	tok, err := s.Get()
	if err != nil {
		return nil, err
	}
	t := &oauth2.Token{AccessToken: tok, TokenType: "Bearer"}
	if exp, ok := expiry(tok); ok {
		t.Expiry = exp
	}
	return t, nil
}

// expiry reads the exp claim of a JWT without verifying its signature.
// Opaque (non-JWT) tokens have no client-side expiry.
func expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// writeToken saves token to path with mode 0600, creating the directory.
func writeToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	t := oauth2.Token{AccessToken: token, TokenType: "Bearer"}
	if exp, ok := expiry(token); ok {
		t.Expiry = exp
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}
