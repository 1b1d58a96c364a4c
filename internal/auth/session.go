// Package auth holds the login session: tokens, the signed-in user, and
// the refresh exchange. The session is passed to collaborators explicitly
// rather than living in package-level state, and token persistence goes
// through a TokenStore so the rest of the code never touches disk.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"finsight/internal/model"
	"finsight/internal/store"
)

const (
	refreshTimeout = 10 * time.Second
	maxBodySize    = 1 << 20 // 1 MB
)

// ErrSessionExpired indicates the refresh exchange failed and the stored
// tokens were cleared. The caller should send the user back to login.
var ErrSessionExpired = errors.New("auth: session expired")

// State is the session lifecycle phase.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshing:
		return "refreshing"
	default:
		return "anonymous"
	}
}

// TokenStore persists credentials between runs. *store.TokenStore satisfies
// this; tests substitute an in-memory implementation.
type TokenStore interface {
	Save(store.Credentials) error
	Load() (store.Credentials, bool, error)
	Clear() error
}

// Session holds the current tokens and user. All methods are safe for
// concurrent use.
type Session struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore

	mu      sync.Mutex
	state   State
	access  string
	refresh string
	user    model.User
}

// NewSession creates an anonymous session against the given API base URL.
// tokens may be nil, in which case nothing is persisted.
func NewSession(baseURL string, tokens TokenStore) *Session {
	return &Session{
		baseURL: baseURL,
		http:    &http.Client{},
		tokens:  tokens,
	}
}

// Restore loads persisted credentials, if any. A session that restores
// successfully is authenticated until a request proves otherwise.
func (s *Session) Restore() error {
	if s.tokens == nil {
		return nil
	}
	creds, ok, err := s.tokens.Load()
	if err != nil {
		return fmt.Errorf("auth: loading credentials: %w", err)
	}
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = creds.AccessToken
	s.refresh = creds.RefreshToken
	s.user = creds.User
	s.state = StateAuthenticated
	return nil
}

// Begin marks the session as authenticating. Used while a login request
// is in flight so the UI can reflect the phase.
func (s *Session) Begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateAuthenticating
}

// Establish installs freshly issued credentials and persists them.
func (s *Session) Establish(access, refresh string, user model.User) error {
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.user = user
	s.state = StateAuthenticated
	s.mu.Unlock()

	if s.tokens == nil {
		return nil
	}
	return s.tokens.Save(store.Credentials{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         user,
	})
}

// AccessToken returns the current access token, empty when anonymous.
func (s *Session) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

// RefreshToken returns the current refresh token, empty when anonymous.
// The server's logout endpoint wants it so it can revoke the pair.
func (s *Session) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

// User returns the signed-in user. Zero value when anonymous.
func (s *Session) User() model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Authenticated reports whether an access token is held.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access != ""
}

// Refresh exchanges the refresh token for a new token pair. On failure the
// session is torn down and ErrSessionExpired is returned. The exchange uses
// a bare HTTP call so it cannot recurse through the retrying API client.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	refresh := s.refresh
	if refresh == "" {
		s.mu.Unlock()
		return ErrSessionExpired
	}
	s.state = StateRefreshing
	s.mu.Unlock()

	access, newRefresh, err := s.exchange(ctx, refresh)
	if err != nil {
		s.teardown()
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	s.mu.Lock()
	s.access = access
	if newRefresh != "" {
		s.refresh = newRefresh
	}
	refresh = s.refresh
	user := s.user
	s.state = StateAuthenticated
	s.mu.Unlock()

	if s.tokens != nil {
		if err := s.tokens.Save(store.Credentials{
			AccessToken:  access,
			RefreshToken: refresh,
			User:         user,
		}); err != nil {
			return fmt.Errorf("auth: persisting refreshed tokens: %w", err)
		}
	}
	return nil
}

// Logout clears the session and any persisted credentials.
func (s *Session) Logout() error {
	s.teardown()
	return nil
}

func (s *Session) teardown() {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.user = model.User{}
	s.state = StateAnonymous
	s.mu.Unlock()

	if s.tokens != nil {
		_ = s.tokens.Clear()
	}
}

func (s *Session) exchange(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	payload, _ := json.Marshal(map[string]string{"refreshToken": refreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return "", "", fmt.Errorf("auth: creating refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("auth: refresh request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("auth: refresh status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", "", fmt.Errorf("auth: reading refresh response: %w", err)
	}

	var parsed struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", "", fmt.Errorf("auth: parsing refresh response: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", "", errors.New("auth: refresh response missing access token")
	}
	return parsed.AccessToken, parsed.RefreshToken, nil
}
