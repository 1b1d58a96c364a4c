package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"finsight/internal/model"
	"finsight/internal/store"
)

type memStore struct {
	creds store.Credentials
	saved bool
}

func (m *memStore) Save(c store.Credentials) error {
	m.creds = c
	m.saved = true
	return nil
}

func (m *memStore) Load() (store.Credentials, bool, error) {
	return m.creds, m.saved, nil
}

func (m *memStore) Clear() error {
	m.creds = store.Credentials{}
	m.saved = false
	return nil
}

func TestEstablishAndRestore(t *testing.T) {
	ts := &memStore{}
	s := NewSession("http://api", ts)

	if s.Authenticated() {
		t.Fatal("new session must be anonymous")
	}

	user := model.User{ID: "u1", Name: "Ana", Role: "project_manager"}
	if err := s.Establish("acc", "ref", user); err != nil {
		t.Fatalf("Establish: %v", err)
	}
	if s.State() != StateAuthenticated || s.AccessToken() != "acc" {
		t.Fatalf("state=%v token=%q after Establish", s.State(), s.AccessToken())
	}

	// A fresh session against the same store picks the credentials back up.
	s2 := NewSession("http://api", ts)
	if err := s2.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !s2.Authenticated() || s2.User().Name != "Ana" {
		t.Fatalf("restored session user = %+v", s2.User())
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	var gotRefresh string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		gotRefresh = body.RefreshToken
		_ = json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  "acc-2",
			"refreshToken": "ref-2",
		})
	}))
	defer srv.Close()

	ts := &memStore{}
	s := NewSession(srv.URL, ts)
	_ = s.Establish("acc-1", "ref-1", model.User{ID: "u1"})

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if gotRefresh != "ref-1" {
		t.Fatalf("server saw refresh token %q, want ref-1", gotRefresh)
	}
	if s.AccessToken() != "acc-2" {
		t.Fatalf("AccessToken = %q after refresh", s.AccessToken())
	}
	if ts.creds.RefreshToken != "ref-2" {
		t.Fatalf("persisted refresh token = %q, want ref-2", ts.creds.RefreshToken)
	}
}

func TestRefreshFailureTearsDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	ts := &memStore{}
	s := NewSession(srv.URL, ts)
	_ = s.Establish("acc", "ref", model.User{ID: "u1"})

	err := s.Refresh(context.Background())
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Refresh error = %v, want ErrSessionExpired", err)
	}
	if s.Authenticated() || s.State() != StateAnonymous {
		t.Fatal("failed refresh must tear the session down")
	}
	if ts.saved {
		t.Fatal("failed refresh must clear persisted credentials")
	}
}

func TestRefreshWithoutTokenExpires(t *testing.T) {
	s := NewSession("http://api", nil)
	if err := s.Refresh(context.Background()); !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("Refresh = %v, want ErrSessionExpired", err)
	}
}
