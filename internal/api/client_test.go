package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"finsight/internal/auth"
	"finsight/internal/filter"
	"finsight/internal/model"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	session := auth.NewSession(srv.URL, nil)
	return NewClient(srv.URL, session), srv
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{"options": []any{}})
	}))
	defer srv.Close()

	_ = c.session.Establish("tok-1", "ref-1", model.User{})
	if _, err := c.ClusterOptions(context.Background()); err != nil {
		t.Fatalf("ClusterOptions: %v", err)
	}
	if gotAuth != "Bearer tok-1" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestUnauthorizedRefreshesOnceAndRetries(t *testing.T) {
	var refreshes, dataHits int
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		_ = json.NewEncoder(w).Encode(map[string]string{
			"accessToken": "tok-new", "refreshToken": "ref-new",
		})
	})
	mux.HandleFunc("/pnl/summary/kpis", func(w http.ResponseWriter, r *http.Request) {
		dataHits++
		if r.Header.Get("Authorization") != "Bearer tok-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(model.KPISummary{Revenue: 1200})
	})

	c, srv := newTestClient(mux)
	defer srv.Close()
	_ = c.session.Establish("tok-stale", "ref-1", model.User{})

	got, err := c.KPISummary(context.Background(), filter.New())
	if err != nil {
		t.Fatalf("KPISummary: %v", err)
	}
	if got.Revenue != 1200 {
		t.Fatalf("Revenue = %v", got.Revenue)
	}
	if refreshes != 1 {
		t.Fatalf("refreshes = %d, want 1", refreshes)
	}
	if dataHits != 2 {
		t.Fatalf("data endpoint hit %d times, want 2", dataHits)
	}
}

func TestUnauthorizedAfterRetryStops(t *testing.T) {
	var refreshes int
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes++
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "tok-new"})
	})
	mux.HandleFunc("/pnl", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, srv := newTestClient(mux)
	defer srv.Close()
	_ = c.session.Establish("tok", "ref", model.User{})

	_, err := c.PnL(context.Background(), filter.New(), 1, 10)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if refreshes != 1 {
		t.Fatalf("refreshes = %d, want exactly 1", refreshes)
	}
}

func TestRefreshFailureSurfacesUnauthorizedAndClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/pnl", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, srv := newTestClient(mux)
	defer srv.Close()
	_ = c.session.Establish("tok", "ref", model.User{})

	_, err := c.PnL(context.Background(), filter.New(), 1, 10)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if c.session.Authenticated() {
		t.Fatal("session must be torn down after failed refresh")
	}
}

func TestLoginSkipsRefresh(t *testing.T) {
	var refreshes int
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes++
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, srv := newTestClient(mux)
	defer srv.Close()

	_, err := c.Login(context.Background(), "ana@example.com", "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if refreshes != 0 {
		t.Fatal("rejected login must not trigger a refresh")
	}
}

func TestLoginEstablishesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["email"] != "ana@example.com" {
			t.Errorf("email = %q", creds["email"])
		}
		_ = json.NewEncoder(w).Encode(loginResponse{
			AccessToken:  "tok",
			RefreshToken: "ref",
			User:         model.User{ID: "u1", Name: "Ana", Role: "account_director"},
		})
	})

	c, srv := newTestClient(mux)
	defer srv.Close()

	user, err := c.Login(context.Background(), "ana@example.com", "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.Name != "Ana" || !c.session.Authenticated() {
		t.Fatalf("user = %+v authenticated = %v", user, c.session.Authenticated())
	}
}

func TestMeHandlesBothProfileShapes(t *testing.T) {
	wrapped := true
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := model.User{ID: "u1", Email: "ana@example.com", Role: "account_director"}
		if wrapped {
			_ = json.NewEncoder(w).Encode(map[string]any{"user": user})
			return
		}
		_ = json.NewEncoder(w).Encode(user)
	}))
	defer srv.Close()

	got, err := c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me (enveloped): %v", err)
	}
	if got.ID != "u1" || got.Role != "account_director" {
		t.Fatalf("enveloped profile = %+v", got)
	}

	wrapped = false
	got, err = c.Me(context.Background())
	if err != nil {
		t.Fatalf("Me (bare): %v", err)
	}
	if got.ID != "u1" {
		t.Fatalf("bare profile = %+v", got)
	}
}

func TestLogoutSendsRefreshTokenAndClearsSession(t *testing.T) {
	var gotBody map[string]string
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusNoContent)
	})

	c, srv := newTestClient(mux)
	defer srv.Close()
	_ = c.session.Establish("tok-1", "ref-1", model.User{ID: "u1"})

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if gotBody["refreshToken"] != "ref-1" {
		t.Fatalf("logout body = %v, want refreshToken ref-1", gotBody)
	}
	if c.session.Authenticated() {
		t.Fatal("session still authenticated after logout")
	}
}

func TestPnLQueryCarriesFilterAndPaging(t *testing.T) {
	var got map[string]string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = map[string]string{}
		for k := range r.URL.Query() {
			got[k] = r.URL.Query().Get(k)
		}
		_ = json.NewEncoder(w).Encode(model.PnLPage{})
	}))
	defer srv.Close()

	f := filter.New().
		Toggle(filter.FieldClusters, "c1").
		Toggle(filter.FieldClusters, "c2").
		ToggleYear(2024)
	if _, err := c.PnL(context.Background(), f, 2, 10); err != nil {
		t.Fatalf("PnL: %v", err)
	}

	if got["clusterIds"] != "c1,c2" || got["years"] != "2024" {
		t.Fatalf("filter query = %v", got)
	}
	if got["page"] != "2" || got["pageSize"] != "10" {
		t.Fatalf("paging query = %v", got)
	}
}

func TestOptionsNormalizeNumericIDs(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"options":[
			{"id": 7, "name": "Acme", "value": "acme", "clusterId": 2},
			{"id": "c9", "name": "Globex"}
		]}`))
	}))
	defer srv.Close()

	opts, err := c.AccountOptions(context.Background(), nil)
	if err != nil {
		t.Fatalf("AccountOptions: %v", err)
	}
	if len(opts) != 2 {
		t.Fatalf("got %d options", len(opts))
	}
	if opts[0].ID != "7" || opts[0].ClusterID != "2" || opts[0].Key() != "acme" {
		t.Fatalf("numeric ids not normalized: %+v", opts[0])
	}
	if opts[1].Key() != "c9" {
		t.Fatalf("Key without value = %q, want id", opts[1].Key())
	}
}

func TestGridRowsResourceModeUsesFlatRows(t *testing.T) {
	var gotPageSize string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pnl" {
			t.Errorf("path = %q, want /pnl", r.URL.Path)
		}
		gotPageSize = r.URL.Query().Get("pageSize")
		_ = json.NewEncoder(w).Encode(model.PnLPage{
			Data: []model.PnLRow{{ID: "r1", Project: "Apollo", Margin: 42}},
		})
	}))
	defer srv.Close()

	rows, err := c.GridRows(context.Background(), model.ModeResource, filter.New())
	if err != nil {
		t.Fatalf("GridRows: %v", err)
	}
	if gotPageSize != "1000" {
		t.Fatalf("pageSize = %q, want 1000", gotPageSize)
	}
	if len(rows) != 1 || rows[0].Mode != model.ModeResource || rows[0].Name() != "Apollo" {
		t.Fatalf("rows = %+v", rows)
	}
}
