// Package api provides the client for the FinSight backend REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"finsight/internal/auth"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 4 << 20 // 4 MB
)

// ErrUnauthorized indicates the access token was rejected and could not be
// refreshed. The session has already been torn down when this is returned.
var ErrUnauthorized = errors.New("api: unauthorized")

// Client talks to the backend. Every request carries the session's bearer
// token; a 401 on anything but the login call triggers exactly one refresh
// exchange and one retry of the original request.
type Client struct {
	baseURL string
	http    *http.Client
	session *auth.Session
}

// NewClient creates a client against the given base URL, e.g.
// "http://localhost:4000/api".
func NewClient(baseURL string, session *auth.Session) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		session: session,
	}
}

// Session returns the auth session this client attaches tokens from.
func (c *Client) Session() *auth.Session {
	return c.session
}

func (c *Client) get(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, false)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	return c.do(ctx, http.MethodPost, path, nil, payload, false)
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, payload any, retried bool) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	target := c.baseURL + path
	if len(query) > 0 {
		vals := url.Values{}
		for k, v := range query {
			vals.Set(k, v)
		}
		target += "?" + vals.Encode()
	}

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("api: encoding request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("api: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusUnauthorized {
		if retried || path == "/auth/login" {
			return nil, ErrUnauthorized
		}
		if err := c.session.Refresh(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return c.do(ctx, method, path, query, payload, true)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("api: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	out, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("api: reading response: %w", err)
	}
	return out, nil
}
