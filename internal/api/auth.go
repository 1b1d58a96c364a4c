package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"finsight/internal/model"
)

type loginResponse struct {
	AccessToken  string     `json:"accessToken"`
	RefreshToken string     `json:"refreshToken"`
	User         model.User `json:"user"`
}

// Login exchanges credentials for a token pair and establishes the session.
func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	c.session.Begin()

	body, err := c.post(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		_ = c.session.Logout()
		return model.User{}, err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		_ = c.session.Logout()
		return model.User{}, fmt.Errorf("api: parsing login response: %w", err)
	}
	if resp.AccessToken == "" {
		_ = c.session.Logout()
		return model.User{}, errors.New("api: login response missing access token")
	}

	if err := c.session.Establish(resp.AccessToken, resp.RefreshToken, resp.User); err != nil {
		return model.User{}, err
	}
	return resp.User, nil
}

// Logout hands the refresh token to the backend for revocation, then
// clears the session regardless of the server's answer.
func (c *Client) Logout(ctx context.Context) error {
	_, _ = c.post(ctx, "/auth/logout", map[string]string{
		"refreshToken": c.session.RefreshToken(),
	})
	return c.session.Logout()
}

// Me fetches the signed-in user's profile. The backend answers either with
// the bare user object or with a { "user": ... } envelope; probe both.
func (c *Client) Me(ctx context.Context) (model.User, error) {
	body, err := c.get(ctx, "/auth/me", nil)
	if err != nil {
		return model.User{}, err
	}

	var envelope struct {
		User *model.User `json:"user"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.User != nil && envelope.User.ID != "" {
		return *envelope.User, nil
	}

	var user model.User
	if err := json.Unmarshal(body, &user); err != nil {
		return model.User{}, fmt.Errorf("api: parsing profile: %w", err)
	}
	return user, nil
}
