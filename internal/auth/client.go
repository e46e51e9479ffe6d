// Package auth defines the boundary to the external identity provider.
// This file implements Client, an HTTP Provider for a GoTrue-compatible
// auth API (the protocol spoken by Supabase Auth):
//
//	POST /signup                      — register (email, password, data)
//	POST /token?grant_type=password   — sign in
//	POST /logout                      — revoke token
//	GET  /user                        — identity behind a token
//
// Provider error payloads are mapped onto the package sentinels so the rest
// of the application never string-matches upstream messages.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a GoTrue-compatible identity endpoint. Construct with
// NewClient; the zero value is not usable.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a Client for the given endpoint. apiKey is sent as the
// provider's anon key header on every request. A nil httpClient falls back
// to a client with a 10s timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// gotrueUser is the provider's user object shape.
type gotrueUser struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	EmailConfirmedAt string            `json:"email_confirmed_at"`
	UserMetadata     map[string]any    `json:"user_metadata"`
}

// gotrueSession is the provider's token response shape.
type gotrueSession struct {
	AccessToken string     `json:"access_token"`
	ExpiresIn   int        `json:"expires_in"`
	User        gotrueUser `json:"user"`
}

// gotrueError is the provider's error envelope. Field names vary across
// versions, so all known spellings are collected.
type gotrueError struct {
	Message          string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Code             string `json:"error_code"`
}

func (e gotrueError) text() string {
	for _, s := range []string{e.Message, e.ErrorDescription, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SignUp implements Provider.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	if len(metadata) > 0 {
		payload["data"] = metadata
	}
	var sess gotrueSession
	if err := c.post(ctx, "/signup", "", payload, &sess); err != nil {
		return nil, err
	}
	return toSession(sess), nil
}

// SignIn implements Provider.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	payload := map[string]any{
		"email":    email,
		"password": password,
	}
	var sess gotrueSession
	if err := c.post(ctx, "/token?grant_type=password", "", payload, &sess); err != nil {
		return nil, err
	}
	return toSession(sess), nil
}

// SignOut implements Provider.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/logout", accessToken, nil, nil)
}

// CurrentIdentity implements Provider.
func (c *Client) CurrentIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/user", nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req, accessToken)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode != http.StatusOK {
		return nil, mapError(resp.StatusCode, body)
	}
	var u gotrueUser
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, fmt.Errorf("auth: decode user: %w", err)
	}
	id := toIdentity(u)
	return &id, nil
}

// post sends a JSON POST and decodes the response into out (when non-nil).
func (c *Client) post(ctx context.Context, path, accessToken string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req, accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= http.StatusBadRequest {
		return mapError(resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("auth: decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request, accessToken string) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
}

// mapError converts a provider error response into a package sentinel where
// the cause is recognizable, otherwise into a descriptive error.
func mapError(status int, body []byte) error {
	var ge gotrueError
	_ = json.Unmarshal(body, &ge)
	msg := strings.ToLower(ge.text())

	switch {
	case strings.Contains(msg, "email not confirmed"), ge.Code == "email_not_confirmed":
		return ErrEmailNotConfirmed
	case strings.Contains(msg, "invalid login credentials"), ge.Code == "invalid_credentials":
		return ErrInvalidCredentials
	case strings.Contains(msg, "already registered"), ge.Code == "user_already_exists":
		return ErrEmailTaken
	case status == http.StatusUnauthorized:
		return ErrInvalidToken
	}
	if t := ge.text(); t != "" {
		return fmt.Errorf("auth: %s (status %d)", t, status)
	}
	return fmt.Errorf("auth: unexpected status %d", status)
}

func toSession(s gotrueSession) *Session {
	return &Session{
		Identity:    toIdentity(s.User),
		AccessToken: s.AccessToken,
		ExpiresIn:   s.ExpiresIn,
	}
}

func toIdentity(u gotrueUser) Identity {
	meta := make(map[string]string, len(u.UserMetadata))
	for k, v := range u.UserMetadata {
		if s, ok := v.(string); ok {
			meta[k] = s
		}
	}
	return Identity{
		UserID:         u.ID,
		Email:          u.Email,
		EmailConfirmed: u.EmailConfirmedAt != "",
		Metadata:       meta,
	}
}
