// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

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
	"time"

	"github.com/carelinkhq/carelink-tui/internal/model"
	"github.com/carelinkhq/carelink-tui/internal/session"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the portal client.
type ClientConfig struct {
	// BaseURL is the portal REST API base URL
	BaseURL string

	// Timeout for each request (default: 15s)
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL: "https://api.carelink.example.com",
		Timeout: 15 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the care portal REST API.
//
// Authenticated calls take the credential explicitly; the client never
// reads tokens from ambient state.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a new portal client.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// envelope is the portal's uniform response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// =============================================================================
// AUTH OPERATIONS
// =============================================================================

// LoginRequest is the login form payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginData is the data field of a successful login response.
type loginData struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var data loginData
	err := c.post(ctx, "/api/auth/login", LoginRequest{Email: email, Password: password}, &data)
	if err != nil {
		return "", err
	}
	if data.Token == "" {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "login response carried no token"}
	}
	return data.Token, nil
}

// RegistrationForm is the sign-up payload.
type RegistrationForm struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
	Phone    string     `json:"phone,omitempty"`
}

// Register creates a new portal account.
func (c *Client) Register(ctx context.Context, form RegistrationForm) error {
	return c.post(ctx, "/api/auth/register", form, nil)
}

// RequestPasswordReset asks the portal to email a reset link.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "/api/auth/password-reset", map[string]string{"email": email}, nil)
}

// =============================================================================
// AUTHENTICATED READS
// =============================================================================

// CounterpartProfile fetches the profile of the person on the other
// side of a conversation.
func (c *Client) CounterpartProfile(ctx context.Context, cred *session.Credential, counterpartID string) (*model.Counterpart, error) {
	var cp model.Counterpart
	if err := c.get(ctx, cred, "/api/nurses/"+url.PathEscape(counterpartID), &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// MessageHistory fetches the prior messages of a conversation, in the
// order the server returns them. The caller hands the slice to the
// transcript store untouched.
func (c *Client) MessageHistory(ctx context.Context, cred *session.Credential, counterpartID string) ([]model.Message, error) {
	var msgs []model.Message
	if err := c.get(ctx, cred, "/api/messages/"+url.PathEscape(counterpartID), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Visits fetches the signed-in patient's scheduled visits.
func (c *Client) Visits(ctx context.Context, cred *session.Credential) ([]model.Visit, error) {
	var visits []model.Visit
	if err := c.get(ctx, cred, "/api/visits", &visits); err != nil {
		return nil, err
	}
	return visits, nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

func (c *Client) get(ctx context.Context, cred *session.Credential, path string, out any) error {
	if !cred.Valid(time.Now()) {
		return ErrUnauthenticated
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &ClientError{Type: ErrTypeUnknown, Message: "failed to encode request", Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ErrTimeout
		}
		return &ClientError{Type: ErrTypeLoad, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthenticated
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return &ClientError{Type: ErrTypeLoad, Message: "failed to read response", Cause: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed response body", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("request rejected with status %d", resp.StatusCode)
		}
		return &ClientError{Type: ErrTypeLoad, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "malformed response data", Cause: err}
	}
	return nil
}
