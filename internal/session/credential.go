// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the signed-in user's credential and persists
// it across program runs.
//
// The credential is threaded explicitly into every component that
// needs authorization (the API client and the live channel); nothing
// reads it from ambient process state.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/carelinkhq/carelink-tui/internal/model"
)

// ErrNoCredential indicates there is no usable credential: the user is
// signed out, the stored token expired, or the token could not be
// decoded. Callers redirect to the login view; they never retry.
var ErrNoCredential = errors.New("no valid credential")

// Claims is the portal's JWT payload.
type Claims struct {
	UserID string     `json:"user_id"`
	Name   string     `json:"name"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Credential is a bearer token plus the identity decoded from it.
type Credential struct {
	Token     string     `json:"token"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// FromToken decodes the identity claims out of a bearer token. The
// signature is not checked here; the server verifies every request and
// the client only needs the identity and expiry for display and for
// deciding when to send the user back to login.
func FromToken(token string) (*Credential, error) {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredential, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token carries no user id", ErrNoCredential)
	}
	cred := &Credential{
		Token:  token,
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		cred.ExpiresAt = claims.ExpiresAt.Time
	}
	return cred, nil
}

// Valid reports whether the credential can still be presented. A zero
// expiry means the server issued a non-expiring token.
func (c *Credential) Valid(now time.Time) bool {
	if c == nil || c.Token == "" {
		return false
	}
	if c.ExpiresAt.IsZero() {
		return true
	}
	return now.Before(c.ExpiresAt)
}
