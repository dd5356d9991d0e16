// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the care portal REST API.
package api

import "errors"

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the portal API client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match any ClientError of the same type, so the
// sentinels below work as comparison targets for wrapped instances.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	// ErrTypeUnauthenticated: no or rejected credential. Fatal for the
	// view that hit it; the app redirects to login and never retries.
	ErrTypeUnauthenticated
	// ErrTypeLoad: a fetch failed or the server said success=false.
	// Non-fatal; the affected slice stays empty and a notice is shown.
	ErrTypeLoad
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeInvalidResponse
)

// Sentinel errors for easy checking.
var (
	ErrUnauthenticated = &ClientError{Type: ErrTypeUnauthenticated, Message: "not authenticated"}
	ErrTimeout         = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
)

// IsUnauthenticated reports whether err means the credential is
// missing or was rejected.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsLoadError reports whether err is a non-fatal fetch failure.
func IsLoadError(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeLoad
	}
	return false
}
