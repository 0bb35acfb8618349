// Package common defines shared constants and sentinel errors used across
// client and server layers of mediakeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Media lifecycle errors.
	ErrInvalidStatus = errors.New("invalid media status")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
