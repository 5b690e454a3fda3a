// Package common defines shared constants and sentinel errors used across
// FixHost components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal       = errors.New("internal error")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrorForbidden      = errors.New("forbidden")
	ErrorInvalidRequest = errors.New("invalid request")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Photo pipeline errors.
	ErrSessionBusy  = errors.New("upload already in progress")
	ErrUploadFailed = errors.New("all uploads failed")
)
