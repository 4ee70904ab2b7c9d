// Package common defines shared constants and sentinel errors used across
// the server layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal  = errors.New("internal error")
	ErrorForbidden = errors.New("forbidden")

	// Auth errors.
	ErrorInvalidLogin   = errors.New("invalid login")
	ErrorUnauthorized   = errors.New("unauthorized")
	ErrorSessionExpired = errors.New("session expired")

	// Lifecycle errors.
	ErrorAlreadyActivated = errors.New("already activated")
	ErrorAlreadyAccepted  = errors.New("already accepted")

	// Validation errors (wrapped with the offending field by callers).
	ErrorValidation = errors.New("validation error")
)
