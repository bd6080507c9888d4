// Package common defines shared sentinel errors used across the service
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors (bad input shape or size, never retried).
	ErrValidation = errors.New("validation error")

	// Object storage errors.
	ErrStorageUnavailable = errors.New("object storage unavailable")
	ErrObjectMissing      = errors.New("object missing in storage")
	ErrCommitFailed       = errors.New("multipart commit failed")
	ErrCredentialIssue    = errors.New("credential issue failed")

	// Upload lifecycle errors.
	ErrDuplicateFinalize = errors.New("upload already finalized")

	// Share gate errors.
	ErrLinkUnavailable = errors.New("link expired or download limit reached")
	ErrInvalidPin      = errors.New("invalid pin")

	// Admin auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)
