package domain

import "errors"

// Registry and naming errors
var (
	ErrInvalidName   = errors.New("invalid organization name")
	ErrDuplicateName = errors.New("organization name already exists")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("organization was modified concurrently")
)

// Credential errors
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("token does not authorize this organization")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// Collection lifecycle errors
var (
	ErrCollectionExists = errors.New("collection already exists")
	ErrMigrationFailed  = errors.New("collection migration failed")
)

// Storage errors
var (
	// ErrStorageUnavailable is the only error callers should retry automatically.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
