package storage

import "errors"

// Errors shared by all backends
var (
	// ErrEmailTaken is returned when creating an account with an email
	// that already has one
	ErrEmailTaken = errors.New("email already registered")
)
