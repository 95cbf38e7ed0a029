package domain

import "errors"

// Sentinel errors for business outcomes. Services wrap these with
// fmt.Errorf("...: %w", ...) so handlers can map them with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid state")
	ErrForbidden          = errors.New("forbidden")
	ErrCapacityExceeded   = errors.New("slot capacity exceeded")
	ErrExpired            = errors.New("reservation expired")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
