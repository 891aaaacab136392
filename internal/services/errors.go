package services

import "errors"

// Sentinel errors handlers translate into HTTP statuses. Everything else
// surfaces as a 500 with the error message in the envelope.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
