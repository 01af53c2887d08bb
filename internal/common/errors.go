// Package common defines shared constants and sentinel errors used across
// the DriveOps client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage failure")

	// Auth / session errors.
	ErrUnauthorized  = errors.New("unauthorized")
	ErrNoSession     = errors.New("no cached session")
	ErrTokenExpired  = errors.New("token expired")
	ErrAdminRequired = errors.New("admin role required")

	// Input validation caught locally, before anything is enqueued.
	ErrInvalidInput = errors.New("invalid input")

	// Queue errors.
	ErrQueueEmpty      = errors.New("queue empty")
	ErrActionInFlight  = errors.New("another action is in flight")
	ErrUnknownAction   = errors.New("unknown action kind")
	ErrActionNotFailed = errors.New("action is not in failed state")
)
