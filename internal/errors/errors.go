package errors

import (
	"errors"
)

// Sentinel errors for the request desk.
var (
	// ErrNotFound - unknown id, or an id owned by another session/user.
	ErrNotFound = errors.New("not found")

	// ErrExpired - a staged action or dialog outlived its TTL.
	ErrExpired = errors.New("expired")

	// ErrNotPending - a staged action already left the PENDING status.
	ErrNotPending = errors.New("not pending")

	// ErrInvalidInput - bad user or caller input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrExecution - the external system of record rejected or failed the action.
	ErrExecution = errors.New("execution failed")

	// ErrTransient - timeout, network or rate limit; a retry may succeed.
	ErrTransient = errors.New("transient error")

	// ErrInternal - anything else.
	ErrInternal = errors.New("internal error")
)
