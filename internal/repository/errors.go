// Package repository defines the persistence adapters for the area catalog
// and the booking ledger together with the sentinel errors they share.
// Higher layers use errors.Is on these values to tell failure scenarios
// apart: ErrConcurrency means the ledger moved between the availability
// snapshot and the append, ErrDuplicateKey means an idempotency key was
// already used by the same requester.
package repository

import "errors"

// ErrNotFound is returned when an area or booking id does not exist.
var ErrNotFound = errors.New("not found")

// ErrConcurrency is returned when the area version no longer matches the
// version the caller read.  The caller must re-read availability.
var ErrConcurrency = errors.New("concurrent modification")

// ErrDuplicateKey is returned when a booking with the same requester and
// idempotency key already exists.
var ErrDuplicateKey = errors.New("duplicate idempotency key")

// ErrDuplicateName is returned when another area already uses the name.
// Names compare case-insensitively.
var ErrDuplicateName = errors.New("area name already in use")

// ErrInvalidTransition is returned when a status change is not allowed
// from the booking's current state.
var ErrInvalidTransition = errors.New("invalid status transition")
