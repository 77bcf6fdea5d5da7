// Package common defines shared constants and sentinel errors used across
// the sync core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdentity signals a unique-constraint violation on a sync
	// identifier. It indicates a matching bug and must never be retried
	// with the same identity.
	ErrDuplicateIdentity = errors.New("duplicate sync identity")

	// Identifier errors.
	ErrInvalidFormat = errors.New("invalid identifier format")

	// Matching errors.
	ErrAmbiguousMatch = errors.New("ambiguous content match")

	// Sync errors.
	ErrVersionConflict      = errors.New("version conflict")
	ErrTransientNetwork     = errors.New("transient network error")
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")
	ErrQueueCorruption      = errors.New("queue entry corrupted")

	// Auth errors.
	ErrUnauthenticated = errors.New("unauthenticated")

	// Store lifecycle errors.
	ErrStoreClosed = errors.New("local store is closed")
)
