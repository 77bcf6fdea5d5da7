package models

import "time"

// OperationKind classifies a queued mutation.
type OperationKind string

const (
	OperationCreate OperationKind = "create"
	OperationUpdate OperationKind = "update"
	OperationDelete OperationKind = "delete"
)

// QueueEntry is a persisted pending mutation keyed by document identity.
// Multiple entries for the same identity are consolidated into one before
// execution.
type QueueEntry struct {
	// ID is the local row id; it only orders entries, identity is SyncID.
	ID int64

	SyncID string
	Kind   OperationKind

	// Payload is the JSON-encoded document snapshot for create/update,
	// empty for delete.
	Payload []byte

	EnqueuedAt time.Time

	// Attempts counts failed executions; the entry is dropped and the
	// document marked error once the retry budget is exhausted.
	Attempts int
}
