// Package queue persists the sync queue: an ordered log of pending
// mutations keyed by document identity, durable across restarts.
package queue

import (
	"context"

	"github.com/mkarpins/docsync/internal/models"
)

type Repository interface {
	Insert(ctx context.Context, e *models.QueueEntry) error

	// ListPending returns non-quarantined entries in enqueue order.
	ListPending(ctx context.Context) ([]*models.QueueEntry, error)

	// PendingBySyncID returns non-quarantined entries for one identity in
	// enqueue order.
	PendingBySyncID(ctx context.Context, syncID string) ([]*models.QueueEntry, error)

	// UpdateEntry rewrites kind and payload of an existing entry, used by
	// consolidation.
	UpdateEntry(ctx context.Context, id int64, kind models.OperationKind, payload []byte) error

	Delete(ctx context.Context, id int64) error
	DeleteBySyncID(ctx context.Context, syncID string) error

	IncrementAttempts(ctx context.Context, id int64) error

	// Quarantine flags a corrupt entry so draining skips it without
	// discarding the row.
	Quarantine(ctx context.Context, id int64) error
}
