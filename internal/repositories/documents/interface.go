// Package documents persists Document rows in the local store.
package documents

import (
	"context"

	"github.com/mkarpins/docsync/internal/models"
)

type Repository interface {
	// Insert adds a new row. A unique-constraint violation on
	// (owner_id, sync_id) is reported as common.ErrDuplicateIdentity.
	Insert(ctx context.Context, d *models.Document) error

	// Upsert inserts or, when a row with the same identity exists,
	// replaces its content fields, version and sync bookkeeping.
	Upsert(ctx context.Context, d *models.Document) error

	GetBySyncID(ctx context.Context, ownerID, syncID string) (*models.Document, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error)
	ListByOwnerAndState(ctx context.Context, ownerID string, state models.SyncState) ([]*models.Document, error)

	// ListUnidentified returns pre-migration rows that carry no sync
	// identifier yet, ordered by local row id.
	ListUnidentified(ctx context.Context, ownerID string) ([]*models.Document, error)

	// FindByContent returns candidates for content-fallback matching.
	FindByContent(ctx context.Context, ownerID, title, category string) ([]*models.Document, error)

	// AssignSyncID stamps an identifier onto a legacy row.
	AssignSyncID(ctx context.Context, localID int64, syncID string) error

	SetSyncState(ctx context.Context, ownerID, syncID string, state models.SyncState) error
	SetConflictRef(ctx context.Context, ownerID, syncID, ref string) error

	DeleteBySyncID(ctx context.Context, ownerID, syncID string) error
}
