// Package tombstones persists deletion markers. This package is the only
// reader and writer of the tombstones table.
package tombstones

import (
	"context"
	"time"

	"github.com/mkarpins/docsync/internal/models"
)

type Repository interface {
	// Mark records a tombstone. Marking an already-tombstoned identity is
	// success, not error.
	Mark(ctx context.Context, t *models.Tombstone) error

	Exists(ctx context.Context, syncID string) (bool, error)

	// ListSyncIDs returns every tombstoned identity for the owner.
	ListSyncIDs(ctx context.Context, ownerID string) ([]string, error)

	// PurgeOlderThan deletes tombstones whose deletion time is before
	// cutoff and returns how many were removed. This is the only
	// operation permitted to delete tombstone rows.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
