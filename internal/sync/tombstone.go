// Package sync implements the synchronization core: matching local and
// remote document snapshots, detecting and resolving conflicts, tracking
// deletions, replaying the offline queue and orchestrating sync runs.
package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/mkarpins/docsync/internal/dbx"
	"github.com/mkarpins/docsync/internal/logging"
	"github.com/mkarpins/docsync/internal/models"
	"github.com/mkarpins/docsync/internal/repositories/tombstones"
	"github.com/mkarpins/docsync/internal/store"
)

// DefaultTombstoneHorizon is how long tombstones are kept before an
// explicit purge may remove them.
const DefaultTombstoneHorizon = 90 * 24 * time.Hour

// TombstoneTracker records and queries deletion markers. It is the only
// component that reads or writes tombstone rows.
type TombstoneTracker struct {
	store *store.Store
	log   logging.Logger
}

func NewTombstoneTracker(s *store.Store, log logging.Logger) *TombstoneTracker {
	if log == nil {
		log = logging.Nop{}
	}
	return &TombstoneTracker{store: s, log: log}
}

// MarkDeleted records a tombstone for the identity. Marking an identity
// that already has one is success, not error.
func (t *TombstoneTracker) MarkDeleted(ctx context.Context, syncID, ownerID, deletedBy, reason string) error {
	ts := &models.Tombstone{
		SyncID:    syncID,
		OwnerID:   ownerID,
		DeletedBy: deletedBy,
		DeletedAt: time.Now().UTC(),
		Reason:    reason,
	}
	err := t.store.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return tombstones.NewSQLiteRepository(tx).Mark(ctx, ts)
	})
	if err != nil {
		return fmt.Errorf("mark deleted %s: %w", syncID, err)
	}
	return nil
}

// IsTombstoned reports whether the identity has a deletion marker.
func (t *TombstoneTracker) IsTombstoned(ctx context.Context, syncID string) (bool, error) {
	var exists bool
	err := t.store.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		exists, err = tombstones.NewSQLiteRepository(db).Exists(ctx, syncID)
		return err
	})
	return exists, err
}

// FilterTombstoned returns docs minus any whose identity carries a
// tombstone. Every sync pull runs its results through this to prevent
// reinstating deleted documents.
func (t *TombstoneTracker) FilterTombstoned(ctx context.Context, docs []*models.Document) ([]*models.Document, error) {
	if len(docs) == 0 {
		return docs, nil
	}

	var ids []string
	err := t.store.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		ids, err = tombstones.NewSQLiteRepository(db).ListSyncIDs(ctx, t.store.OwnerID())
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return docs, nil
	}

	dead := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		dead[id] = struct{}{}
	}

	kept := make([]*models.Document, 0, len(docs))
	for _, d := range docs {
		if _, ok := dead[d.SyncID]; ok {
			t.log.Debug(ctx, "dropping tombstoned document from pull", "sync_id", d.SyncID)
			continue
		}
		kept = append(kept, d)
	}
	return kept, nil
}

// PurgeOlderThan removes tombstones older than horizon and returns the
// count. This is the only path that deletes tombstone rows.
func (t *TombstoneTracker) PurgeOlderThan(ctx context.Context, horizon time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-horizon)
	var purged int64
	err := t.store.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		purged, err = tombstones.NewSQLiteRepository(tx).PurgeOlderThan(ctx, cutoff)
		return err
	})
	if err != nil {
		return 0, err
	}
	if purged > 0 {
		t.log.Info(ctx, "purged tombstones", "count", purged, "horizon", horizon)
	}
	return purged, nil
}
