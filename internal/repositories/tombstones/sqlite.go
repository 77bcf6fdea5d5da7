package tombstones

import (
	"context"
	"fmt"
	"time"

	"github.com/mkarpins/docsync/internal/dbx"
	"github.com/mkarpins/docsync/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Mark(ctx context.Context, t *models.Tombstone) error {
	query := `INSERT INTO tombstones (sync_id, owner_id, deleted_by, deleted_at, reason)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(sync_id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query, t.SyncID, t.OwnerID, t.DeletedBy, t.DeletedAt, t.Reason)
	if err != nil {
		return fmt.Errorf("failed to mark tombstone %s: %w", t.SyncID, err)
	}
	return nil
}

func (r *SQLiteRepository) Exists(ctx context.Context, syncID string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tombstones WHERE sync_id = ?`, syncID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check tombstone %s: %w", syncID, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListSyncIDs(ctx context.Context, ownerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT sync_id FROM tombstones WHERE owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tombstones: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM tombstones WHERE deleted_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge tombstones: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return ra, nil
}
