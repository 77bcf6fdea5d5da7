package queue

import (
	"context"
	"fmt"

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

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.QueueEntry) error {
	query := `INSERT INTO sync_queue (sync_id, kind, payload, enqueued_at, attempts)
		VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, e.SyncID, e.Kind, e.Payload, e.EnqueuedAt, e.Attempts)
	if err != nil {
		return fmt.Errorf("failed to insert queue entry: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		e.ID = id
	}
	return nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select queue entries: %w", err)
	}
	defer rows.Close()

	var result []*models.QueueEntry
	for rows.Next() {
		e := &models.QueueEntry{}
		if err := rows.Scan(&e.ID, &e.SyncID, &e.Kind, &e.Payload, &e.EnqueuedAt, &e.Attempts); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ListPending(ctx context.Context) ([]*models.QueueEntry, error) {
	return r.list(ctx, `SELECT id, sync_id, kind, payload, enqueued_at, attempts
		FROM sync_queue WHERE quarantined = 0 ORDER BY id`)
}

func (r *SQLiteRepository) PendingBySyncID(ctx context.Context, syncID string) ([]*models.QueueEntry, error) {
	return r.list(ctx, `SELECT id, sync_id, kind, payload, enqueued_at, attempts
		FROM sync_queue WHERE quarantined = 0 AND sync_id = ? ORDER BY id`, syncID)
}

func (r *SQLiteRepository) UpdateEntry(ctx context.Context, id int64, kind models.OperationKind, payload []byte) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET kind = ?, payload = ? WHERE id = ?`, kind, payload, id)
	if err != nil {
		return fmt.Errorf("failed to update queue entry %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete queue entry %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBySyncID(ctx context.Context, syncID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE sync_id = ?`, syncID)
	if err != nil {
		return fmt.Errorf("failed to delete queue entries for %s: %w", syncID, err)
	}
	return nil
}

func (r *SQLiteRepository) IncrementAttempts(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment attempts for entry %d: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) Quarantine(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sync_queue SET quarantined = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to quarantine entry %d: %w", id, err)
	}
	return nil
}
