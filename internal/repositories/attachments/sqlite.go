package attachments

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

// Upsert inserts or replaces an attachment row by (document, file name).
func (r *SQLiteRepository) Upsert(ctx context.Context, a *models.FileAttachment) error {
	query := `INSERT INTO attachments (document_sync_id, file_name, local_path, blob_key, size, checksum)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_sync_id, file_name) DO UPDATE SET
			local_path = excluded.local_path,
			blob_key = excluded.blob_key,
			size = excluded.size,
			checksum = excluded.checksum`
	_, err := r.db.ExecContext(ctx, query,
		a.DocumentSyncID, a.FileName, a.LocalPath, a.BlobKey, a.Size, a.Checksum)
	if err != nil {
		return fmt.Errorf("failed to upsert attachment: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByDocument(ctx context.Context, documentSyncID string) ([]*models.FileAttachment, error) {
	query := `SELECT document_sync_id, file_name, local_path, blob_key, size, checksum
		FROM attachments WHERE document_sync_id = ? ORDER BY file_name`
	rows, err := r.db.QueryContext(ctx, query, documentSyncID)
	if err != nil {
		return nil, fmt.Errorf("failed to select attachments: %w", err)
	}
	defer rows.Close()

	var result []*models.FileAttachment
	for rows.Next() {
		a := &models.FileAttachment{}
		if err := rows.Scan(&a.DocumentSyncID, &a.FileName, &a.LocalPath, &a.BlobKey, &a.Size, &a.Checksum); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) DeleteByDocument(ctx context.Context, documentSyncID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM attachments WHERE document_sync_id = ?`, documentSyncID)
	if err != nil {
		return fmt.Errorf("failed to delete attachments: %w", err)
	}
	return nil
}
