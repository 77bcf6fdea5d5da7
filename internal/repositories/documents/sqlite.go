package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mkarpins/docsync/internal/common"
	"github.com/mkarpins/docsync/internal/dbx"
	"github.com/mkarpins/docsync/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = `id, sync_id, owner_id, title, category, notes, attached_file_paths,
	renewal_date, version, created_at, last_modified, sync_state, conflict_ref`

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func encodePaths(paths []string) (string, error) {
	if paths == nil {
		paths = []string{}
	}
	b, err := json.Marshal(paths)
	if err != nil {
		return "", fmt.Errorf("failed to encode file paths: %w", err)
	}
	return string(b), nil
}

func scanDocument(row interface{ Scan(dest ...any) error }) (*models.Document, error) {
	d := &models.Document{}
	var paths string
	var renewal sql.NullTime
	err := row.Scan(&d.LocalID, &d.SyncID, &d.OwnerID, &d.Title, &d.Category, &d.Notes,
		&paths, &renewal, &d.Version, &d.CreatedAt, &d.LastModified, &d.SyncState, &d.ConflictRef)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(paths), &d.AttachedFilePaths); err != nil {
		return nil, fmt.Errorf("failed to decode file paths: %w", err)
	}
	if renewal.Valid {
		t := renewal.Time
		d.RenewalDate = &t
	}
	return d, nil
}

func (r *SQLiteRepository) Insert(ctx context.Context, d *models.Document) error {
	paths, err := encodePaths(d.AttachedFilePaths)
	if err != nil {
		return err
	}
	query := `INSERT INTO documents (sync_id, owner_id, title, category, notes,
			attached_file_paths, renewal_date, version, created_at, last_modified, sync_state, conflict_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		d.SyncID, d.OwnerID, d.Title, d.Category, d.Notes, paths, d.RenewalDate,
		d.Version, d.CreatedAt, d.LastModified, d.SyncState, d.ConflictRef)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert document %s: %w", d.SyncID, common.ErrDuplicateIdentity)
		}
		return fmt.Errorf("failed to insert document: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		d.LocalID = id
	}
	return nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, d *models.Document) error {
	paths, err := encodePaths(d.AttachedFilePaths)
	if err != nil {
		return err
	}
	query := `INSERT INTO documents (sync_id, owner_id, title, category, notes,
			attached_file_paths, renewal_date, version, created_at, last_modified, sync_state, conflict_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, sync_id) WHERE sync_id <> '' DO UPDATE SET
			title = excluded.title,
			category = excluded.category,
			notes = excluded.notes,
			attached_file_paths = excluded.attached_file_paths,
			renewal_date = excluded.renewal_date,
			version = excluded.version,
			last_modified = excluded.last_modified,
			sync_state = excluded.sync_state,
			conflict_ref = excluded.conflict_ref`
	_, err = r.db.ExecContext(ctx, query,
		d.SyncID, d.OwnerID, d.Title, d.Category, d.Notes, paths, d.RenewalDate,
		d.Version, d.CreatedAt, d.LastModified, d.SyncState, d.ConflictRef)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetBySyncID(ctx context.Context, ownerID, syncID string) (*models.Document, error) {
	query := `SELECT ` + columns + ` FROM documents WHERE owner_id = ? AND sync_id = ?`
	d, err := scanDocument(r.db.QueryRowContext(ctx, query, ownerID, syncID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", syncID, err)
	}
	return d, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	var result []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	return r.list(ctx, `SELECT `+columns+` FROM documents WHERE owner_id = ? ORDER BY id`, ownerID)
}

func (r *SQLiteRepository) ListByOwnerAndState(ctx context.Context, ownerID string, state models.SyncState) ([]*models.Document, error) {
	return r.list(ctx, `SELECT `+columns+` FROM documents WHERE owner_id = ? AND sync_state = ? ORDER BY id`,
		ownerID, state)
}

func (r *SQLiteRepository) ListUnidentified(ctx context.Context, ownerID string) ([]*models.Document, error) {
	return r.list(ctx, `SELECT `+columns+` FROM documents WHERE owner_id = ? AND sync_id = '' ORDER BY id`, ownerID)
}

func (r *SQLiteRepository) FindByContent(ctx context.Context, ownerID, title, category string) ([]*models.Document, error) {
	return r.list(ctx, `SELECT `+columns+` FROM documents WHERE owner_id = ? AND title = ? AND category = ? ORDER BY id`,
		ownerID, title, category)
}

func (r *SQLiteRepository) AssignSyncID(ctx context.Context, localID int64, syncID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET sync_id = ? WHERE id = ? AND sync_id = ''`, syncID, localID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("assign sync id %s: %w", syncID, common.ErrDuplicateIdentity)
		}
		return fmt.Errorf("failed to assign sync id: %w", err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra != 1 {
		return fmt.Errorf("assign sync id to row %d: %w", localID, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) SetSyncState(ctx context.Context, ownerID, syncID string, state models.SyncState) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET sync_state = ? WHERE owner_id = ? AND sync_id = ?`, state, ownerID, syncID)
	if err != nil {
		return fmt.Errorf("failed to set sync state: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SetConflictRef(ctx context.Context, ownerID, syncID, ref string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE documents SET conflict_ref = ? WHERE owner_id = ? AND sync_id = ?`, ref, ownerID, syncID)
	if err != nil {
		return fmt.Errorf("failed to set conflict ref: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBySyncID(ctx context.Context, ownerID, syncID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM documents WHERE owner_id = ? AND sync_id = ?`, ownerID, syncID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}
