package queue

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpins/docsync/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE sync_queue (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  sync_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  payload BLOB,
  enqueued_at TIMESTAMP NOT NULL,
  attempts INTEGER NOT NULL DEFAULT 0,
  quarantined INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)

	return db
}

func entry(syncID string, kind models.OperationKind) *models.QueueEntry {
	return &models.QueueEntry{
		SyncID:     syncID,
		Kind:       kind,
		Payload:    []byte(`{}`),
		EnqueuedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestInsertAndListPending_Order(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e1 := entry("id-a", models.OperationCreate)
	e2 := entry("id-b", models.OperationUpdate)
	require.NoError(t, r.Insert(ctx, e1))
	require.NoError(t, r.Insert(ctx, e2))
	assert.Less(t, e1.ID, e2.ID)

	got, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "id-a", got[0].SyncID)
	assert.Equal(t, "id-b", got[1].SyncID)
}

func TestUpdateEntry(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := entry("id-a", models.OperationCreate)
	require.NoError(t, r.Insert(ctx, e))

	require.NoError(t, r.UpdateEntry(ctx, e.ID, models.OperationCreate, []byte(`{"title":"merged"}`)))

	got, err := r.PendingBySyncID(ctx, "id-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.OperationCreate, got[0].Kind)
	assert.Equal(t, []byte(`{"title":"merged"}`), got[0].Payload)
}

func TestDeleteBySyncID(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Insert(ctx, entry("id-a", models.OperationCreate)))
	require.NoError(t, r.Insert(ctx, entry("id-a", models.OperationUpdate)))
	require.NoError(t, r.Insert(ctx, entry("id-b", models.OperationUpdate)))

	require.NoError(t, r.DeleteBySyncID(ctx, "id-a"))

	got, err := r.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "id-b", got[0].SyncID)
}

func TestQuarantine_ExcludedFromPending(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := entry("id-a", models.OperationUpdate)
	require.NoError(t, r.Insert(ctx, e))
	require.NoError(t, r.Quarantine(ctx, e.ID))

	got, err := r.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	// The row itself is kept.
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sync_queue`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestIncrementAttempts(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	e := entry("id-a", models.OperationUpdate)
	require.NoError(t, r.Insert(ctx, e))
	require.NoError(t, r.IncrementAttempts(ctx, e.ID))
	require.NoError(t, r.IncrementAttempts(ctx, e.ID))

	got, err := r.PendingBySyncID(ctx, "id-a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Attempts)
}
