package remote

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpins/docsync/internal/common"
	"github.com/mkarpins/docsync/internal/models"
)

func remoteDoc(syncID string, version int64) *models.Document {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &models.Document{
		SyncID:       syncID,
		OwnerID:      "owner1",
		Title:        "Gas Bill",
		Version:      version,
		CreatedAt:    now,
		LastModified: now,
	}
}

func TestMemoryStore_PutRejectsStaleVersion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, remoteDoc("id-a", 2)))

	err := s.Put(ctx, remoteDoc("id-a", 2))
	assert.ErrorIs(t, err, common.ErrVersionConflict)
	err = s.Put(ctx, remoteDoc("id-a", 1))
	assert.ErrorIs(t, err, common.ErrVersionConflict)

	require.NoError(t, s.Put(ctx, remoteDoc("id-a", 3)))
}

func TestMemoryStore_GetAndDelete(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, remoteDoc("id-a", 1)))

	got, err := s.Get(ctx, "owner1", "id-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)

	// Returned documents are copies.
	got.Title = "mutated"
	again, err := s.Get(ctx, "owner1", "id-a")
	require.NoError(t, err)
	assert.Equal(t, "Gas Bill", again.Title)

	require.NoError(t, s.Delete(ctx, "owner1", "id-a"))
	_, err = s.Get(ctx, "owner1", "id-a")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMemoryStore_ListScopedByOwner(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, remoteDoc("id-a", 1)))
	other := remoteDoc("id-b", 1)
	other.OwnerID = "owner2"
	require.NoError(t, s.Put(ctx, other))

	docs, err := s.ListByOwner(ctx, "owner1")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "id-a", docs[0].SyncID)
}
