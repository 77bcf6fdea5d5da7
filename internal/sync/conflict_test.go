package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpins/docsync/internal/models"
)

func versioned(syncID string, version int64, modified time.Time) *models.Document {
	return &models.Document{
		SyncID:       syncID,
		OwnerID:      "owner1",
		Title:        "Gas Bill",
		Version:      version,
		CreatedAt:    modified.Add(-time.Hour),
		LastModified: modified,
	}
}

func TestDetectConflict(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	tests := []struct {
		name     string
		l, r     *models.Document
		conflict bool
		ctype    models.ConflictType
	}{
		{
			name: "in sync",
			l:    versioned("u", 3, t0), r: versioned("u", 3, t0),
			conflict: false,
		},
		{
			name: "same version concurrent edits",
			l:    versioned("u", 3, t0), r: versioned("u", 3, t1),
			conflict: true, ctype: models.ConflictConcurrentEdit,
		},
		{
			name: "forward progress",
			l:    versioned("u", 2, t0), r: versioned("u", 3, t1),
			conflict: false,
		},
		{
			name: "lower version modified later",
			l:    versioned("u", 2, t1), r: versioned("u", 3, t0),
			conflict: true, ctype: models.ConflictTimestampInversion,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, got := DetectConflict(tc.l, tc.r)
			assert.Equal(t, tc.conflict, got)
			if tc.conflict {
				require.NotNil(t, c)
				assert.Equal(t, tc.ctype, c.Type)
			}

			// The predicate must agree under argument swap.
			_, swapped := DetectConflict(tc.r, tc.l)
			assert.Equal(t, got, swapped, "conflict predicate must be symmetric")
		})
	}
}

func TestResolve_KeepLocal(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := versioned("u", 2, t0.Add(time.Minute))
	l.Notes = "local notes"
	r := versioned("u", 3, t0)

	got, err := Resolve(l, r, StrategyKeepLocal)
	require.NoError(t, err)
	assert.Equal(t, "u", got.SyncID)
	assert.Equal(t, int64(4), got.Version)
	assert.Equal(t, "local notes", got.Notes)
	assert.Equal(t, models.SyncStatePendingUpload, got.SyncState)
	assert.Empty(t, got.ConflictRef)
}

func TestResolve_KeepRemote(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := versioned("u", 3, t0.Add(time.Minute))
	r := versioned("u", 3, t0)
	r.Notes = "remote notes"

	got, err := Resolve(l, r, StrategyKeepRemote)
	require.NoError(t, err)
	assert.Equal(t, "u", got.SyncID)
	assert.Equal(t, r.Version, got.Version)
	assert.Equal(t, "remote notes", got.Notes)
	assert.Equal(t, models.SyncStateSynced, got.SyncState)
}

func TestResolve_Merge(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	l := versioned("u", 3, t0.Add(time.Minute))
	l.Title = "Gas Bill March"
	l.Notes = "paid in cash"
	l.AttachedFilePaths = []string{"bill.pdf", "receipt.pdf"}

	r := versioned("u", 4, t0)
	r.Title = "Gas Bill"
	r.Notes = "autopay enabled"
	r.AttachedFilePaths = []string{"bill.pdf", "statement.pdf"}

	got, err := Resolve(l, r, StrategyMerge)
	require.NoError(t, err)

	// Identity preserved, version strictly above both inputs.
	assert.Equal(t, "u", got.SyncID)
	assert.Greater(t, got.Version, l.Version)
	assert.Greater(t, got.Version, r.Version)

	// Scalars come from the later-modified side (local here).
	assert.Equal(t, "Gas Bill March", got.Title)

	// Attachments unioned, notes joined with the separator.
	assert.ElementsMatch(t, []string{"bill.pdf", "receipt.pdf", "statement.pdf"}, got.AttachedFilePaths)
	assert.Contains(t, got.Notes, "paid in cash")
	assert.Contains(t, got.Notes, "autopay enabled")
	assert.Contains(t, got.Notes, noteSeparator)

	assert.Equal(t, models.SyncStatePendingUpload, got.SyncState)
}

func TestResolve_MergeEqualNotesNotDuplicated(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := versioned("u", 3, t0.Add(time.Minute))
	l.Notes = "same"
	r := versioned("u", 3, t0)
	r.Notes = "same"

	got, err := Resolve(l, r, StrategyMerge)
	require.NoError(t, err)
	assert.Equal(t, "same", got.Notes)
}

func TestResolve_IdentityMismatchRejected(t *testing.T) {
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err := Resolve(versioned("a", 1, t0), versioned("b", 1, t0), StrategyMerge)
	assert.Error(t, err)
}
