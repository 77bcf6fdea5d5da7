package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpins/docsync/internal/common"
	"github.com/mkarpins/docsync/internal/idx"
	"github.com/mkarpins/docsync/internal/identity"
	"github.com/mkarpins/docsync/internal/models"
	"github.com/mkarpins/docsync/internal/remote"
)

func TestMigrator_GeneratesIdentityWhenNoRemoteCounterpart(t *testing.T) {
	s := newStore(t)
	q := NewQueue(s, nil)
	rem := remote.NewMemoryStore()
	m := NewMigrator(s, q, rem, &identity.StaticProvider{OwnerID: testOwner, Token: "token"}, nil)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	legacy := newDoc("", "Gas Bill", 0, t0)
	legacy.SyncState = models.SyncStateNotSynced
	require.NoError(t, s.InsertDocument(ctx, legacy))

	require.NoError(t, m.Run(ctx))

	docs, err := s.ListUnidentified(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, idx.Validate(all[0].SyncID))
	assert.Equal(t, int64(1), all[0].Version)
	// The identifier is assigned but nothing has reached the remote yet,
	// so the document stays notSynced until the queued create commits.
	assert.Equal(t, models.SyncStateNotSynced, all[0].SyncState)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, models.OperationCreate, pending[0].Kind)

	flag, err := s.GetMetadata(ctx, common.MetadataKeyMigrationDone)
	require.NoError(t, err)
	assert.NotNil(t, flag)
}

func TestMigrator_RecoversIdentityFromRemote(t *testing.T) {
	s := newStore(t)
	q := NewQueue(s, nil)
	rem := remote.NewMemoryStore()
	m := NewMigrator(s, q, rem, &identity.StaticProvider{OwnerID: testOwner, Token: "token"}, nil)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	legacy := newDoc("", "Gas Bill", 0, t0)
	require.NoError(t, s.InsertDocument(ctx, legacy))

	// The same document already synced from another device, created
	// within the tolerance window.
	require.NoError(t, rem.Put(ctx, newDoc("u1", "Gas Bill", 4, t0.Add(2*time.Second))))

	require.NoError(t, m.Run(ctx))

	doc, err := s.GetByIdentity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), doc.Version)
	assert.Equal(t, models.SyncStateSynced, doc.SyncState)

	// Nothing to upload: the remote copy was adopted as-is.
	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMigrator_RunsOnlyOnce(t *testing.T) {
	s := newStore(t)
	q := NewQueue(s, nil)
	rem := remote.NewMemoryStore()
	var lists int
	rem.Hook = func(op, syncID string) error {
		if op == "list" {
			lists++
		}
		return nil
	}
	m := NewMigrator(s, q, rem, &identity.StaticProvider{OwnerID: testOwner, Token: "token"}, nil)
	ctx := context.Background()

	legacy := newDoc("", "Gas Bill", 0, time.Now().UTC())
	require.NoError(t, s.InsertDocument(ctx, legacy))

	require.NoError(t, m.Run(ctx))
	require.NoError(t, m.Run(ctx))
	assert.Equal(t, 1, lists)
}

func TestMigrator_DeferredWhenUnauthenticated(t *testing.T) {
	s := newStore(t)
	q := NewQueue(s, nil)
	m := NewMigrator(s, q, remote.NewMemoryStore(), &identity.StaticProvider{}, nil)
	ctx := context.Background()

	legacy := newDoc("", "Gas Bill", 0, time.Now().UTC())
	require.NoError(t, s.InsertDocument(ctx, legacy))

	require.NoError(t, m.Run(ctx))

	// Nothing migrated, flag not set: the next authenticated run picks
	// the document up.
	docs, err := s.ListUnidentified(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)

	flag, err := s.GetMetadata(ctx, common.MetadataKeyMigrationDone)
	require.NoError(t, err)
	assert.Nil(t, flag)
}

func TestMigrator_AmbiguousRemoteMatchSurfaced(t *testing.T) {
	s := newStore(t)
	q := NewQueue(s, nil)
	rem := remote.NewMemoryStore()
	m := NewMigrator(s, q, rem, &identity.StaticProvider{OwnerID: testOwner, Token: "token"}, nil)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	legacy := newDoc("", "Gas Bill", 0, t0)
	require.NoError(t, s.InsertDocument(ctx, legacy))
	require.NoError(t, rem.Put(ctx, newDoc("u1", "Gas Bill", 1, t0.Add(time.Second))))
	require.NoError(t, rem.Put(ctx, newDoc("u2", "Gas Bill", 1, t0.Add(2*time.Second))))

	err := m.Run(ctx)
	assert.ErrorIs(t, err, common.ErrAmbiguousMatch)

	// The flag stays unset so a later run can retry once the duplicate
	// is cleaned up.
	flag, gerr := s.GetMetadata(ctx, common.MetadataKeyMigrationDone)
	require.NoError(t, gerr)
	assert.Nil(t, flag)
}

func TestMigrator_FailureIsolatedPerDocument(t *testing.T) {
	s := newStore(t)
	q := NewQueue(s, nil)
	rem := remote.NewMemoryStore()
	m := NewMigrator(s, q, rem, &identity.StaticProvider{OwnerID: testOwner, Token: "token"}, nil)
	ctx := context.Background()
	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	ambiguous := newDoc("", "Gas Bill", 0, t0)
	require.NoError(t, s.InsertDocument(ctx, ambiguous))
	clean := newDoc("", "Lease", 0, t0)
	require.NoError(t, s.InsertDocument(ctx, clean))

	require.NoError(t, rem.Put(ctx, newDoc("u1", "Gas Bill", 1, t0)))
	require.NoError(t, rem.Put(ctx, newDoc("u2", "Gas Bill", 1, t0.Add(time.Second))))

	err := m.Run(ctx)
	assert.ErrorIs(t, err, common.ErrAmbiguousMatch)

	// The clean document still got its identifier.
	docs, err := s.ListUnidentified(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Gas Bill", docs[0].Title)
}
