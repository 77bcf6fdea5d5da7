package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	stdsync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkarpins/docsync/internal/blob"
	"github.com/mkarpins/docsync/internal/identity"
	"github.com/mkarpins/docsync/internal/models"
	"github.com/mkarpins/docsync/internal/remote"
	"github.com/mkarpins/docsync/internal/retryx"
	"github.com/mkarpins/docsync/internal/store"
)

type syncFixture struct {
	store  *store.Store
	queue  *Queue
	remote *remote.MemoryStore
	blobs  *blob.MemoryStore
	svc    *Service
	orch   *Orchestrator
}

func newFixture(t *testing.T) *syncFixture {
	t.Helper()
	s := newStore(t)
	q := NewQueue(s, nil)
	rem := remote.NewMemoryStore()
	blobs := blob.NewMemoryStore()
	idp := &identity.StaticProvider{OwnerID: testOwner, Token: "token"}
	orch := NewOrchestrator(s, q, rem, blobs, idp, Options{
		Policy:    retryx.Policy{MaxAttempts: 2, BaseDelay: time.Millisecond},
		AttachDir: t.TempDir(),
	})
	return &syncFixture{
		store:  s,
		queue:  q,
		remote: rem,
		blobs:  blobs,
		svc:    NewService(s, q, nil),
		orch:   orch,
	}
}

func TestPerformSync_PushesLocalAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	file := filepath.Join(t.TempDir(), "bill.pdf")
	require.NoError(t, os.WriteFile(file, []byte("pdf bytes"), 0o644))

	doc := &models.Document{Title: "Gas Bill", Category: "Utilities", AttachedFilePaths: []string{file}}
	require.NoError(t, f.svc.Add(ctx, doc))

	summary, err := f.orch.PerformSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Uploaded)

	rd, err := f.remote.Get(ctx, testOwner, doc.SyncID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rd.Version)

	local, err := f.store.GetByIdentity(ctx, doc.SyncID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStateSynced, local.SyncState)

	data, err := f.blobs.Get(ctx, blob.Key(testOwner, doc.SyncID, "bill.pdf"))
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)

	atts, err := f.store.AttachmentsFor(ctx, doc.SyncID)
	require.NoError(t, err)
	require.Len(t, atts, 1)
	assert.Equal(t, blob.Checksum([]byte("pdf bytes")), atts[0].Checksum)
}

func TestPerformSync_PullsRemoteDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, f.remote.Put(ctx, newDoc("u1", "Insurance", 1, t0)))

	summary, err := f.orch.PerformSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Downloaded)

	local, err := f.store.GetByIdentity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStateSynced, local.SyncState)
	assert.Equal(t, int64(1), local.Version)
}

func TestPerformSync_DeleteTombstonesAndNeverResurrects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := &models.Document{Title: "Old Passport", Category: "ID"}
	require.NoError(t, f.svc.Add(ctx, doc))
	_, err := f.orch.PerformSync(ctx)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, doc.SyncID))
	summary, err := f.orch.PerformSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Deleted)

	_, err = f.remote.Get(ctx, testOwner, doc.SyncID)
	assert.Error(t, err)
	_, err = f.store.GetByIdentity(ctx, doc.SyncID)
	assert.Error(t, err)

	// A lagging replica still carries the document; pulling it back must
	// not recreate the row.
	stale := newDoc(doc.SyncID, "Old Passport", 1, time.Now().UTC())
	require.NoError(t, f.remote.Put(ctx, stale))
	_, err = f.orch.PerformSync(ctx)
	require.NoError(t, err)
	_, err = f.store.GetByIdentity(ctx, doc.SyncID)
	assert.Error(t, err)
}

func TestPerformSync_MergesConcurrentEdit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	local := newDoc("u1", "Gas Bill", 1, t0)
	local.Notes = "local note"
	local.LastModified = t0.Add(time.Minute)
	require.NoError(t, f.store.InsertDocument(ctx, local))

	rd := newDoc("u1", "Gas Bill", 1, t0)
	rd.Notes = "remote note"
	rd.LastModified = t0.Add(2 * time.Minute)
	require.NoError(t, f.remote.Put(ctx, rd))

	_, err := f.orch.PerformSync(ctx)
	require.NoError(t, err)

	merged, err := f.store.GetByIdentity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), merged.Version)
	assert.Equal(t, models.SyncStateSynced, merged.SyncState)
	assert.Contains(t, merged.Notes, "local note")
	assert.Contains(t, merged.Notes, "remote note")

	pushed, err := f.remote.Get(ctx, testOwner, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), pushed.Version)
}

func TestPerformSync_UnauthenticatedSkipsNetwork(t *testing.T) {
	s := newStore(t)
	q := NewQueue(s, nil)
	rem := remote.NewMemoryStore()
	var calls atomic.Int32
	rem.Hook = func(op, syncID string) error {
		calls.Add(1)
		return nil
	}
	orch := NewOrchestrator(s, q, rem, blob.NewMemoryStore(), &identity.StaticProvider{}, Options{})
	ctx := context.Background()

	require.NoError(t, NewService(s, q, nil).Add(ctx, &models.Document{Title: "Gas Bill", Category: "Utilities"}))

	summary, err := orch.PerformSync(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Uploaded)
	assert.Zero(t, calls.Load())

	// The mutation stays queued for when the user signs in.
	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestPerformSync_CountsPushFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := &models.Document{Title: "Gas Bill", Category: "Utilities"}
	require.NoError(t, f.svc.Add(ctx, doc))

	f.remote.Hook = func(op, syncID string) error {
		if op == "put" {
			return errors.New("table dropped")
		}
		return nil
	}

	summary, err := f.orch.PerformSync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.Uploaded)
	assert.NotEmpty(t, summary.Errors)

	// The entry survives for the next run.
	pending, err := f.queue.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestPerformSync_CoalescesConcurrentRuns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var lists atomic.Int32
	started := make(chan struct{})
	var once stdsync.Once
	f.remote.Hook = func(op, syncID string) error {
		if op == "list" {
			lists.Add(1)
			once.Do(func() { close(started) })
			time.Sleep(50 * time.Millisecond)
		}
		return nil
	}

	var wg stdsync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.orch.PerformSync(ctx)
		assert.NoError(t, err)
	}()
	go func() {
		defer wg.Done()
		<-started
		_, err := f.orch.PerformSync(ctx)
		assert.NoError(t, err)
	}()
	wg.Wait()

	assert.Equal(t, int32(1), lists.Load())
}

func TestPerformSync_ResolvesPushVersionConflict(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := &models.Document{Title: "Lease", Category: "Housing"}
	require.NoError(t, f.svc.Add(ctx, doc))

	// Another device wins the race: the identity appears remotely at the
	// same version just before our put.
	var once stdsync.Once
	f.remote.Hook = func(op, syncID string) error {
		if op == "put" && syncID == doc.SyncID {
			once.Do(func() {
				interloper := newDoc(doc.SyncID, "Lease", 1, time.Now().UTC())
				interloper.Notes = "from the other device"
				f.remote.Hook = nil
				require.NoError(t, f.remote.Put(ctx, interloper))
			})
		}
		return nil
	}

	_, err := f.orch.PerformSync(ctx)
	require.NoError(t, err)

	rd, err := f.remote.Get(ctx, testOwner, doc.SyncID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rd.Version)

	local, err := f.store.GetByIdentity(ctx, doc.SyncID)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStateSynced, local.SyncState)
	assert.Equal(t, int64(2), local.Version)
}

func TestSyncDocument_DownloadsAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	rd := newDoc("u1", "Contract", 1, t0)
	rd.AttachedFilePaths = []string{"somewhere/contract.pdf"}
	require.NoError(t, f.remote.Put(ctx, rd))
	require.NoError(t, f.blobs.Put(ctx, blob.Key(testOwner, "u1", "contract.pdf"), []byte("contract bytes")))

	require.NoError(t, f.orch.SyncDocument(ctx, "u1"))

	local, err := f.store.GetByIdentity(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStateSynced, local.SyncState)

	atts, err := f.store.AttachmentsFor(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, atts, 1)

	data, err := os.ReadFile(atts[0].LocalPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("contract bytes"), data)
	assert.Equal(t, blob.Checksum(data), atts[0].Checksum)
}

func TestObserver_ReceivesLifecycleEvents(t *testing.T) {
	s := newStore(t)
	q := NewQueue(s, nil)
	rem := remote.NewMemoryStore()
	var mu stdsync.Mutex
	var outcomes []models.SyncOutcome
	obs := observerFunc(func(e models.SyncEvent) {
		mu.Lock()
		outcomes = append(outcomes, e.Outcome)
		mu.Unlock()
	})
	orch := NewOrchestrator(s, q, rem, blob.NewMemoryStore(),
		&identity.StaticProvider{OwnerID: testOwner, Token: "token"},
		Options{Observer: obs})
	ctx := context.Background()

	require.NoError(t, NewService(s, q, nil).Add(ctx, &models.Document{Title: "Gas Bill", Category: "Utilities"}))
	_, err := orch.PerformSync(ctx)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, outcomes, models.OutcomeUploaded)
}

type observerFunc func(models.SyncEvent)

func (f observerFunc) Event(e models.SyncEvent) { f(e) }
