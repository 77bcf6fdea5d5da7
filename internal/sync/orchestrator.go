package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	stdsync "sync"
	"time"

	"github.com/mkarpins/docsync/internal/blob"
	"github.com/mkarpins/docsync/internal/common"
	"github.com/mkarpins/docsync/internal/filex"
	"github.com/mkarpins/docsync/internal/identity"
	"github.com/mkarpins/docsync/internal/logging"
	"github.com/mkarpins/docsync/internal/models"
	"github.com/mkarpins/docsync/internal/remote"
	"github.com/mkarpins/docsync/internal/retryx"
	"github.com/mkarpins/docsync/internal/store"
)

// RunState is the orchestrator's current phase, readable at any time.
type RunState string

const (
	RunStateIdle      RunState = "idle"
	RunStatePulling   RunState = "pulling"
	RunStateMatching  RunState = "matching"
	RunStateResolving RunState = "resolving"
	RunStatePushing   RunState = "pushing"
	RunStateError     RunState = "error"
)

// Observer receives per-item lifecycle events during a run. Implementations
// must be fast; events are delivered synchronously.
type Observer interface {
	Event(e models.SyncEvent)
}

type nopObserver struct{}

func (nopObserver) Event(models.SyncEvent) {}

// Orchestrator drives full and single-document synchronization runs. At
// most one run executes at a time; PerformSync calls arriving during a run
// attach to it and share its result.
type Orchestrator struct {
	store    *store.Store
	queue    *Queue
	remote   remote.Store
	blobs    blob.Store
	idp      identity.Provider
	matcher  *Matcher
	tracker  *TombstoneTracker
	strategy Strategy
	policy   retryx.Policy
	observer Observer
	log      logging.Logger

	// attachDir is where downloaded attachment content lands, one
	// subdirectory per sync identifier.
	attachDir string

	mu       stdsync.Mutex
	state    RunState
	inFlight *runHandle
}

type runHandle struct {
	done    chan struct{}
	summary *models.SyncSummary
	err     error
}

// Options configures an Orchestrator beyond its collaborators.
type Options struct {
	// Strategy applied to detected conflicts. Defaults to StrategyMerge.
	Strategy Strategy

	// Policy governs retries of transient network failures.
	Policy retryx.Policy

	// AttachDir receives downloaded attachment files. Defaults to the
	// working directory.
	AttachDir string

	Observer Observer
	Logger   logging.Logger
}

func NewOrchestrator(s *store.Store, q *Queue, r remote.Store, b blob.Store, idp identity.Provider, opts Options) *Orchestrator {
	if opts.Strategy == "" {
		opts.Strategy = StrategyMerge
	}
	if opts.Policy.MaxAttempts == 0 {
		opts.Policy = retryx.DefaultPolicy()
	}
	if opts.AttachDir == "" {
		opts.AttachDir = "."
	}
	if opts.Observer == nil {
		opts.Observer = nopObserver{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop{}
	}
	tracker := NewTombstoneTracker(s, opts.Logger)
	return &Orchestrator{
		store:     s,
		queue:     q,
		remote:    r,
		blobs:     b,
		idp:       idp,
		matcher:   NewMatcher(s, tracker, opts.Logger),
		tracker:   tracker,
		strategy:  opts.Strategy,
		policy:    opts.Policy,
		observer:  opts.Observer,
		log:       opts.Logger,
		attachDir: opts.AttachDir,
		state:     RunStateIdle,
	}
}

// State reports the current run phase.
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s RunState) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// PerformSync runs a full pull, match, resolve, push cycle. A call made
// while a run is already in flight does not start a second run; it waits
// for the in-flight run and returns its result.
func (o *Orchestrator) PerformSync(ctx context.Context) (*models.SyncSummary, error) {
	o.mu.Lock()
	if h := o.inFlight; h != nil {
		o.mu.Unlock()
		select {
		case <-h.done:
			return h.summary, h.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	h := &runHandle{done: make(chan struct{})}
	o.inFlight = h
	o.mu.Unlock()

	h.summary, h.err = o.run(ctx)

	o.mu.Lock()
	o.inFlight = nil
	if h.err != nil {
		o.state = RunStateError
	} else {
		o.state = RunStateIdle
	}
	o.mu.Unlock()
	close(h.done)
	return h.summary, h.err
}

func (o *Orchestrator) run(ctx context.Context) (*models.SyncSummary, error) {
	started := time.Now()
	summary := &models.SyncSummary{}
	defer func() { summary.Duration = time.Since(started) }()

	ownerID, err := o.idp.CurrentOwnerID(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnauthenticated) {
			// Offline mode: local mutations keep accumulating in the
			// queue, network phases are skipped entirely.
			o.log.Info(ctx, "not authenticated, skipping sync run")
			return summary, nil
		}
		return summary, err
	}

	o.setState(RunStatePulling)
	var remoteDocs []*models.Document
	err = retryx.Do(ctx, o.policy, func(ctx context.Context) error {
		var lerr error
		remoteDocs, lerr = o.remote.ListByOwner(ctx, ownerID)
		return lerr
	})
	if err != nil {
		return summary, fmt.Errorf("pull: %w", err)
	}

	remoteDocs, err = o.tracker.FilterTombstoned(ctx, remoteDocs)
	if err != nil {
		return summary, err
	}

	o.setState(RunStateMatching)
	for _, rd := range remoteDocs {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if err := o.applyRemote(ctx, rd, summary); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, err)
			o.emit(rd.SyncID, models.OutcomeFailed, err)
		}
	}

	o.setState(RunStatePushing)
	if err := o.queue.Drain(ctx, o.processEntry(summary)); err != nil {
		summary.Errors = append(summary.Errors, err)
	}

	if err := o.store.SetMetadata(ctx, common.MetadataKeyLastSyncAt,
		[]byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
		summary.Errors = append(summary.Errors, err)
	}

	o.log.Info(ctx, "sync run finished",
		"uploaded", summary.Uploaded, "downloaded", summary.Downloaded,
		"deleted", summary.Deleted, "failed", summary.Failed)
	return summary, nil
}

// applyRemote reconciles one pulled document against local state.
func (o *Orchestrator) applyRemote(ctx context.Context, rd *models.Document, summary *models.SyncSummary) error {
	local, err := o.store.GetByIdentity(ctx, rd.SyncID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	res, err := o.matcher.Match(ctx, local, rd)
	if err != nil {
		return err
	}

	switch res.Decision {
	case DecisionSkip:
		o.emit(rd.SyncID, models.OutcomeSkipped, nil)
		return nil

	case DecisionCreateLocal:
		d := rd.Clone()
		d.SyncState = models.SyncStateSynced
		if err := o.store.InsertDocument(ctx, d); err != nil {
			return err
		}
		summary.Downloaded++
		o.emit(rd.SyncID, models.OutcomeDownloaded, nil)
		return nil

	case DecisionUpdateLocal:
		d := rd.Clone()
		d.SyncState = models.SyncStateSynced
		if local != nil {
			d.LocalID = local.LocalID
		}
		if err := o.store.UpsertDocument(ctx, d); err != nil {
			return err
		}
		summary.Downloaded++
		o.emit(rd.SyncID, models.OutcomeDownloaded, nil)
		return nil

	case DecisionAdoptIdentity:
		if err := o.store.AssignSyncID(ctx, res.AdoptedBy.LocalID, rd.SyncID); err != nil {
			return err
		}
		d := rd.Clone()
		d.LocalID = res.AdoptedBy.LocalID
		d.SyncState = models.SyncStateSynced
		if err := o.store.UpsertDocument(ctx, d); err != nil {
			return err
		}
		summary.Downloaded++
		o.emit(rd.SyncID, models.OutcomeDownloaded, nil)
		return nil

	case DecisionPushLocal:
		payload, err := json.Marshal(local)
		if err != nil {
			return err
		}
		if err := o.queue.Enqueue(ctx, local.SyncID, models.OperationUpdate, payload); err != nil {
			return err
		}
		return nil

	case DecisionConflict:
		o.setState(RunStateResolving)
		defer o.setState(RunStateMatching)
		resolved, err := Resolve(local, rd, o.strategy)
		if err != nil {
			return err
		}
		resolved.LocalID = local.LocalID
		if err := o.store.UpsertDocument(ctx, resolved); err != nil {
			return err
		}
		if resolved.SyncState == models.SyncStatePendingUpload {
			payload, err := json.Marshal(resolved)
			if err != nil {
				return err
			}
			if err := o.queue.Enqueue(ctx, resolved.SyncID, models.OperationUpdate, payload); err != nil {
				return err
			}
		}
		o.emit(rd.SyncID, models.OutcomeConflicted, nil)
		return nil

	case DecisionLeaveUnmatched:
		o.emit(rd.SyncID, models.OutcomeSkipped, nil)
		return nil

	default:
		return fmt.Errorf("apply: unknown decision %q", res.Decision)
	}
}

// processEntry returns the queue executor for one run, bound to its summary.
func (o *Orchestrator) processEntry(summary *models.SyncSummary) ProcessFunc {
	var mu stdsync.Mutex
	return func(ctx context.Context, e *models.QueueEntry) error {
		fail := func(err error) error {
			mu.Lock()
			summary.Failed++
			mu.Unlock()
			o.emit(e.SyncID, models.OutcomeFailed, err)
			return err
		}
		switch e.Kind {
		case models.OperationCreate, models.OperationUpdate:
			if err := o.pushDocument(ctx, e); err != nil {
				return fail(err)
			}
			mu.Lock()
			summary.Uploaded++
			mu.Unlock()
			o.emit(e.SyncID, models.OutcomeUploaded, nil)
			return nil

		case models.OperationDelete:
			if err := o.pushDelete(ctx, e); err != nil {
				return fail(err)
			}
			mu.Lock()
			summary.Deleted++
			mu.Unlock()
			o.emit(e.SyncID, models.OutcomeDeleted, nil)
			return nil

		default:
			return fail(fmt.Errorf("process: unknown operation %q", e.Kind))
		}
	}
}

// pushDocument uploads attachments then the document itself. A version
// conflict on put means the remote moved underneath us: the conflict is
// resolved in place and the put retried once with the resolved document.
func (o *Orchestrator) pushDocument(ctx context.Context, e *models.QueueEntry) error {
	doc, err := o.store.GetByIdentity(ctx, e.SyncID)
	if errors.Is(err, common.ErrNotFound) {
		// Row gone since enqueue; decode the snapshot so the remote
		// still converges.
		doc = &models.Document{}
		if jerr := json.Unmarshal(e.Payload, doc); jerr != nil {
			return fmt.Errorf("entry for %s: stale payload: %w", e.SyncID, common.ErrQueueCorruption)
		}
	} else if err != nil {
		return err
	}

	if err := o.store.SetSyncState(ctx, doc.SyncID, models.SyncStateUploading); err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}

	if err := o.uploadAttachments(ctx, doc); err != nil {
		return err
	}

	err = retryx.Do(ctx, o.policy, func(ctx context.Context) error {
		return o.remote.Put(ctx, doc)
	})
	if errors.Is(err, common.ErrVersionConflict) {
		doc, err = o.resolveAndRetryPut(ctx, doc)
	}
	if err != nil {
		return err
	}

	if serr := o.store.SetSyncState(ctx, doc.SyncID, models.SyncStateSynced); serr != nil && !errors.Is(serr, common.ErrNotFound) {
		return serr
	}
	return nil
}

func (o *Orchestrator) resolveAndRetryPut(ctx context.Context, doc *models.Document) (*models.Document, error) {
	rd, err := o.remote.Get(ctx, doc.OwnerID, doc.SyncID)
	if err != nil {
		return nil, fmt.Errorf("push %s: fetch after version conflict: %w", doc.SyncID, err)
	}
	resolved, err := Resolve(doc, rd, o.strategy)
	if err != nil {
		return nil, err
	}
	resolved.LocalID = doc.LocalID
	if err := o.store.UpsertDocument(ctx, resolved); err != nil {
		return nil, err
	}
	if resolved.SyncState != models.SyncStatePendingUpload {
		// keepRemote: the remote already holds the surviving version.
		return resolved, nil
	}
	err = retryx.Do(ctx, o.policy, func(ctx context.Context) error {
		return o.remote.Put(ctx, resolved)
	})
	if err != nil {
		return nil, fmt.Errorf("push %s after resolve: %w", doc.SyncID, err)
	}
	return resolved, nil
}

func (o *Orchestrator) uploadAttachments(ctx context.Context, doc *models.Document) error {
	for _, path := range doc.AttachedFilePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", path, err)
		}
		name := filepath.Base(path)
		key := blob.Key(doc.OwnerID, doc.SyncID, name)
		err = retryx.Do(ctx, o.policy, func(ctx context.Context) error {
			return o.blobs.Put(ctx, key, data)
		})
		if err != nil {
			return fmt.Errorf("attachment %s: %w", name, err)
		}
		att := &models.FileAttachment{
			DocumentSyncID: doc.SyncID,
			FileName:       name,
			LocalPath:      path,
			BlobKey:        key,
			Size:           int64(len(data)),
			Checksum:       blob.Checksum(data),
		}
		if err := o.store.UpsertAttachment(ctx, att); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) pushDelete(ctx context.Context, e *models.QueueEntry) error {
	doc, err := o.store.GetByIdentity(ctx, e.SyncID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	ownerID := o.store.OwnerID()

	err = retryx.Do(ctx, o.policy, func(ctx context.Context) error {
		derr := o.remote.Delete(ctx, ownerID, e.SyncID)
		if errors.Is(derr, common.ErrNotFound) {
			return nil
		}
		return derr
	})
	if err != nil {
		return err
	}

	if doc != nil {
		for _, name := range attachmentNames(doc) {
			key := blob.Key(ownerID, e.SyncID, name)
			if berr := o.blobs.Delete(ctx, key); berr != nil {
				o.log.Warn(ctx, "failed to delete attachment blob", "key", key, "err", berr)
			}
		}
	}

	if err := o.tracker.MarkDeleted(ctx, e.SyncID, ownerID, "", "user delete"); err != nil {
		return err
	}
	if err := o.store.DeleteDocumentCascade(ctx, e.SyncID); err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	return nil
}

func attachmentNames(doc *models.Document) []string {
	names := make([]string, 0, len(doc.AttachedFilePaths))
	for _, p := range doc.AttachedFilePaths {
		names = append(names, filepath.Base(p))
	}
	return names
}

// SyncDocument reconciles a single identity without a full run: pull the
// remote copy, match, apply, then flush any queued mutation for it. It also
// downloads attachment content, verifying recorded checksums.
func (o *Orchestrator) SyncDocument(ctx context.Context, syncID string) error {
	ownerID, err := o.idp.CurrentOwnerID(ctx)
	if err != nil {
		return err
	}

	tombstoned, err := o.tracker.IsTombstoned(ctx, syncID)
	if err != nil {
		return err
	}
	if tombstoned {
		return nil
	}

	var rd *models.Document
	err = retryx.Do(ctx, o.policy, func(ctx context.Context) error {
		var gerr error
		rd, gerr = o.remote.Get(ctx, ownerID, syncID)
		if errors.Is(gerr, common.ErrNotFound) {
			rd = nil
			return nil
		}
		return gerr
	})
	if err != nil {
		return err
	}

	if rd != nil {
		summary := &models.SyncSummary{}
		if err := o.applyRemote(ctx, rd, summary); err != nil {
			return err
		}
		if err := o.downloadAttachments(ctx, rd); err != nil {
			return err
		}
	}

	entries, err := o.queue.PendingFor(ctx, syncID)
	if err != nil {
		return err
	}
	process := o.processEntry(&models.SyncSummary{})
	for _, e := range entries {
		if err := o.queue.runEntry(ctx, e, process); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) downloadAttachments(ctx context.Context, doc *models.Document) error {
	names := attachmentNames(doc)
	if len(names) == 0 {
		return nil
	}
	dir, err := filex.EnsureDir(filepath.Join(o.attachDir, doc.SyncID))
	if err != nil {
		return err
	}

	recorded, err := o.store.AttachmentsFor(ctx, doc.SyncID)
	if err != nil {
		return err
	}
	checksums := make(map[string]string, len(recorded))
	for _, a := range recorded {
		checksums[a.FileName] = a.Checksum
	}

	for _, name := range names {
		key := blob.Key(doc.OwnerID, doc.SyncID, name)
		var data []byte
		err := retryx.Do(ctx, o.policy, func(ctx context.Context) error {
			var gerr error
			data, gerr = o.blobs.Get(ctx, key)
			return gerr
		})
		if err != nil {
			return fmt.Errorf("attachment %s: %w", name, err)
		}
		if want, ok := checksums[name]; ok && want != "" && blob.Checksum(data) != want {
			return fmt.Errorf("attachment %s: checksum mismatch", name)
		}
		local := filepath.Join(dir, name)
		if err := filex.WriteFileAtomic(local, data, 0o644); err != nil {
			return err
		}
		att := &models.FileAttachment{
			DocumentSyncID: doc.SyncID,
			FileName:       name,
			LocalPath:      local,
			BlobKey:        key,
			Size:           int64(len(data)),
			Checksum:       blob.Checksum(data),
		}
		if err := o.store.UpsertAttachment(ctx, att); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) emit(syncID string, outcome models.SyncOutcome, err error) {
	o.observer.Event(models.SyncEvent{
		SyncID:  syncID,
		Outcome: outcome,
		At:      time.Now().UTC(),
		Err:     err,
	})
}
