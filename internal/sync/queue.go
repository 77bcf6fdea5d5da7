package sync

import (
	"context"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/mkarpins/docsync/internal/common"
	"github.com/mkarpins/docsync/internal/dbx"
	"github.com/mkarpins/docsync/internal/logging"
	"github.com/mkarpins/docsync/internal/models"
	"github.com/mkarpins/docsync/internal/repositories/queue"
	"github.com/mkarpins/docsync/internal/store"
)

const (
	// DefaultDrainParallelism bounds concurrent queue entry execution.
	DefaultDrainParallelism = 3

	// DefaultMaxAttempts is how many failed executions an entry survives
	// before its document is marked SyncStateError and the entry dropped.
	DefaultMaxAttempts = 5
)

// ProcessFunc executes one consolidated queue entry against the remote.
type ProcessFunc func(ctx context.Context, e *models.QueueEntry) error

// Queue consolidates pending mutations per document identity and drains
// them with bounded parallelism. At most one pending entry exists per
// identity at any time.
type Queue struct {
	store       *store.Store
	parallelism int64
	maxAttempts int
	log         logging.Logger
}

func NewQueue(s *store.Store, log logging.Logger) *Queue {
	if log == nil {
		log = logging.Nop{}
	}
	return &Queue{
		store:       s,
		parallelism: DefaultDrainParallelism,
		maxAttempts: DefaultMaxAttempts,
		log:         log,
	}
}

// SetParallelism overrides the drain concurrency bound. Values below 1
// are ignored.
func (q *Queue) SetParallelism(n int) {
	if n >= 1 {
		q.parallelism = int64(n)
	}
}

// SetMaxAttempts overrides the per-entry attempt budget. Values below 1
// are ignored.
func (q *Queue) SetMaxAttempts(n int) {
	if n >= 1 {
		q.maxAttempts = n
	}
}

// Enqueue records a mutation for the given identity, consolidating it
// with any entry already pending for that identity:
//
//   - delete supersedes whatever is pending,
//   - update on a pending create keeps the create kind with the new
//     payload, so the remote still sees a single create,
//   - update on a pending update replaces the payload,
//   - create over any pending entry is a caller bug and is rejected.
func (q *Queue) Enqueue(ctx context.Context, syncID string, kind models.OperationKind, payload []byte) error {
	if syncID == "" {
		return fmt.Errorf("enqueue: empty sync id")
	}
	return q.store.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := queue.NewSQLiteRepository(tx)
		pending, err := repo.PendingBySyncID(ctx, syncID)
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			return repo.Insert(ctx, &models.QueueEntry{
				SyncID:     syncID,
				Kind:       kind,
				Payload:    payload,
				EnqueuedAt: time.Now().UTC(),
			})
		}
		head := pending[0]
		switch kind {
		case models.OperationDelete:
			if err := repo.DeleteBySyncID(ctx, syncID); err != nil {
				return err
			}
			return repo.Insert(ctx, &models.QueueEntry{
				SyncID:     syncID,
				Kind:       models.OperationDelete,
				EnqueuedAt: time.Now().UTC(),
			})
		case models.OperationUpdate:
			if head.Kind == models.OperationDelete {
				return fmt.Errorf("enqueue: update for %s after pending delete", syncID)
			}
			// A pending create stays a create; the remote has never
			// seen this identity yet.
			return repo.UpdateEntry(ctx, head.ID, head.Kind, payload)
		case models.OperationCreate:
			return fmt.Errorf("enqueue: duplicate create for %s", syncID)
		default:
			return fmt.Errorf("enqueue: unknown operation %q", kind)
		}
	})
}

// Pending returns the consolidated entries in enqueue order.
func (q *Queue) Pending(ctx context.Context) ([]*models.QueueEntry, error) {
	var entries []*models.QueueEntry
	err := q.store.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		entries, err = queue.NewSQLiteRepository(db).ListPending(ctx)
		return err
	})
	return entries, err
}

// PendingFor returns the consolidated entries for a single identity.
func (q *Queue) PendingFor(ctx context.Context, syncID string) ([]*models.QueueEntry, error) {
	var entries []*models.QueueEntry
	err := q.store.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		entries, err = queue.NewSQLiteRepository(db).PendingBySyncID(ctx, syncID)
		return err
	})
	return entries, err
}

// Drain executes every pending entry through process with bounded
// parallelism. Entries that succeed are removed; entries that fail have
// their attempt count raised and stay queued until the budget runs out,
// at which point the document is marked SyncStateError and the entry is
// dropped. Corrupt entries are quarantined in place. Context
// cancellation stops the drain between entries.
func (q *Queue) Drain(ctx context.Context, process ProcessFunc) error {
	entries, err := q.Pending(ctx)
	if err != nil {
		return fmt.Errorf("drain: %w", err)
	}

	sem := semaphore.NewWeighted(q.parallelism)
	var wg stdsync.WaitGroup
	var mu stdsync.Mutex
	var errs []error

	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	for _, e := range entries {
		if err := sem.Acquire(ctx, 1); err != nil {
			record(err)
			break
		}
		wg.Add(1)
		go func(e *models.QueueEntry) {
			defer sem.Release(1)
			defer wg.Done()
			if err := q.runEntry(ctx, e, process); err != nil {
				record(err)
			}
		}(e)
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (q *Queue) runEntry(ctx context.Context, e *models.QueueEntry, process ProcessFunc) error {
	if err := validateEntry(e); err != nil {
		q.log.Error(ctx, "quarantining corrupt queue entry", "id", e.ID, "syncId", e.SyncID, "err", err)
		if qerr := q.quarantine(ctx, e.ID); qerr != nil {
			return qerr
		}
		return err
	}

	err := process(ctx, e)
	if err == nil {
		return q.remove(ctx, e.ID)
	}
	if ctx.Err() != nil {
		// Interrupted, not failed; the entry stays for the next run
		// with its attempt count untouched.
		return err
	}

	e.Attempts++
	if e.Attempts >= q.maxAttempts {
		q.log.Error(ctx, "queue entry exhausted attempt budget", "syncId", e.SyncID, "attempts", e.Attempts, "err", err)
		if serr := q.store.SetSyncState(ctx, e.SyncID, models.SyncStateError); serr != nil {
			return errors.Join(err, serr)
		}
		if derr := q.remove(ctx, e.ID); derr != nil {
			return errors.Join(err, derr)
		}
		return fmt.Errorf("entry for %s: %w", e.SyncID, common.ErrRetryBudgetExhausted)
	}

	if ierr := q.bumpAttempts(ctx, e.ID); ierr != nil {
		return errors.Join(err, ierr)
	}
	return err
}

func validateEntry(e *models.QueueEntry) error {
	switch e.Kind {
	case models.OperationCreate, models.OperationUpdate:
		if len(e.Payload) == 0 {
			return fmt.Errorf("entry %d: %s without payload: %w", e.ID, e.Kind, common.ErrQueueCorruption)
		}
	case models.OperationDelete:
	default:
		return fmt.Errorf("entry %d: unknown operation %q: %w", e.ID, e.Kind, common.ErrQueueCorruption)
	}
	if e.SyncID == "" {
		return fmt.Errorf("entry %d: missing sync id: %w", e.ID, common.ErrQueueCorruption)
	}
	return nil
}

func (q *Queue) remove(ctx context.Context, id int64) error {
	return q.store.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return queue.NewSQLiteRepository(tx).Delete(ctx, id)
	})
}

func (q *Queue) bumpAttempts(ctx context.Context, id int64) error {
	return q.store.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return queue.NewSQLiteRepository(tx).IncrementAttempts(ctx, id)
	})
}

func (q *Queue) quarantine(ctx context.Context, id int64) error {
	return q.store.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return queue.NewSQLiteRepository(tx).Quarantine(ctx, id)
	})
}
