package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mkarpins/docsync/internal/common"
	"github.com/mkarpins/docsync/internal/idx"
	"github.com/mkarpins/docsync/internal/identity"
	"github.com/mkarpins/docsync/internal/logging"
	"github.com/mkarpins/docsync/internal/models"
	"github.com/mkarpins/docsync/internal/remote"
	"github.com/mkarpins/docsync/internal/store"
)

// Migrator assigns sync identifiers to documents created before the sync
// feature existed. It runs once per owner: a completion flag in the
// metadata table keeps finished stores from being rescanned.
//
// For each unidentified document the migrator first tries to recover an
// identity from the remote side by content match, so a user who already
// synced from another device does not end up with duplicates. Only when no
// remote counterpart exists is a fresh identifier generated.
type Migrator struct {
	store     *store.Store
	queue     *Queue
	remote    remote.Store
	idp       identity.Provider
	tolerance time.Duration
	log       logging.Logger
}

func NewMigrator(s *store.Store, q *Queue, r remote.Store, idp identity.Provider, log logging.Logger) *Migrator {
	if log == nil {
		log = logging.Nop{}
	}
	return &Migrator{
		store:     s,
		queue:     q,
		remote:    r,
		idp:       idp,
		tolerance: DefaultContentMatchTolerance,
		log:       log,
	}
}

// Run performs the migration if it has not completed yet. Individual
// document failures do not abort the scan; the completion flag is only set
// on a fully clean pass, so the next run resumes with whatever is left.
func (m *Migrator) Run(ctx context.Context) error {
	done, err := m.store.GetMetadata(ctx, common.MetadataKeyMigrationDone)
	if err != nil {
		return err
	}
	if done != nil {
		return nil
	}

	pending, err := m.store.ListUnidentified(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return m.finish(ctx)
	}

	ownerID, err := m.idp.CurrentOwnerID(ctx)
	if err != nil {
		if errors.Is(err, common.ErrUnauthenticated) {
			// Identity recovery needs the remote collection; retry on a
			// later run once the user signed in.
			m.log.Info(ctx, "migration deferred until authenticated", "pending", len(pending))
			return nil
		}
		return err
	}

	remoteDocs, err := m.remote.ListByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("migration: %w", err)
	}

	var errs []error
	for _, doc := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := m.migrateOne(ctx, doc, remoteDocs); err != nil {
			m.log.Warn(ctx, "migration failed for document", "localId", doc.LocalID, "title", doc.Title, "err", err)
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return m.finish(ctx)
}

func (m *Migrator) migrateOne(ctx context.Context, doc *models.Document, remoteDocs []*models.Document) error {
	match, err := m.findRemoteCounterpart(doc, remoteDocs)
	if err != nil {
		return err
	}

	if match != nil {
		if err := m.store.AssignSyncID(ctx, doc.LocalID, match.SyncID); err != nil {
			return err
		}
		adopted := match.Clone()
		adopted.LocalID = doc.LocalID
		adopted.SyncState = models.SyncStateSynced
		if err := m.store.UpsertDocument(ctx, adopted); err != nil {
			return err
		}
		m.log.Debug(ctx, "recovered identity from remote", "syncId", match.SyncID, "title", doc.Title)
		return nil
	}

	syncID := idx.Generate()
	if err := m.store.AssignSyncID(ctx, doc.LocalID, syncID); err != nil {
		return err
	}
	doc.SyncID = syncID
	doc.Version = 1
	doc.SyncState = models.SyncStateNotSynced
	if err := m.store.UpsertDocument(ctx, doc); err != nil {
		return err
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return m.queue.Enqueue(ctx, syncID, models.OperationCreate, payload)
}

// findRemoteCounterpart looks for exactly one remote document with the same
// content identity. Two or more candidates is ambiguity and is surfaced,
// not guessed at.
func (m *Migrator) findRemoteCounterpart(doc *models.Document, remoteDocs []*models.Document) (*models.Document, error) {
	var found *models.Document
	for _, rd := range remoteDocs {
		if rd.Title != doc.Title || rd.Category != doc.Category {
			continue
		}
		delta := rd.CreatedAt.Sub(doc.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta > m.tolerance {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("document %q: %w", doc.Title, common.ErrAmbiguousMatch)
		}
		found = rd
	}
	return found, nil
}

func (m *Migrator) finish(ctx context.Context) error {
	stamp := time.Now().UTC().Format(time.RFC3339)
	if err := m.store.SetMetadata(ctx, common.MetadataKeyMigrationDone, []byte(stamp)); err != nil {
		return err
	}
	m.log.Info(ctx, "identifier migration complete")
	return nil
}
