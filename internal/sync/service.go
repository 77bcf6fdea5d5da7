package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mkarpins/docsync/internal/common"
	"github.com/mkarpins/docsync/internal/idx"
	"github.com/mkarpins/docsync/internal/logging"
	"github.com/mkarpins/docsync/internal/models"
	"github.com/mkarpins/docsync/internal/store"
)

// Service is the local mutation API. Every mutation lands in the store and
// the queue atomically from the caller's point of view; the actual network
// push happens on the next sync run.
type Service struct {
	store *store.Store
	queue *Queue
	log   logging.Logger
}

func NewService(s *store.Store, q *Queue, log logging.Logger) *Service {
	if log == nil {
		log = logging.Nop{}
	}
	return &Service{store: s, queue: q, log: log}
}

// Add stores a new document. The sync identifier is generated here, once,
// and never changes afterwards.
func (s *Service) Add(ctx context.Context, d *models.Document) error {
	if d.Title == "" {
		return fmt.Errorf("add: %w: empty title", common.ErrInvalidFormat)
	}
	d.SyncID = idx.Generate()
	d.OwnerID = s.store.OwnerID()
	d.Version = 1
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.LastModified = now
	d.SyncState = models.SyncStatePendingUpload

	if err := s.store.InsertDocument(ctx, d); err != nil {
		return err
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	if err := s.queue.Enqueue(ctx, d.SyncID, models.OperationCreate, payload); err != nil {
		return err
	}
	s.log.Debug(ctx, "document added", "syncId", d.SyncID, "title", d.Title)
	return nil
}

// Update applies caller-edited fields to an existing document, bumps the
// version and queues the push. The stored version is authoritative; the
// caller's copy of it is ignored.
func (s *Service) Update(ctx context.Context, d *models.Document) error {
	if !idx.Validate(d.SyncID) {
		return fmt.Errorf("update: %w: %q", common.ErrInvalidFormat, d.SyncID)
	}
	current, err := s.store.GetByIdentity(ctx, d.SyncID)
	if err != nil {
		return err
	}

	d.LocalID = current.LocalID
	d.OwnerID = current.OwnerID
	d.CreatedAt = current.CreatedAt
	d.Version = current.Version + 1
	d.LastModified = time.Now().UTC()
	d.SyncState = models.SyncStatePendingUpload

	if err := s.store.UpsertDocument(ctx, d); err != nil {
		return err
	}
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.queue.Enqueue(ctx, d.SyncID, models.OperationUpdate, payload)
}

// Delete marks the document for deletion and queues it. The row survives
// in state pendingDeletion until the delete reaches the remote, at which
// point it is tombstoned and removed.
func (s *Service) Delete(ctx context.Context, syncID string) error {
	if !idx.Validate(syncID) {
		return fmt.Errorf("delete: %w: %q", common.ErrInvalidFormat, syncID)
	}
	if _, err := s.store.GetByIdentity(ctx, syncID); err != nil {
		return err
	}
	if err := s.store.SetSyncState(ctx, syncID, models.SyncStatePendingDeletion); err != nil {
		return err
	}
	return s.queue.Enqueue(ctx, syncID, models.OperationDelete, nil)
}

// Get returns one document by identity.
func (s *Service) Get(ctx context.Context, syncID string) (*models.Document, error) {
	id, err := idx.Normalize(syncID)
	if err != nil {
		return nil, err
	}
	return s.store.GetByIdentity(ctx, id)
}

// List returns every document for the current owner.
func (s *Service) List(ctx context.Context) ([]*models.Document, error) {
	return s.store.ListAll(ctx)
}
