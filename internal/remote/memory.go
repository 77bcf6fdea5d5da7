package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mkarpins/docsync/internal/common"
	"github.com/mkarpins/docsync/internal/models"
)

// MemoryStore is an in-memory Store with the same optimistic-concurrency
// semantics as the DynamoDB implementation. Used in tests and as a second
// device stand-in.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]map[string]*models.Document

	// Hook, when set, runs before every operation and can inject
	// failures. op is one of put/get/delete/list.
	Hook func(op, syncID string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]map[string]*models.Document)}
}

func (s *MemoryStore) hook(op, syncID string) error {
	if s.Hook != nil {
		return s.Hook(op, syncID)
	}
	return nil
}

func (s *MemoryStore) Put(ctx context.Context, d *models.Document) error {
	if err := s.hook("put", d.SyncID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := s.docs[d.OwnerID]
	if owned == nil {
		owned = make(map[string]*models.Document)
		s.docs[d.OwnerID] = owned
	}
	if existing, ok := owned[d.SyncID]; ok && existing.Version >= d.Version {
		return fmt.Errorf("put %s: %w", d.SyncID, common.ErrVersionConflict)
	}
	owned[d.SyncID] = d.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, ownerID, syncID string) (*models.Document, error) {
	if err := s.hook("get", syncID); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.docs[ownerID][syncID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return d.Clone(), nil
}

func (s *MemoryStore) Delete(ctx context.Context, ownerID, syncID string) error {
	if err := s.hook("delete", syncID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs[ownerID], syncID)
	return nil
}

func (s *MemoryStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error) {
	if err := s.hook("list", ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.Document
	for _, d := range s.docs[ownerID] {
		result = append(result, d.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].SyncID < result[j].SyncID })
	return result, nil
}
