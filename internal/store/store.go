// Package store is the durable local store: a single-writer facade over the
// documents, attachments, tombstones, queue and metadata tables. It owns the
// database handle; all multi-row mutations run inside one transaction and
// roll back fully on failure.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/mkarpins/docsync/internal/dbx"
	"github.com/mkarpins/docsync/internal/logging"
	"github.com/mkarpins/docsync/internal/migrations"
	"github.com/mkarpins/docsync/internal/models"
	"github.com/mkarpins/docsync/internal/repositories/attachments"
	"github.com/mkarpins/docsync/internal/repositories/documents"
	"github.com/mkarpins/docsync/internal/repositories/metadata"
	"github.com/mkarpins/docsync/internal/repositories/queue"

	"github.com/mkarpins/docsync/internal/common"
)

// Store serializes access to the on-disk database. Readers may proceed
// concurrently with other readers but never with a writer; an owner switch
// is itself exclusive and waits for in-flight operations to finish.
type Store struct {
	mu      sync.RWMutex
	db      *sql.DB
	dir     string
	ownerID string
	log     logging.Logger
}

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (creating if needed) the per-owner database under dir and
// applies migrations. Each owner identity gets its own database file.
func Open(ctx context.Context, dir, ownerID string, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Nop{}
	}
	s := &Store{dir: dir, log: log}
	if err := s.open(ctx, ownerID); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) open(ctx context.Context, ownerID string) error {
	dsn := filepath.Join(s.dir, fmt.Sprintf("docsync-%s.db", ownerID))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	// The single-writer discipline lives in s.mu, not in the pool.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = db
	s.ownerID = ownerID
	return nil
}

// OwnerID returns the identity whose database is currently open.
func (s *Store) OwnerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ownerID
}

// SwitchOwner closes the current database and opens the one belonging to
// ownerID. It waits for in-flight operations; none are aborted mid-flight.
func (s *Store) SwitchOwner(ctx context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ownerID == ownerID && s.db != nil {
		return nil
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("failed to close local store: %w", err)
		}
		s.db = nil
	}
	return s.open(ctx, ownerID)
}

// Close waits for in-flight operations and closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Read runs fn with shared access and no transaction.
func (s *Store) Read(ctx context.Context, fn func(ctx context.Context, db dbx.DBTX) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return common.ErrStoreClosed
	}
	return fn(ctx, s.db)
}

// Write runs fn with exclusive access inside a single transaction; on error
// the whole transaction rolls back.
func (s *Store) Write(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return common.ErrStoreClosed
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

// UpsertDocument inserts or replaces a document row by identity.
func (s *Store) UpsertDocument(ctx context.Context, d *models.Document) error {
	return s.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return documents.NewSQLiteRepository(tx).Upsert(ctx, d)
	})
}

// InsertDocument adds a new document row; inserting an identity that
// already exists for this owner fails with common.ErrDuplicateIdentity.
func (s *Store) InsertDocument(ctx context.Context, d *models.Document) error {
	return s.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return documents.NewSQLiteRepository(tx).Insert(ctx, d)
	})
}

// GetByIdentity returns the owner's document with the given sync id.
func (s *Store) GetByIdentity(ctx context.Context, syncID string) (*models.Document, error) {
	var d *models.Document
	err := s.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		d, err = documents.NewSQLiteRepository(db).GetBySyncID(ctx, s.ownerID, syncID)
		return err
	})
	return d, err
}

// ListAll returns every document owned by the active identity.
func (s *Store) ListAll(ctx context.Context) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		docs, err = documents.NewSQLiteRepository(db).ListByOwner(ctx, s.ownerID)
		return err
	})
	return docs, err
}

// ListByOwnerAndState returns the owner's documents in the given sync state.
func (s *Store) ListByOwnerAndState(ctx context.Context, state models.SyncState) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		docs, err = documents.NewSQLiteRepository(db).ListByOwnerAndState(ctx, s.ownerID, state)
		return err
	})
	return docs, err
}

// ListUnidentified returns pre-migration rows lacking a sync id.
func (s *Store) ListUnidentified(ctx context.Context) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		docs, err = documents.NewSQLiteRepository(db).ListUnidentified(ctx, s.ownerID)
		return err
	})
	return docs, err
}

// FindByContent returns content-fallback match candidates.
func (s *Store) FindByContent(ctx context.Context, title, category string) ([]*models.Document, error) {
	var docs []*models.Document
	err := s.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		docs, err = documents.NewSQLiteRepository(db).FindByContent(ctx, s.ownerID, title, category)
		return err
	})
	return docs, err
}

// AssignSyncID stamps an identifier onto a legacy row.
func (s *Store) AssignSyncID(ctx context.Context, localID int64, syncID string) error {
	return s.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return documents.NewSQLiteRepository(tx).AssignSyncID(ctx, localID, syncID)
	})
}

// SetSyncState updates the sync state of one document.
func (s *Store) SetSyncState(ctx context.Context, syncID string, state models.SyncState) error {
	return s.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return documents.NewSQLiteRepository(tx).SetSyncState(ctx, s.ownerID, syncID, state)
	})
}

// SetConflictRef updates the conflict reference of one document.
func (s *Store) SetConflictRef(ctx context.Context, syncID, ref string) error {
	return s.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return documents.NewSQLiteRepository(tx).SetConflictRef(ctx, s.ownerID, syncID, ref)
	})
}

// UpsertAttachment inserts or replaces an attachment record.
func (s *Store) UpsertAttachment(ctx context.Context, a *models.FileAttachment) error {
	return s.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return attachments.NewSQLiteRepository(tx).Upsert(ctx, a)
	})
}

// AttachmentsFor lists the attachments of one document.
func (s *Store) AttachmentsFor(ctx context.Context, syncID string) ([]*models.FileAttachment, error) {
	var atts []*models.FileAttachment
	err := s.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		atts, err = attachments.NewSQLiteRepository(db).ListByDocument(ctx, syncID)
		return err
	})
	return atts, err
}

// DeleteDocumentCascade removes the document, its attachments and any
// queued operations for it in a single transaction. Tombstone creation is
// the tracker's job and happens through the caller.
func (s *Store) DeleteDocumentCascade(ctx context.Context, syncID string) error {
	return s.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		if err := attachments.NewSQLiteRepository(tx).DeleteByDocument(ctx, syncID); err != nil {
			return err
		}
		if err := queue.NewSQLiteRepository(tx).DeleteBySyncID(ctx, syncID); err != nil {
			return err
		}
		return documents.NewSQLiteRepository(tx).DeleteBySyncID(ctx, s.ownerID, syncID)
	})
}

// GetMetadata reads a bookkeeping value; nil means absent.
func (s *Store) GetMetadata(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.Read(ctx, func(ctx context.Context, db dbx.DBTX) error {
		var err error
		v, err = metadata.NewSQLiteRepository(db).Get(ctx, key)
		return err
	})
	return v, err
}

// SetMetadata writes a bookkeeping value.
func (s *Store) SetMetadata(ctx context.Context, key string, value []byte) error {
	return s.Write(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Set(ctx, key, value)
	})
}
