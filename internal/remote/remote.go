// Package remote is the client of the remote document store: a collection
// partitioned by owner and keyed by sync identifier, with optimistic
// concurrency on the document version. The concrete transport lives behind
// the Store interface; the sync core never touches wire payloads.
package remote

import (
	"context"

	"github.com/mkarpins/docsync/internal/models"
)

// Store is the remote document collection.
//
// Put applies optimistic concurrency: a put whose version is not newer than
// the stored one fails with common.ErrVersionConflict and must be resolved
// before retry. Transient transport failures are reported as
// common.ErrTransientNetwork so callers can apply the retry policy.
type Store interface {
	Put(ctx context.Context, d *models.Document) error
	Get(ctx context.Context, ownerID, syncID string) (*models.Document, error)
	Delete(ctx context.Context, ownerID, syncID string) error
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Document, error)
}
