// Package attachments persists file-attachment rows, keyed by the parent
// document's sync identifier.
package attachments

import (
	"context"

	"github.com/mkarpins/docsync/internal/models"
)

type Repository interface {
	Upsert(ctx context.Context, a *models.FileAttachment) error
	ListByDocument(ctx context.Context, documentSyncID string) ([]*models.FileAttachment, error)
	DeleteByDocument(ctx context.Context, documentSyncID string) error
}
