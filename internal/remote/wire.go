package remote

import (
	"time"

	"github.com/mkarpins/docsync/internal/models"
)

// wireDocument is the serialization boundary with the remote collection.
// Field names match the remote schema; everything past this struct is the
// strongly-typed core model.
type wireDocument struct {
	OwnerID      string     `dynamodbav:"ownerId"`
	SyncID       string     `dynamodbav:"syncId"`
	Title        string     `dynamodbav:"title,omitempty"`
	Category     string     `dynamodbav:"category,omitempty"`
	Notes        string     `dynamodbav:"notes,omitempty"`
	FilePaths    []string   `dynamodbav:"filePaths,omitempty"`
	RenewalDate  *time.Time `dynamodbav:"renewalDate,omitempty"`
	Version      int64      `dynamodbav:"version"`
	CreatedAt    time.Time  `dynamodbav:"createdAt"`
	LastModified time.Time  `dynamodbav:"lastModified"`
}

func toWire(d *models.Document) *wireDocument {
	return &wireDocument{
		OwnerID:      d.OwnerID,
		SyncID:       d.SyncID,
		Title:        d.Title,
		Category:     d.Category,
		Notes:        d.Notes,
		FilePaths:    d.AttachedFilePaths,
		RenewalDate:  d.RenewalDate,
		Version:      d.Version,
		CreatedAt:    d.CreatedAt,
		LastModified: d.LastModified,
	}
}

func fromWire(w *wireDocument) *models.Document {
	return &models.Document{
		OwnerID:           w.OwnerID,
		SyncID:            w.SyncID,
		Title:             w.Title,
		Category:          w.Category,
		Notes:             w.Notes,
		AttachedFilePaths: w.FilePaths,
		RenewalDate:       w.RenewalDate,
		Version:           w.Version,
		CreatedAt:         w.CreatedAt,
		LastModified:      w.LastModified,
		SyncState:         models.SyncStateSynced,
	}
}
