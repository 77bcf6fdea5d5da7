// Package models defines the data model of the sync core: documents, file
// attachments, tombstones, queued operations and conflicts.
package models

import "time"

// SyncState tracks where a document sits in its synchronization lifecycle.
type SyncState string

const (
	SyncStateNotSynced       SyncState = "notSynced"
	SyncStatePendingUpload   SyncState = "pendingUpload"
	SyncStateUploading       SyncState = "uploading"
	SyncStateSynced          SyncState = "synced"
	SyncStatePendingDownload SyncState = "pendingDownload"
	SyncStateDownloading     SyncState = "downloading"
	SyncStatePendingDeletion SyncState = "pendingDeletion"
	SyncStateConflict        SyncState = "conflict"
	SyncStateError           SyncState = "error"
)

// Document is the unit of synchronization.
//
// SyncID is assigned exactly once at creation and never changes afterwards;
// it is the matching key across every storage backend. Version strictly
// increases per identity on every committed mutation.
type Document struct {
	// LocalID is the local store row id. It exists only so pre-migration
	// rows without a sync identifier can still be addressed; nothing
	// outside the local store and the migrator may key on it.
	LocalID int64

	// SyncID is the immutable, globally unique identifier (UUID v4).
	// Empty only for pre-migration legacy rows.
	SyncID string

	// OwnerID identifies the authenticated principal; every query is
	// scoped by it.
	OwnerID string

	// User content fields.
	Title             string
	Category          string
	Notes             string
	AttachedFilePaths []string

	// RenewalDate is an optional reminder date carried on documents that
	// expire (insurance policies, subscriptions, ids).
	RenewalDate *time.Time

	// Version is the monotonically increasing mutation counter.
	Version int64

	// CreatedAt is the creation time; content-fallback matching compares
	// it within a small tolerance window.
	CreatedAt time.Time

	// LastModified is the wall-clock time of the mutation that produced
	// the current version.
	LastModified time.Time

	SyncState SyncState

	// ConflictRef references an open conflict record, empty when none.
	ConflictRef string
}

// Clone returns a deep copy, so matcher and resolver can build candidate
// documents without aliasing the caller's slices.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	c := *d
	if d.AttachedFilePaths != nil {
		c.AttachedFilePaths = append([]string(nil), d.AttachedFilePaths...)
	}
	if d.RenewalDate != nil {
		rd := *d.RenewalDate
		c.RenewalDate = &rd
	}
	return &c
}
