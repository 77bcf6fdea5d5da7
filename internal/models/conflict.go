package models

import "time"

// ConflictType names why two versions of the same identity diverged.
type ConflictType string

const (
	// ConflictConcurrentEdit: same version number, different modification
	// times (both sides edited from the same base).
	ConflictConcurrentEdit ConflictType = "concurrentEdit"

	// ConflictTimestampInversion: the side with the lower version carries
	// the more recent modification time (a change raced ahead of a sync).
	ConflictTimestampInversion ConflictType = "timestampInversion"
)

// Conflict is transient: it exists only between detection and resolution
// and is never persisted past resolution.
type Conflict struct {
	SyncID        string
	LocalVersion  int64
	RemoteVersion int64
	DetectedAt    time.Time
	Type          ConflictType
}
