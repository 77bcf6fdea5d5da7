package models

import "time"

// Tombstone is a persistent deletion marker keyed by sync identifier. It
// lives independently of the document row so a delete survives even if the
// document disappears from the primary table, and it is what prevents a
// deleted document from being resurrected by a later pull.
type Tombstone struct {
	SyncID    string
	OwnerID   string
	DeletedBy string
	DeletedAt time.Time
	Reason    string
}
