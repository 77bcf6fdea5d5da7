package common

// Metadata keys persisted in the local metadata table.
const (
	// MetadataKeyMigrationDone marks that the one-time identifier migration
	// finished for the active owner.
	MetadataKeyMigrationDone = "migration_done"

	// MetadataKeyLastSyncAt stores the RFC3339 timestamp of the last
	// successful sync run.
	MetadataKeyLastSyncAt = "last_sync_at"
)
