package models

import "time"

// SyncOutcome classifies what happened to a single document during a run.
type SyncOutcome string

const (
	OutcomeUploaded   SyncOutcome = "uploaded"
	OutcomeDownloaded SyncOutcome = "downloaded"
	OutcomeDeleted    SyncOutcome = "deleted"
	OutcomeConflicted SyncOutcome = "conflicted"
	OutcomeSkipped    SyncOutcome = "skipped"
	OutcomeFailed     SyncOutcome = "failed"
)

// SyncEvent is a per-item record handed to the orchestrator's observer at
// defined lifecycle points. It replaces any global event accumulator.
type SyncEvent struct {
	SyncID  string
	Outcome SyncOutcome
	At      time.Time
	Err     error
}

// SyncSummary is emitted at the end of a sync run.
type SyncSummary struct {
	Uploaded   int
	Downloaded int
	Deleted    int
	Failed     int
	Errors     []error
	Duration   time.Duration
}
