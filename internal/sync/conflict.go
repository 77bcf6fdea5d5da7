package sync

import (
	"fmt"
	"time"

	"github.com/mkarpins/docsync/internal/models"
)

// Strategy selects how a detected conflict is resolved.
type Strategy string

const (
	StrategyKeepLocal  Strategy = "keepLocal"
	StrategyKeepRemote Strategy = "keepRemote"
	StrategyMerge      Strategy = "merge"
)

// noteSeparator joins both sides' notes when a merge keeps them both.
const noteSeparator = "\n----\n"

// DetectConflict decides whether two versions of the same identity
// diverged. The predicate is symmetric: swapping the arguments never
// changes whether a conflict is reported.
//
// Rules:
//   - same version, same modification time: in sync, no conflict
//   - same version, different modification time: concurrent edits
//   - different versions where the lower-version side was modified more
//     recently: a change raced ahead of a sync, conflict
//   - otherwise the higher version is ordinary forward progress
func DetectConflict(l, r *models.Document) (*models.Conflict, bool) {
	if l.Version == r.Version {
		if l.LastModified.Equal(r.LastModified) {
			return nil, false
		}
		return &models.Conflict{
			SyncID:        l.SyncID,
			LocalVersion:  l.Version,
			RemoteVersion: r.Version,
			DetectedAt:    time.Now().UTC(),
			Type:          models.ConflictConcurrentEdit,
		}, true
	}

	lo, hi := l, r
	if l.Version > r.Version {
		lo, hi = r, l
	}
	if lo.LastModified.After(hi.LastModified) {
		return &models.Conflict{
			SyncID:        l.SyncID,
			LocalVersion:  l.Version,
			RemoteVersion: r.Version,
			DetectedAt:    time.Now().UTC(),
			Type:          models.ConflictTimestampInversion,
		}, true
	}
	return nil, false
}

// Resolve produces the surviving document for a conflict between local and
// remote. The result always preserves the shared sync identifier, clears
// the conflict reference, and is re-queued for push (sync state
// pendingUpload) except keepRemote, which is already the remote truth and
// becomes synced.
func Resolve(local, remote *models.Document, strategy Strategy) (*models.Document, error) {
	if local.SyncID != remote.SyncID {
		return nil, fmt.Errorf("resolve: identity mismatch %s vs %s", local.SyncID, remote.SyncID)
	}

	next := local.Version
	if remote.Version > next {
		next = remote.Version
	}
	next++

	var result *models.Document
	switch strategy {
	case StrategyKeepLocal:
		result = local.Clone()
		result.Version = next
		result.SyncState = models.SyncStatePendingUpload

	case StrategyKeepRemote:
		result = remote.Clone()
		result.SyncState = models.SyncStateSynced

	case StrategyMerge:
		result = mergeDocuments(local, remote)
		result.Version = next
		result.SyncState = models.SyncStatePendingUpload

	default:
		return nil, fmt.Errorf("resolve: unknown strategy %q", strategy)
	}

	result.ConflictRef = ""
	return result, nil
}

// mergeDocuments builds a new document from two divergent versions: scalar
// fields from the side modified later, attachment lists unioned, notes
// joined with a visible separator when both sides carry distinct non-empty
// text.
func mergeDocuments(local, remote *models.Document) *models.Document {
	later, earlier := local, remote
	if remote.LastModified.After(local.LastModified) {
		later, earlier = remote, local
	}

	merged := later.Clone()
	merged.OwnerID = local.OwnerID
	merged.AttachedFilePaths = unionPaths(later.AttachedFilePaths, earlier.AttachedFilePaths)
	merged.Notes = mergeNotes(later.Notes, earlier.Notes)
	if merged.RenewalDate == nil {
		merged.RenewalDate = earlier.RenewalDate
	}
	merged.LastModified = time.Now().UTC()
	return merged
}

func unionPaths(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var union []string
	for _, paths := range [][]string{a, b} {
		for _, p := range paths {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			union = append(union, p)
		}
	}
	return union
}

func mergeNotes(later, earlier string) string {
	if earlier == "" || earlier == later {
		return later
	}
	if later == "" {
		return earlier
	}
	return later + noteSeparator + earlier
}
