package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/mkarpins/docsync/internal/common"
	"github.com/mkarpins/docsync/internal/logging"
	"github.com/mkarpins/docsync/internal/models"
	"github.com/mkarpins/docsync/internal/store"
)

// DefaultContentMatchTolerance bounds how far apart creation times may be
// for two documents to content-match.
const DefaultContentMatchTolerance = 5 * time.Second

// MatchDecision is the outcome of comparing one local and one remote
// snapshot believed to represent the same logical entity. The caller
// performs storage and network I/O based on the decision.
type MatchDecision int

const (
	// DecisionSkip means nothing to do: the snapshots are in sync, or the
	// remote document is tombstoned locally and must not be recreated.
	DecisionSkip MatchDecision = iota

	// DecisionCreateLocal means the remote document has no local
	// counterpart and should be created locally with the remote identity.
	DecisionCreateLocal

	// DecisionUpdateLocal means the remote side made ordinary forward
	// progress and should replace the local copy.
	DecisionUpdateLocal

	// DecisionPushLocal means the local side is ahead and its state
	// should be queued for upload.
	DecisionPushLocal

	// DecisionConflict means both sides diverged; the conflict resolver
	// must run before either side propagates.
	DecisionConflict

	// DecisionAdoptIdentity means an unidentified local document
	// content-matched the remote snapshot and should adopt its identity.
	DecisionAdoptIdentity

	// DecisionLeaveUnmatched means content matching found more than one
	// plausible candidate; the document stays notSynced for manual
	// resolution.
	DecisionLeaveUnmatched
)

// MatchResult carries the decision plus whatever the decision needs: the
// detected conflict, or the legacy local document adopting an identity.
type MatchResult struct {
	Decision MatchDecision
	Conflict *models.Conflict

	// AdoptedBy is the unidentified local document that content-matched
	// the remote snapshot (DecisionAdoptIdentity only).
	AdoptedBy *models.Document
}

// Matcher reconciles local and remote document snapshots. Identity-first:
// content-based correlation exists only to bridge pre-identifier legacy
// data and is deliberately conservative.
type Matcher struct {
	store     *store.Store
	tracker   *TombstoneTracker
	tolerance time.Duration
	log       logging.Logger
}

func NewMatcher(s *store.Store, tracker *TombstoneTracker, log logging.Logger) *Matcher {
	if log == nil {
		log = logging.Nop{}
	}
	return &Matcher{store: s, tracker: tracker, tolerance: DefaultContentMatchTolerance, log: log}
}

// Match compares a local document (may be nil) with a remote snapshot
// (may be nil). An ambiguous content match returns DecisionLeaveUnmatched
// together with common.ErrAmbiguousMatch.
func (m *Matcher) Match(ctx context.Context, local, remote *models.Document) (MatchResult, error) {
	switch {
	case local == nil && remote == nil:
		return MatchResult{Decision: DecisionSkip}, nil

	case local != nil && remote != nil && local.SyncID != "" && local.SyncID == remote.SyncID:
		return m.matchByVersion(local, remote), nil

	case local == nil:
		return m.matchRemoteOnly(ctx, remote)

	case remote == nil:
		// No remote counterpart found by identity: local state needs to
		// be pushed.
		return MatchResult{Decision: DecisionPushLocal}, nil

	default:
		return MatchResult{}, fmt.Errorf("match: identity mismatch %q vs %q", local.SyncID, remote.SyncID)
	}
}

func (m *Matcher) matchByVersion(local, remote *models.Document) MatchResult {
	if c, conflicted := DetectConflict(local, remote); conflicted {
		return MatchResult{Decision: DecisionConflict, Conflict: c}
	}
	switch {
	case remote.Version > local.Version:
		return MatchResult{Decision: DecisionUpdateLocal}
	case local.Version > remote.Version:
		return MatchResult{Decision: DecisionPushLocal}
	default:
		return MatchResult{Decision: DecisionSkip}
	}
}

// matchRemoteOnly handles a remote snapshot with no local counterpart by
// identity. A tombstoned identity is dropped, never recreated. Otherwise a
// conservative content fallback may attach the snapshot to a pre-migration
// local document.
func (m *Matcher) matchRemoteOnly(ctx context.Context, remote *models.Document) (MatchResult, error) {
	tombstoned, err := m.tracker.IsTombstoned(ctx, remote.SyncID)
	if err != nil {
		return MatchResult{}, err
	}
	if tombstoned {
		return MatchResult{Decision: DecisionSkip}, nil
	}

	candidates, err := m.contentCandidates(ctx, remote)
	if err != nil {
		return MatchResult{}, err
	}
	switch len(candidates) {
	case 0:
		return MatchResult{Decision: DecisionCreateLocal}, nil
	case 1:
		return MatchResult{Decision: DecisionAdoptIdentity, AdoptedBy: candidates[0]}, nil
	default:
		m.log.Warn(ctx, "ambiguous content match, leaving documents unmatched",
			"sync_id", remote.SyncID, "title", remote.Title, "candidates", len(candidates))
		return MatchResult{Decision: DecisionLeaveUnmatched},
			fmt.Errorf("match %s: %d candidates: %w", remote.SyncID, len(candidates), common.ErrAmbiguousMatch)
	}
}

// contentCandidates returns unidentified local documents sharing owner,
// title and category with the remote snapshot, created within the
// tolerance window.
func (m *Matcher) contentCandidates(ctx context.Context, remote *models.Document) ([]*models.Document, error) {
	found, err := m.store.FindByContent(ctx, remote.Title, remote.Category)
	if err != nil {
		return nil, err
	}

	var candidates []*models.Document
	for _, d := range found {
		if d.SyncID != "" {
			continue
		}
		delta := d.CreatedAt.Sub(remote.CreatedAt)
		if delta < 0 {
			delta = -delta
		}
		if delta <= m.tolerance {
			candidates = append(candidates, d)
		}
	}
	return candidates, nil
}
