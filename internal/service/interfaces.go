package service

import (
	"context"
)

const (
	// maxPages bounds every paginated scan; later pages are never requested
	maxPages = 10
	perPage  = 100

	closedState      = "closed"
	notPlannedReason = "not_planned"
	labeledEventKind = "labeled"
)

// Action is what a pass decided to do with one issue
type Action string

const (
	ActionLabelStale Action = "label-stale"
	ActionClose      Action = "close"
	ActionSkip       Action = "skip"
)

// Reasons recorded on skipped decisions
const (
	SkipPullRequest     = "pull-request"
	SkipLocked          = "locked"
	SkipAssigned        = "assigned"
	SkipRecentlyUpdated = "recently-updated"
	SkipAlreadyMarked   = "already-marked"
	SkipUpvoted         = "upvoted-enhancement"
	SkipNoLabelEvent    = "no-label-event"
	SkipNotExpired      = "not-expired"
)

// Decision records the outcome for a single issue. Decisions are identical
// in live and dry-run mode.
type Decision struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Label   string `json:"label"`
	Action  Action `json:"action"`
	Reason  string `json:"reason,omitempty"`
	AgeDays int    `json:"ageDays"`
}

// PassResult is the outcome of one stale or expiry pass
type PassResult struct {
	Count     int
	Decisions []Decision
	Truncated bool
}

func (p *PassResult) record(d Decision) {
	p.Decisions = append(p.Decisions, d)
	if d.Action != ActionSkip {
		p.Count++
	}
}

func (p *PassResult) merge(other *PassResult) {
	p.Count += other.Count
	p.Decisions = append(p.Decisions, other.Decisions...)
	p.Truncated = p.Truncated || other.Truncated
}

// SweepResult is the outcome of a full sweep
type SweepResult struct {
	Labeled   int
	Closed    int
	DryRun    bool
	Skipped   bool
	Decisions []Decision
}

// StaleMarker labels inactive issues as stale
type StaleMarker interface {
	// MarkStale scans open issues oldest-updated first and labels inactive ones
	MarkStale(ctx context.Context) (*PassResult, error)
}

// ExpiryCloser closes issues whose lifecycle label outlived its timeout
type ExpiryCloser interface {
	// CloseExpired runs over every label in the lifecycle table
	CloseExpired(ctx context.Context) (*PassResult, error)

	// CloseExpiredLabel runs over one label; unknown labels are skipped
	CloseExpiredLabel(ctx context.Context, label string) (*PassResult, error)
}

// Sweeper runs the stale and expiry passes in order
type Sweeper interface {
	// Sweep runs the stale marker then the expiry closer
	Sweep(ctx context.Context, labels []string) (*SweepResult, error)
}

// Nudger warns issue authors when a lifecycle label is applied
type Nudger interface {
	// PostNudge comments on the issue; false means nothing was posted
	PostNudge(ctx context.Context, number int, label string) (bool, error)
}
