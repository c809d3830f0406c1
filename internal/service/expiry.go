package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"issue-lifecycle/internal/client"
	"issue-lifecycle/internal/config"
	"issue-lifecycle/internal/lifecycle"
)

// ExpiryCloserImpl implements the ExpiryCloser interface
type ExpiryCloserImpl struct {
	tracker client.IssueTracker
	policy  *lifecycle.Table
	config  *config.Config
	now     func() time.Time
}

// NewExpiryCloser creates a new expiry closer instance
func NewExpiryCloser(tracker client.IssueTracker, policy *lifecycle.Table, cfg *config.Config) *ExpiryCloserImpl {
	return &ExpiryCloserImpl{
		tracker: tracker,
		policy:  policy,
		config:  cfg,
		now:     time.Now,
	}
}

// CloseExpired runs the closer for every entry of the lifecycle table in order
func (e *ExpiryCloserImpl) CloseExpired(ctx context.Context) (*PassResult, error) {
	total := &PassResult{}

	for _, entry := range e.policy.Entries() {
		result, err := e.closeEntry(ctx, entry)
		if err != nil {
			return nil, err
		}
		total.merge(result)
	}

	return total, nil
}

// CloseExpiredLabel runs the closer for a single label
func (e *ExpiryCloserImpl) CloseExpiredLabel(ctx context.Context, label string) (*PassResult, error) {
	entry, ok := e.policy.Lookup(label)
	if !ok {
		slog.Warn("No lifecycle entry for label, skipping", "label", label)
		return &PassResult{}, nil
	}

	return e.closeEntry(ctx, entry)
}

func (e *ExpiryCloserImpl) closeEntry(ctx context.Context, entry lifecycle.Entry) (*PassResult, error) {
	result := &PassResult{}
	repo := targetRepository(e.config)
	now := e.now()
	cutoff := now.AddDate(0, 0, -entry.Days)

	slog.Info("Closing expired issues",
		"repo", repo.String(),
		"label", entry.Label,
		"timeout_days", entry.Days,
		"dry_run", e.config.DryRun,
	)

	for page := 1; page <= maxPages; page++ {
		issues, err := e.tracker.ListOpenIssues(ctx, repo, client.ListOptions{
			Label:   entry.Label,
			Page:    page,
			PerPage: perPage,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list issues labeled %s (page %d): %w", entry.Label, page, err)
		}
		if len(issues) == 0 {
			return result, nil
		}

		for _, issue := range issues {
			d := Decision{
				Number: issue.Number,
				Title:  issue.Title,
				Label:  entry.Label,
				Action: ActionSkip,
			}

			if issue.IsPullRequest {
				d.Reason = SkipPullRequest
				result.record(d)
				continue
			}
			if issue.Locked {
				d.Reason = SkipLocked
				result.record(d)
				continue
			}

			labeledAt, found, err := e.labeledAt(ctx, repo, issue.Number, entry.Label)
			if err != nil {
				return nil, err
			}
			if !found {
				slog.Debug("No labeled event found, skipping", "issue", issue.Number, "label", entry.Label)
				d.Reason = SkipNoLabelEvent
				result.record(d)
				continue
			}

			d.AgeDays = ageInDays(now, labeledAt)
			if labeledAt.After(cutoff) {
				d.Reason = SkipNotExpired
				result.record(d)
				continue
			}

			if err := e.closeIssue(ctx, repo, issue, entry, d.AgeDays); err != nil {
				return nil, err
			}
			d.Action = ActionClose
			d.Reason = ""
			result.record(d)
		}

		if page == maxPages {
			result.Truncated = true
			warnScanDepth(entry.Label)
		}
	}

	return result, nil
}

// labeledAt pages through the issue's events and returns when label was last applied
func (e *ExpiryCloserImpl) labeledAt(ctx context.Context, repo client.Repository, number int, label string) (time.Time, bool, error) {
	var events []client.IssueEvent

	for page := 1; page <= maxPages; page++ {
		batch, err := e.tracker.ListIssueEvents(ctx, repo, number, page, perPage)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("failed to list events for issue #%d: %w", number, err)
		}
		events = append(events, batch...)
		if len(batch) < perPage {
			break
		}
	}

	labeledAt, found := EffectiveLabelTime(events, label)
	return labeledAt, found, nil
}

// EffectiveLabelTime returns the latest time label was applied according to
// events. Events for other labels or of other kinds are ignored.
func EffectiveLabelTime(events []client.IssueEvent, label string) (time.Time, bool) {
	var latest time.Time
	found := false

	for _, ev := range events {
		if ev.Event != labeledEventKind || ev.Label != label {
			continue
		}
		if !found || ev.CreatedAt.After(latest) {
			latest = ev.CreatedAt
			found = true
		}
	}

	return latest, found
}

func (e *ExpiryCloserImpl) closeIssue(ctx context.Context, repo client.Repository, issue client.Issue, entry lifecycle.Entry, age int) error {
	if e.config.DryRun {
		slog.Info("Would close",
			"issue", issue.Number,
			"label", entry.Label,
			"age_days", age,
			"title", issue.Title,
		)
		return nil
	}

	body := lifecycle.CloseMessage(entry.Reason, e.config.IssueFormURL())
	if err := e.tracker.CreateComment(ctx, repo, issue.Number, body); err != nil {
		return fmt.Errorf("failed to comment on issue #%d: %w", issue.Number, err)
	}

	// the comment is not rolled back when closing fails
	if err := e.tracker.SetIssueState(ctx, repo, issue.Number, closedState, notPlannedReason); err != nil {
		return fmt.Errorf("issue #%d commented but not closed: %w", issue.Number, err)
	}

	slog.Info("Closed",
		"issue", issue.Number,
		"label", entry.Label,
		"age_days", age,
		"title", issue.Title,
	)
	return nil
}
