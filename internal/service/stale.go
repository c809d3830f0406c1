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

// StaleMarkerImpl implements the StaleMarker interface
type StaleMarkerImpl struct {
	tracker client.IssueTracker
	policy  *lifecycle.Table
	config  *config.Config
	now     func() time.Time
}

// NewStaleMarker creates a new stale marker instance
func NewStaleMarker(tracker client.IssueTracker, policy *lifecycle.Table, cfg *config.Config) *StaleMarkerImpl {
	return &StaleMarkerImpl{
		tracker: tracker,
		policy:  policy,
		config:  cfg,
		now:     time.Now,
	}
}

// MarkStale labels open issues inactive for longer than the stale timeout.
// Issues arrive sorted by last update ascending, so the first issue updated
// after the cutoff ends the whole scan.
func (s *StaleMarkerImpl) MarkStale(ctx context.Context) (*PassResult, error) {
	result := &PassResult{}

	entry, ok := s.policy.Lookup(lifecycle.LabelStale)
	if !ok {
		slog.Warn("No lifecycle entry for label, skipping stale pass", "label", lifecycle.LabelStale)
		return result, nil
	}

	repo := targetRepository(s.config)
	now := s.now()
	cutoff := now.AddDate(0, 0, -entry.Days)

	slog.Info("Marking stale issues",
		"repo", repo.String(),
		"inactive_days", entry.Days,
		"dry_run", s.config.DryRun,
	)

	for page := 1; page <= maxPages; page++ {
		issues, err := s.tracker.ListOpenIssues(ctx, repo, client.ListOptions{Page: page, PerPage: perPage})
		if err != nil {
			return nil, fmt.Errorf("failed to list open issues (page %d): %w", page, err)
		}
		if len(issues) == 0 {
			return result, nil
		}

		for _, issue := range issues {
			d := Decision{
				Number:  issue.Number,
				Title:   issue.Title,
				Label:   lifecycle.LabelStale,
				Action:  ActionSkip,
				AgeDays: ageInDays(now, issue.UpdatedAt),
			}

			d.Reason = s.skipReason(issue, cutoff)
			if d.Reason == SkipRecentlyUpdated {
				result.record(d)
				slog.Debug("Reached recently updated issue, stopping stale scan", "issue", issue.Number, "page", page)
				return result, nil
			}
			if d.Reason != "" {
				result.record(d)
				continue
			}

			if err := s.markIssue(ctx, repo, issue, d.AgeDays); err != nil {
				return nil, err
			}
			d.Action = ActionLabelStale
			result.record(d)
		}

		if page == maxPages {
			result.Truncated = true
			warnScanDepth(lifecycle.LabelStale)
		}
	}

	return result, nil
}

// skipReason returns why an issue is not marked stale, or "" if it should be
func (s *StaleMarkerImpl) skipReason(issue client.Issue, cutoff time.Time) string {
	switch {
	case issue.IsPullRequest:
		return SkipPullRequest
	case issue.Locked:
		return SkipLocked
	case issue.Assignees > 0:
		return SkipAssigned
	case issue.UpdatedAt.After(cutoff):
		return SkipRecentlyUpdated
	case issue.HasLabel(lifecycle.LabelStale, lifecycle.LabelAutoclose):
		return SkipAlreadyMarked
	case issue.HasLabel(lifecycle.LabelEnhancement) && issue.PlusOneCount >= s.policy.StaleUpvoteThreshold:
		return SkipUpvoted
	default:
		return ""
	}
}

func (s *StaleMarkerImpl) markIssue(ctx context.Context, repo client.Repository, issue client.Issue, age int) error {
	if s.config.DryRun {
		slog.Info("Would label stale", "issue", issue.Number, "age_days", age, "title", issue.Title)
		return nil
	}

	if err := s.tracker.AddLabels(ctx, repo, issue.Number, []string{lifecycle.LabelStale}); err != nil {
		return fmt.Errorf("failed to label issue #%d stale: %w", issue.Number, err)
	}

	slog.Info("Labeled stale", "issue", issue.Number, "age_days", age, "title", issue.Title)
	return nil
}

func targetRepository(cfg *config.Config) client.Repository {
	return client.Repository{Owner: cfg.RepoOwner, Name: cfg.RepoName}
}

func ageInDays(now, since time.Time) int {
	return int(now.Sub(since) / (24 * time.Hour))
}

// warnScanDepth reports that the page cap was hit on a non-empty page
func warnScanDepth(label string) {
	slog.Warn("Scan depth limit reached, later pages were not examined",
		"label", label,
		"max_pages", maxPages,
		"per_page", perPage,
	)
}
