package service

import (
	"context"
	"fmt"
	"log/slog"

	"issue-lifecycle/internal/client"
	"issue-lifecycle/internal/config"
	"issue-lifecycle/internal/lifecycle"
)

// NudgerImpl implements the Nudger interface
type NudgerImpl struct {
	tracker client.IssueTracker
	policy  *lifecycle.Table
	config  *config.Config
}

// NewNudger creates a new nudger instance
func NewNudger(tracker client.IssueTracker, policy *lifecycle.Table, cfg *config.Config) *NudgerImpl {
	return &NudgerImpl{
		tracker: tracker,
		policy:  policy,
		config:  cfg,
	}
}

// PostNudge comments on an issue that just received a lifecycle label,
// telling the author how long they have before it is closed.
func (n *NudgerImpl) PostNudge(ctx context.Context, number int, label string) (bool, error) {
	entry, ok := n.policy.Lookup(label)
	if !ok {
		slog.Info("Label has no lifecycle entry, nothing to post", "issue", number, "label", label)
		return false, nil
	}

	body := lifecycle.NudgeMessage(entry)

	if n.config.DryRun {
		slog.Info("Would comment", "issue", number, "label", label, "body", body)
		return false, nil
	}

	repo := targetRepository(n.config)
	if err := n.tracker.CreateComment(ctx, repo, number, body); err != nil {
		return false, fmt.Errorf("failed to post lifecycle comment on issue #%d: %w", number, err)
	}

	slog.Info("Posted lifecycle comment", "issue", number, "label", label)
	return true, nil
}
