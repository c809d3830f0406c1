package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"issue-lifecycle/internal/config"
	"issue-lifecycle/internal/repository"
)

// SweeperImpl implements the Sweeper interface
type SweeperImpl struct {
	stale    StaleMarker
	closer   ExpiryCloser
	locks    repository.LockRepository
	config   *config.Config
	newOwner func() string
}

// NewSweeper creates a new sweeper instance
func NewSweeper(stale StaleMarker, closer ExpiryCloser, locks repository.LockRepository, cfg *config.Config) *SweeperImpl {
	return &SweeperImpl{
		stale:    stale,
		closer:   closer,
		locks:    locks,
		config:   cfg,
		newOwner: uuid.NewString,
	}
}

// Sweep marks stale issues, then closes expired ones. When labels is empty the
// closer covers the whole lifecycle table, otherwise only the named labels.
// Live sweeps hold the repository lock for their whole duration.
func (s *SweeperImpl) Sweep(ctx context.Context, labels []string) (*SweepResult, error) {
	result := &SweepResult{DryRun: s.config.DryRun}
	repo := targetRepository(s.config)

	if !s.config.DryRun {
		key := repository.LockKey(repo.String())
		owner := s.newOwner()

		acquired, err := s.locks.Acquire(ctx, key, owner, s.config.SweepLockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire sweep lock: %w", err)
		}
		if !acquired {
			slog.Warn("Another sweep holds the lock, skipping", "repo", repo.String())
			result.Skipped = true
			return result, nil
		}

		defer func() {
			if err := s.locks.Release(context.WithoutCancel(ctx), key, owner); err != nil {
				slog.Error("Failed to release sweep lock", "repo", repo.String(), "error", err)
			}
		}()
	}

	staleResult, err := s.stale.MarkStale(ctx)
	if err != nil {
		return nil, fmt.Errorf("stale pass failed: %w", err)
	}
	result.Labeled = staleResult.Count
	result.Decisions = append(result.Decisions, staleResult.Decisions...)

	closeResult, err := s.closeExpired(ctx, labels)
	if err != nil {
		return nil, fmt.Errorf("expiry pass failed: %w", err)
	}
	result.Closed = closeResult.Count
	result.Decisions = append(result.Decisions, closeResult.Decisions...)

	slog.Info("Sweep completed",
		"repo", repo.String(),
		"labeled", result.Labeled,
		"closed", result.Closed,
		"dry_run", result.DryRun,
		"truncated", staleResult.Truncated || closeResult.Truncated,
	)

	return result, nil
}

func (s *SweeperImpl) closeExpired(ctx context.Context, labels []string) (*PassResult, error) {
	if len(labels) == 0 {
		return s.closer.CloseExpired(ctx)
	}

	total := &PassResult{}
	for _, label := range labels {
		result, err := s.closer.CloseExpiredLabel(ctx, label)
		if err != nil {
			return nil, err
		}
		total.merge(result)
	}
	return total, nil
}

// Summary renders the one-line outcome printed at the end of a sweep
func (r *SweepResult) Summary() string {
	if r.Skipped {
		return "Skipped: another sweep is in progress"
	}
	if r.DryRun {
		return fmt.Sprintf("Done: %d would be labeled stale, %d would be closed", r.Labeled, r.Closed)
	}
	return fmt.Sprintf("Done: %d labeled stale, %d closed", r.Labeled, r.Closed)
}
