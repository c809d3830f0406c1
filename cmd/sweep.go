package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"issue-lifecycle/internal/service"
)

var (
	sweepLabels []string
	sweepJSON   bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Label inactive issues stale, then close expired lifecycle labels",
	Args:  cobra.NoArgs,
	RunE:  runSweep,
}

func init() {
	sweepCmd.Flags().StringSliceVar(&sweepLabels, "label", nil, "Only close issues carrying these labels (repeatable; default every label in the table)")
	sweepCmd.Flags().BoolVar(&sweepJSON, "json", false, "Print every decision as JSON after the summary")
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.Info("Configuration loaded",
		"log_level", cfg.LogLevel,
		"repo", cfg.RepoOwner+"/"+cfg.RepoName,
		"dry_run", cfg.DryRun,
		"app_auth", cfg.UsesAppAuth(),
		"policy_file", cfg.PolicyFile,
		"lock_enabled", cfg.RedisURL != "",
	)

	policy, err := loadPolicy(cfg)
	if err != nil {
		return err
	}

	tracker, err := newTracker(cfg)
	if err != nil {
		return err
	}

	locks, cleanup, err := newLockRepository(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	sweeper := service.NewSweeper(
		service.NewStaleMarker(tracker, policy, cfg),
		service.NewExpiryCloser(tracker, policy, cfg),
		locks,
		cfg,
	)

	result, err := sweeper.Sweep(cmd.Context(), sweepLabels)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, result.Summary())

	if sweepJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Decisions); err != nil {
			return fmt.Errorf("failed to encode decisions: %w", err)
		}
	}

	return nil
}
