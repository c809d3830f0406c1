package cmd

import (
	"github.com/spf13/cobra"

	"issue-lifecycle/internal/service"
)

var (
	commentIssue int
	commentLabel string
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Tell the author of a newly labeled issue when it will be closed",
	Long: `comment posts the lifecycle notice for a label that was just applied.

Issue number and label default to ISSUE_NUMBER and LABEL, which lets the
command run from an "issues: labeled" workflow without arguments. Labels
outside the lifecycle table are ignored.`,
	Args: cobra.NoArgs,
	RunE: runComment,
}

func init() {
	commentCmd.Flags().IntVar(&commentIssue, "issue", 0, "Issue number (default from ISSUE_NUMBER)")
	commentCmd.Flags().StringVar(&commentLabel, "label", "", "Label that was applied (default from LABEL)")
}

func runComment(cmd *cobra.Command, args []string) error {
	cfg := loadConfig(cmd)
	if commentIssue != 0 {
		cfg.IssueNumber = commentIssue
	}
	if commentLabel != "" {
		cfg.Label = commentLabel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateComment(); err != nil {
		return err
	}

	policy, err := loadPolicy(cfg)
	if err != nil {
		return err
	}

	tracker, err := newTracker(cfg)
	if err != nil {
		return err
	}

	_, err = service.NewNudger(tracker, policy, cfg).PostNudge(cmd.Context(), cfg.IssueNumber, cfg.Label)
	return err
}
