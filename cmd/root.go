// Package cmd wires configuration, the GitHub tracker and the lifecycle
// services into the issue-lifecycle command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"issue-lifecycle/internal/client"
	"issue-lifecycle/internal/config"
	"issue-lifecycle/internal/lifecycle"
	"issue-lifecycle/internal/repository"
)

// Version is overridden at build time with -ldflags "-X issue-lifecycle/cmd.Version=..."
var Version = "0.1.0"

// Persistent flags; empty values leave the environment settings untouched
var (
	dryRun     bool
	logLevel   string
	policyFile string
	repoFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "issue-lifecycle",
	Short: "Label inactive issues stale and close issues whose lifecycle label expired",
	Long: `issue-lifecycle keeps a GitHub issue tracker tidy.

It is meant to run on a schedule:
  - open issues without activity are labeled stale
  - issues carrying a lifecycle label longer than its timeout are commented on and closed
  - newly labeled issues can be told how long they have before closing

Examples:
  issue-lifecycle sweep --dry-run           # Show what a sweep would do
  issue-lifecycle sweep --label needs-info  # Only close expired needs-info issues
  issue-lifecycle comment --issue 42 --label needs-repro
  issue-lifecycle policy                    # Print the active lifecycle table`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Decide as usual but do not modify any issue")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error (default from LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy-file", "", "Lifecycle table override file (default from LIFECYCLE_FILE)")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "Target repository as owner/name (default from GITHUB_REPOSITORY_*)")

	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(commentCmd)
	rootCmd.AddCommand(policyCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the command line under a context cancelled by SIGINT or SIGTERM
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

// loadConfig reads the environment, applies flag overrides and sets up logging
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.LoadConfig()

	if cmd.Flags().Changed("dry-run") {
		cfg.DryRun = dryRun
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if policyFile != "" {
		cfg.PolicyFile = policyFile
	}
	if repoFlag != "" {
		cfg.RepoOwner, cfg.RepoName = "", ""
		cfg.SetRepository(repoFlag)
	}

	setupLogging(cmd.ErrOrStderr(), cfg)
	return cfg
}

func setupLogging(w io.Writer, cfg *config.Config) {
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: cfg.GetLogLevel(),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.String("time", a.Value.Time().Format("2006-01-02 15:04:05"))
			}
			return a
		},
	})))
}

// loadPolicy returns the override table when one is configured, else the built-in one
func loadPolicy(cfg *config.Config) (*lifecycle.Table, error) {
	if cfg.PolicyFile == "" {
		return lifecycle.Default(), nil
	}

	table, err := lifecycle.LoadFile(cfg.PolicyFile)
	if err != nil {
		return nil, err
	}

	slog.Info("Lifecycle table loaded", "file", cfg.PolicyFile, "labels", table.Labels())
	return table, nil
}

// newTracker validates credentials and builds the GitHub client
func newTracker(cfg *config.Config) (*client.GitHubClient, error) {
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}
	return client.NewGitHubClient(cfg)
}

// newLockRepository connects to Redis when REDIS_URL is set. The returned
// cleanup closes the connection.
func newLockRepository(cfg *config.Config) (repository.LockRepository, func(), error) {
	if cfg.RedisURL == "" {
		slog.Debug("No Redis URL configured, sweeps run without a lock")
		return repository.NoopRepository{}, func() {}, nil
	}

	slog.Info("Initializing Redis connection...")
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, &config.ConfigError{Field: "REDIS_URL", Message: fmt.Sprintf("invalid Redis URL: %v", err)}
	}

	rdb := redis.NewClient(opt)
	cleanup := func() {
		if err := rdb.Close(); err != nil {
			slog.Warn("Failed to close Redis connection", "error", err)
		}
	}
	return repository.NewRedisRepository(rdb), cleanup, nil
}
