package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultGitHubAPIURL is the public GitHub REST endpoint.
const DefaultGitHubAPIURL = "https://api.github.com/"

// Config holds application configuration
type Config struct {
	// Logging configuration
	LogLevel string

	// GitHub authentication. A token takes precedence over app credentials.
	GitHubToken          string
	GitHubAppID          int64
	GitHubInstallationID int64
	GitHubAppKeyPath     string
	GitHubAPIURL         string

	// Target repository
	RepoOwner   string
	RepoName    string
	NewIssueURL string

	// Lifecycle configuration
	PolicyFile string
	DryRun     bool

	// Sweep lock configuration
	RedisURL     string
	SweepLockTTL time.Duration

	// Inputs for the comment command
	IssueNumber int
	Label       string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	cfg := &Config{
		// Logging
		LogLevel: getEnvString("LOG_LEVEL", "info"),

		// GitHub
		GitHubToken:          getEnvString("GITHUB_TOKEN", ""),
		GitHubAppID:          getEnvInt64("GITHUB_APP_ID", 0),
		GitHubInstallationID: getEnvInt64("GITHUB_APP_INSTALLATION_ID", 0),
		GitHubAppKeyPath:     getEnvString("GITHUB_APP_PRIVATE_KEY_PATH", ""),
		GitHubAPIURL:         getEnvString("GITHUB_API_URL", DefaultGitHubAPIURL),

		// Repository (actions exposes owner and name separately)
		RepoOwner:   getEnvString("GITHUB_REPOSITORY_OWNER", ""),
		RepoName:    getEnvString("GITHUB_REPOSITORY_NAME", ""),
		NewIssueURL: getEnvString("NEW_ISSUE_URL", ""),

		// Lifecycle
		PolicyFile: getEnvString("LIFECYCLE_FILE", ""),
		DryRun:     getEnvBool("DRY_RUN", false),

		// Sweep lock
		RedisURL:     getEnvString("REDIS_URL", ""),
		SweepLockTTL: time.Duration(getEnvInt("SWEEP_LOCK_TTL_MINUTES", 30)) * time.Minute,

		// Comment command
		IssueNumber: getEnvInt("ISSUE_NUMBER", 0),
		Label:       getEnvString("LABEL", ""),
	}

	if fullName := os.Getenv("GITHUB_REPOSITORY"); fullName != "" {
		cfg.SetRepository(fullName)
	}

	return cfg
}

// SetRepository fills owner and name from an "owner/name" string without
// overwriting values that are already set.
func (c *Config) SetRepository(fullName string) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok {
		return
	}
	if c.RepoOwner == "" {
		c.RepoOwner = owner
	}
	if c.RepoName == "" {
		c.RepoName = name
	}
}

// UsesAppAuth reports whether GitHub App installation credentials are configured
func (c *Config) UsesAppAuth() bool {
	return c.GitHubToken == "" && c.GitHubAppID != 0
}

// IssueFormURL returns the link offered to users in closing comments
func (c *Config) IssueFormURL() string {
	if c.NewIssueURL != "" {
		return c.NewIssueURL
	}
	return fmt.Sprintf("https://github.com/%s/%s/issues/new/choose", c.RepoOwner, c.RepoName)
}

// Validate checks the settings every command needs
func (c *Config) Validate() error {
	if c.RepoOwner == "" || c.RepoName == "" {
		return &ConfigError{Field: "GITHUB_REPOSITORY_OWNER", Message: "GITHUB_REPOSITORY_OWNER and GITHUB_REPOSITORY_NAME are required"}
	}

	if c.SweepLockTTL <= 0 {
		return &ConfigError{Field: "SWEEP_LOCK_TTL_MINUTES", Message: "lock TTL must be positive"}
	}

	return nil
}

// ValidateCredentials checks that some form of GitHub authentication is present
func (c *Config) ValidateCredentials() error {
	if c.GitHubToken != "" {
		return nil
	}

	if c.GitHubAppID == 0 {
		return &ConfigError{Field: "GITHUB_TOKEN", Message: "GITHUB_TOKEN or GitHub App credentials are required"}
	}

	if c.GitHubInstallationID == 0 {
		return &ConfigError{Field: "GITHUB_APP_INSTALLATION_ID", Message: "installation ID is required for GitHub App auth"}
	}

	if c.GitHubAppKeyPath == "" {
		return &ConfigError{Field: "GITHUB_APP_PRIVATE_KEY_PATH", Message: "private key path is required for GitHub App auth"}
	}

	return nil
}

// ValidateComment checks the inputs of the comment command
func (c *Config) ValidateComment() error {
	if c.Label == "" {
		return &ConfigError{Field: "LABEL", Message: "label is required"}
	}

	if c.IssueNumber <= 0 {
		return &ConfigError{Field: "ISSUE_NUMBER", Message: "issue number is required"}
	}

	return nil
}

// GetLogLevel returns the slog.Level for the configured log level
func (c *Config) GetLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "Configuration error for " + e.Field + ": " + e.Message
}

// Helper functions for environment variable parsing

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
