// Package lifecycle holds the issue lifecycle labels, their timeouts and the
// messages posted when a label is applied or its timeout expires.
package lifecycle

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Well-known labels the sweep reasons about directly.
const (
	LabelStale       = "stale"
	LabelAutoclose   = "autoclose"
	LabelEnhancement = "enhancement"
)

// DefaultStaleUpvoteThreshold protects feature requests with at least this
// many +1 reactions from being marked stale.
const DefaultStaleUpvoteThreshold = 10

// Entry is a single lifecycle label tier.
type Entry struct {
	Label  string `mapstructure:"label" yaml:"label"`
	Days   int    `mapstructure:"days" yaml:"days"`
	Reason string `mapstructure:"reason" yaml:"reason"`
	Nudge  string `mapstructure:"nudge" yaml:"nudge"`
}

// Table is the ordered lifecycle policy. Iteration order is the order the
// expiry closer visits labels in.
type Table struct {
	entries              []Entry
	StaleUpvoteThreshold int
}

// NewTable builds a table from entries and validates it.
func NewTable(entries []Entry, staleUpvoteThreshold int) (*Table, error) {
	t := &Table{
		entries:              append([]Entry(nil), entries...),
		StaleUpvoteThreshold: staleUpvoteThreshold,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Default returns the built-in lifecycle table.
func Default() *Table {
	return &Table{
		entries: []Entry{
			{
				Label:  "invalid",
				Days:   3,
				Reason: "this doesn't appear to be about this project",
				Nudge:  "This doesn't appear to be about this project. Please check that you opened it in the right repository.",
			},
			{
				Label:  "needs-repro",
				Days:   7,
				Reason: "we still need reproduction steps to investigate",
				Nudge:  "We weren't able to reproduce this. Could you provide steps to trigger the issue — what you ran, what happened, and what you expected?",
			},
			{
				Label:  "needs-info",
				Days:   7,
				Reason: "we still need a bit more information to move forward",
				Nudge:  "We need more information to continue investigating. Can you make sure to include the version you are running, your OS, and any error messages or logs?",
			},
			{
				Label:  LabelStale,
				Days:   14,
				Reason: "inactive for too long",
				Nudge:  "This issue has been automatically marked as stale due to inactivity.",
			},
			{
				Label:  LabelAutoclose,
				Days:   14,
				Reason: "inactive for too long",
				Nudge:  "This issue has been marked for automatic closure.",
			},
		},
		StaleUpvoteThreshold: DefaultStaleUpvoteThreshold,
	}
}

// Lookup returns the entry for label.
func (t *Table) Lookup(label string) (Entry, bool) {
	for _, e := range t.entries {
		if e.Label == label {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the entries in order.
func (t *Table) Entries() []Entry {
	return append([]Entry(nil), t.entries...)
}

// Labels returns the label names in order.
func (t *Table) Labels() []string {
	labels := make([]string, 0, len(t.entries))
	for _, e := range t.entries {
		labels = append(labels, e.Label)
	}
	return labels
}

// Validate rejects empty or duplicate labels and non-positive timeouts.
func (t *Table) Validate() error {
	if len(t.entries) == 0 {
		return fmt.Errorf("lifecycle table has no entries")
	}

	if t.StaleUpvoteThreshold <= 0 {
		return fmt.Errorf("stale upvote threshold must be positive, got %d", t.StaleUpvoteThreshold)
	}

	seen := make(map[string]bool, len(t.entries))
	for i, e := range t.entries {
		if e.Label == "" {
			return fmt.Errorf("lifecycle[%d]: missing label", i)
		}
		if seen[e.Label] {
			return fmt.Errorf("lifecycle[%d]: duplicate label %q", i, e.Label)
		}
		seen[e.Label] = true

		if e.Days <= 0 {
			return fmt.Errorf("lifecycle[%d] (%s): days must be positive, got %d", i, e.Label, e.Days)
		}
		if e.Reason == "" {
			return fmt.Errorf("lifecycle[%d] (%s): missing reason", i, e.Label)
		}
	}

	return nil
}

// fileTable mirrors the on-disk layout of a policy override file.
type fileTable struct {
	Lifecycle            []Entry `mapstructure:"lifecycle" yaml:"lifecycle"`
	StaleUpvoteThreshold int     `mapstructure:"stale_upvote_threshold" yaml:"stale_upvote_threshold"`
}

// LoadFile reads a policy table from a YAML, JSON or TOML file. The file
// replaces the built-in entries; a missing threshold keeps the default.
func LoadFile(path string) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to stat lifecycle file: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("stale_upvote_threshold", DefaultStaleUpvoteThreshold)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read lifecycle file: %w", err)
	}

	var raw fileTable
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode lifecycle file: %w", err)
	}

	table, err := NewTable(raw.Lifecycle, raw.StaleUpvoteThreshold)
	if err != nil {
		return nil, fmt.Errorf("invalid lifecycle file %s: %w", path, err)
	}
	return table, nil
}

// MarshalYAML renders the table in the same layout LoadFile accepts.
func (t *Table) MarshalYAML() (interface{}, error) {
	return fileTable{
		Lifecycle:            t.entries,
		StaleUpvoteThreshold: t.StaleUpvoteThreshold,
	}, nil
}
