package client

import (
	"context"
	"time"
)

// Repository identifies a GitHub repository
type Repository struct {
	Owner string
	Name  string
}

func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// Issue is the subset of a GitHub issue the lifecycle sweep reads
type Issue struct {
	Number        int
	Title         string
	State         string
	UpdatedAt     time.Time
	Locked        bool
	Assignees     int
	Labels        []string
	PlusOneCount  int
	IsPullRequest bool
}

// HasLabel reports whether the issue carries any of the given labels
func (i Issue) HasLabel(names ...string) bool {
	for _, l := range i.Labels {
		for _, n := range names {
			if l == n {
				return true
			}
		}
	}
	return false
}

// IssueEvent is one entry of an issue's audit timeline
type IssueEvent struct {
	Event     string
	Label     string
	CreatedAt time.Time
}

// ListOptions filters and pages the open issue listing. Results are always
// open issues sorted by last update, oldest first.
type ListOptions struct {
	Label   string
	Page    int
	PerPage int
}

// IssueTracker defines the interface for GitHub issue lifecycle operations.
// A not-found response is reported as an empty result, never as an error.
type IssueTracker interface {
	// ListOpenIssues returns one page of open issues; an empty page ends pagination
	ListOpenIssues(ctx context.Context, repo Repository, opts ListOptions) ([]Issue, error)

	// ListIssueEvents returns one page of an issue's events
	ListIssueEvents(ctx context.Context, repo Repository, number, page, perPage int) ([]IssueEvent, error)

	// AddLabels adds labels to an issue
	AddLabels(ctx context.Context, repo Repository, number int, labels []string) error

	// CreateComment posts a comment on an issue
	CreateComment(ctx context.Context, repo Repository, number int, body string) error

	// SetIssueState changes an issue's state, e.g. closed / not_planned
	SetIssueState(ctx context.Context, repo Repository, number int, state, reason string) error
}
