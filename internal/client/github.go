package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v57/github"
	"github.com/gregjones/httpcache"

	"issue-lifecycle/internal/config"
)

// GitHubClient implements IssueTracker on the GitHub REST API
type GitHubClient struct {
	client *github.Client
}

// NewGitHubClient creates a new GitHub client instance. Token auth is used
// when a token is configured, otherwise GitHub App installation auth. Reads go
// through an in-memory conditional request cache that lives for the process.
func NewGitHubClient(cfg *config.Config) (*GitHubClient, error) {
	slog.Debug("Initializing GitHub client",
		"api_url", cfg.GitHubAPIURL,
		"token_configured", cfg.GitHubToken != "",
		"app_auth", cfg.UsesAppAuth(),
	)

	baseURL, err := parseBaseURL(cfg.GitHubAPIURL)
	if err != nil {
		return nil, err
	}

	var transport http.RoundTripper = http.DefaultTransport
	if cfg.UsesAppAuth() {
		itr, err := ghinstallation.NewKeyFromFile(transport, cfg.GitHubAppID, cfg.GitHubInstallationID, cfg.GitHubAppKeyPath)
		if err != nil {
			slog.Error("Failed to load GitHub App key", "error", err, "app_id", cfg.GitHubAppID)
			return nil, fmt.Errorf("error creating installation transport: %w", err)
		}
		itr.BaseURL = strings.TrimSuffix(baseURL.String(), "/")
		transport = itr
	}

	cache := httpcache.NewTransport(httpcache.NewMemoryCache())
	cache.Transport = transport

	httpClient := &http.Client{
		Transport: cache,
		Timeout:   30 * time.Second,
	}

	gh := github.NewClient(httpClient)
	if cfg.GitHubToken != "" {
		gh = gh.WithAuthToken(cfg.GitHubToken)
	}
	gh.BaseURL = baseURL
	gh.UserAgent = "issue-lifecycle"

	slog.Info("GitHub client initialized successfully", "api_url", baseURL.String())

	return &GitHubClient{client: gh}, nil
}

// parseBaseURL normalises the API URL; go-github requires a trailing slash
func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, &config.ConfigError{Field: "GITHUB_API_URL", Message: err.Error()}
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &config.ConfigError{Field: "GITHUB_API_URL", Message: "must be an absolute URL"}
	}

	return u, nil
}

func isNotFound(resp *github.Response) bool {
	return resp != nil && resp.StatusCode == http.StatusNotFound
}

// ListOpenIssues returns one page of open issues sorted by update time ascending
func (g *GitHubClient) ListOpenIssues(ctx context.Context, repo Repository, opts ListOptions) ([]Issue, error) {
	req := &github.IssueListByRepoOptions{
		State:     "open",
		Sort:      "updated",
		Direction: "asc",
		ListOptions: github.ListOptions{
			Page:    opts.Page,
			PerPage: opts.PerPage,
		},
	}
	if opts.Label != "" {
		req.Labels = []string{opts.Label}
	}

	slog.Debug("Listing open issues", "repo", repo.String(), "label", opts.Label, "page", opts.Page)

	issues, resp, err := g.client.Issues.ListByRepo(ctx, repo.Owner, repo.Name, req)
	if isNotFound(resp) {
		slog.Debug("Issue listing not found", "repo", repo.String(), "page", opts.Page)
		return nil, nil
	}
	if err != nil {
		slog.Error("Failed to list issues", "error", err, "repo", repo.String(), "label", opts.Label, "page", opts.Page)
		return nil, fmt.Errorf("error listing issues: %w", err)
	}

	result := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		result = append(result, convertIssue(issue))
	}

	return result, nil
}

func convertIssue(issue *github.Issue) Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}

	return Issue{
		Number:        issue.GetNumber(),
		Title:         issue.GetTitle(),
		State:         issue.GetState(),
		UpdatedAt:     issue.GetUpdatedAt().Time,
		Locked:        issue.GetLocked(),
		Assignees:     len(issue.Assignees),
		Labels:        labels,
		PlusOneCount:  issue.GetReactions().GetPlusOne(),
		IsPullRequest: issue.IsPullRequest(),
	}
}

// ListIssueEvents returns one page of an issue's events
func (g *GitHubClient) ListIssueEvents(ctx context.Context, repo Repository, number, page, perPage int) ([]IssueEvent, error) {
	slog.Debug("Listing issue events", "repo", repo.String(), "issue", number, "page", page)

	events, resp, err := g.client.Issues.ListIssueEvents(ctx, repo.Owner, repo.Name, number, &github.ListOptions{
		Page:    page,
		PerPage: perPage,
	})
	if isNotFound(resp) {
		slog.Debug("Issue events not found", "repo", repo.String(), "issue", number)
		return nil, nil
	}
	if err != nil {
		slog.Error("Failed to list issue events", "error", err, "repo", repo.String(), "issue", number)
		return nil, fmt.Errorf("error listing events for issue #%d: %w", number, err)
	}

	result := make([]IssueEvent, 0, len(events))
	for _, e := range events {
		result = append(result, IssueEvent{
			Event:     e.GetEvent(),
			Label:     e.GetLabel().GetName(),
			CreatedAt: e.GetCreatedAt().Time,
		})
	}

	return result, nil
}

// AddLabels adds labels to an issue
func (g *GitHubClient) AddLabels(ctx context.Context, repo Repository, number int, labels []string) error {
	slog.Debug("Adding labels", "repo", repo.String(), "issue", number, "labels", labels)

	_, resp, err := g.client.Issues.AddLabelsToIssue(ctx, repo.Owner, repo.Name, number, labels)
	if isNotFound(resp) {
		slog.Warn("Issue not found while labeling", "repo", repo.String(), "issue", number)
		return nil
	}
	if err != nil {
		slog.Error("Failed to add labels", "error", err, "repo", repo.String(), "issue", number)
		return fmt.Errorf("error labeling issue #%d: %w", number, err)
	}

	return nil
}

// CreateComment posts a comment on an issue
func (g *GitHubClient) CreateComment(ctx context.Context, repo Repository, number int, body string) error {
	slog.Debug("Creating comment", "repo", repo.String(), "issue", number, "body_length", len(body))

	_, resp, err := g.client.Issues.CreateComment(ctx, repo.Owner, repo.Name, number, &github.IssueComment{
		Body: github.String(body),
	})
	if isNotFound(resp) {
		slog.Warn("Issue not found while commenting", "repo", repo.String(), "issue", number)
		return nil
	}
	if err != nil {
		slog.Error("Failed to create comment", "error", err, "repo", repo.String(), "issue", number)
		return fmt.Errorf("error commenting on issue #%d: %w", number, err)
	}

	return nil
}

// SetIssueState changes an issue's state and state reason
func (g *GitHubClient) SetIssueState(ctx context.Context, repo Repository, number int, state, reason string) error {
	slog.Debug("Updating issue state", "repo", repo.String(), "issue", number, "state", state, "reason", reason)

	req := &github.IssueRequest{State: github.String(state)}
	if reason != "" {
		req.StateReason = github.String(reason)
	}

	_, resp, err := g.client.Issues.Edit(ctx, repo.Owner, repo.Name, number, req)
	if isNotFound(resp) {
		slog.Warn("Issue not found while updating state", "repo", repo.String(), "issue", number)
		return nil
	}
	if err != nil {
		slog.Error("Failed to update issue state", "error", err, "repo", repo.String(), "issue", number, "state", state)
		return fmt.Errorf("error setting issue #%d to %s: %w", number, state, err)
	}

	return nil
}
