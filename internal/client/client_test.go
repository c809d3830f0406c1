//go:build unit

package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"issue-lifecycle/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRepo = Repository{Owner: "acme", Name: "widgets"}

// newTestClient starts a mock GitHub API and returns a client pointed at it
func newTestClient(t *testing.T, handler http.HandlerFunc) *GitHubClient {
	t.Helper()

	mockServer := httptest.NewServer(handler)
	t.Cleanup(mockServer.Close)

	client, err := NewGitHubClient(&config.Config{
		GitHubAPIURL: mockServer.URL,
		GitHubToken:  "test-token",
	})
	require.NoError(t, err)

	return client
}

// TestNewGitHubClient_BaseURL tests API URL validation
func TestNewGitHubClient_BaseURL(t *testing.T) {
	tests := []struct {
		name        string
		apiURL      string
		expectError bool
	}{
		{name: "default", apiURL: config.DefaultGitHubAPIURL},
		{name: "enterprise without trailing slash", apiURL: "https://ghe.example.com/api/v3"},
		{name: "relative", apiURL: "api/v3", expectError: true},
		{name: "unparseable", apiURL: "://bad", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewGitHubClient(&config.Config{GitHubAPIURL: tt.apiURL, GitHubToken: "t"})
			if tt.expectError {
				var cfgErr *config.ConfigError
				assert.ErrorAs(t, err, &cfgErr)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.True(t, client.client.BaseURL.Path == "/" || client.client.BaseURL.Path == "/api/v3/")
		})
	}
}

// TestNewGitHubClient_AppKeyMissing tests app auth with an unreadable key
func TestNewGitHubClient_AppKeyMissing(t *testing.T) {
	client, err := NewGitHubClient(&config.Config{
		GitHubAPIURL:         config.DefaultGitHubAPIURL,
		GitHubAppID:          1,
		GitHubInstallationID: 2,
		GitHubAppKeyPath:     "/does/not/exist.pem",
	})

	assert.Error(t, err)
	assert.Nil(t, client)
}

// TestGitHubClient_ListOpenIssues tests issue listing and conversion
func TestGitHubClient_ListOpenIssues(t *testing.T) {
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name             string
		opts             ListOptions
		mockResponseCode int
		mockResponseBody string
		expectedLabels   string
		expectedIssues   []Issue
		expectedError    string
	}{
		{
			name:             "unfiltered page",
			opts:             ListOptions{Page: 2, PerPage: 100},
			mockResponseCode: 200,
			mockResponseBody: `[
				{"number": 7, "title": "Crash on start", "state": "open", "updated_at": "2024-03-01T12:00:00Z", "locked": true,
				 "assignees": [{"login": "a"}, {"login": "b"}], "labels": [{"name": "bug"}, {"name": "stale"}],
				 "reactions": {"+1": 12}},
				{"number": 8, "title": "Add feature", "state": "open", "updated_at": "2024-03-01T12:00:00Z",
				 "pull_request": {"url": "https://api.github.com/repos/acme/widgets/pulls/8"}}
			]`,
			expectedIssues: []Issue{
				{
					Number:       7,
					Title:        "Crash on start",
					State:        "open",
					UpdatedAt:    updated,
					Locked:       true,
					Assignees:    2,
					Labels:       []string{"bug", "stale"},
					PlusOneCount: 12,
				},
				{
					Number:        8,
					Title:         "Add feature",
					State:         "open",
					UpdatedAt:     updated,
					Labels:        []string{},
					IsPullRequest: true,
				},
			},
		},
		{
			name:             "label filter",
			opts:             ListOptions{Label: "needs-info", Page: 1, PerPage: 100},
			mockResponseCode: 200,
			mockResponseBody: `[]`,
			expectedLabels:   "needs-info",
			expectedIssues:   []Issue{},
		},
		{
			name:             "not found is empty",
			opts:             ListOptions{Page: 1, PerPage: 100},
			mockResponseCode: 404,
			mockResponseBody: `{"message": "Not Found"}`,
			expectedIssues:   nil,
		},
		{
			name:             "server error",
			opts:             ListOptions{Page: 1, PerPage: 100},
			mockResponseCode: 500,
			mockResponseBody: `{"message": "boom"}`,
			expectedError:    "error listing issues",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "GET", r.Method)
				assert.Equal(t, "/repos/acme/widgets/issues", r.URL.Path)
				assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

				q := r.URL.Query()
				assert.Equal(t, "open", q.Get("state"))
				assert.Equal(t, "updated", q.Get("sort"))
				assert.Equal(t, "asc", q.Get("direction"))
				assert.Equal(t, tt.expectedLabels, q.Get("labels"))

				w.WriteHeader(tt.mockResponseCode)
				w.Write([]byte(tt.mockResponseBody))
			})

			issues, err := client.ListOpenIssues(context.Background(), testRepo, tt.opts)

			if tt.expectedError != "" {
				assert.ErrorContains(t, err, tt.expectedError)
				assert.Nil(t, issues)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedIssues, issues)
		})
	}
}

// TestGitHubClient_ListOpenIssues_Paging tests page parameters
func TestGitHubClient_ListOpenIssues_Paging(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("page"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Write([]byte(`[]`))
	})

	_, err := client.ListOpenIssues(context.Background(), testRepo, ListOptions{Page: 3, PerPage: 100})
	assert.NoError(t, err)
}

// TestGitHubClient_ListIssueEvents tests event listing
func TestGitHubClient_ListIssueEvents(t *testing.T) {
	tests := []struct {
		name             string
		mockResponseCode int
		mockResponseBody string
		expectedEvents   []IssueEvent
		expectError      bool
	}{
		{
			name:             "labeled and other events",
			mockResponseCode: 200,
			mockResponseBody: `[
				{"event": "labeled", "label": {"name": "needs-info"}, "created_at": "2024-01-02T00:00:00Z"},
				{"event": "commented", "created_at": "2024-01-03T00:00:00Z"}
			]`,
			expectedEvents: []IssueEvent{
				{Event: "labeled", Label: "needs-info", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
				{Event: "commented", CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
			},
		},
		{
			name:             "not found is empty",
			mockResponseCode: 404,
			mockResponseBody: `{"message": "Not Found"}`,
		},
		{
			name:             "forbidden",
			mockResponseCode: 403,
			mockResponseBody: `{"message": "Forbidden"}`,
			expectError:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "GET", r.Method)
				assert.Equal(t, "/repos/acme/widgets/issues/42/events", r.URL.Path)
				assert.Equal(t, "2", r.URL.Query().Get("page"))
				assert.Equal(t, "100", r.URL.Query().Get("per_page"))

				w.WriteHeader(tt.mockResponseCode)
				w.Write([]byte(tt.mockResponseBody))
			})

			events, err := client.ListIssueEvents(context.Background(), testRepo, 42, 2, 100)

			if tt.expectError {
				assert.ErrorContains(t, err, "issue #42")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedEvents, events)
		})
	}
}

// TestGitHubClient_Mutations tests the write operations and their payloads
func TestGitHubClient_Mutations(t *testing.T) {
	tests := []struct {
		name             string
		expectedMethod   string
		expectedPath     string
		expectedBody     map[string]interface{}
		mockResponseCode int
		call             func(c *GitHubClient) error
		expectError      bool
	}{
		{
			name:             "add labels",
			expectedMethod:   "POST",
			expectedPath:     "/repos/acme/widgets/issues/5/labels",
			mockResponseCode: 200,
			call: func(c *GitHubClient) error {
				return c.AddLabels(context.Background(), testRepo, 5, []string{"stale"})
			},
		},
		{
			name:             "create comment",
			expectedMethod:   "POST",
			expectedPath:     "/repos/acme/widgets/issues/5/comments",
			expectedBody:     map[string]interface{}{"body": "hello"},
			mockResponseCode: 201,
			call: func(c *GitHubClient) error {
				return c.CreateComment(context.Background(), testRepo, 5, "hello")
			},
		},
		{
			name:             "close as not planned",
			expectedMethod:   "PATCH",
			expectedPath:     "/repos/acme/widgets/issues/5",
			expectedBody:     map[string]interface{}{"state": "closed", "state_reason": "not_planned"},
			mockResponseCode: 200,
			call: func(c *GitHubClient) error {
				return c.SetIssueState(context.Background(), testRepo, 5, "closed", "not_planned")
			},
		},
		{
			name:             "comment on missing issue is a no-op",
			expectedMethod:   "POST",
			expectedPath:     "/repos/acme/widgets/issues/5/comments",
			expectedBody:     map[string]interface{}{"body": "hello"},
			mockResponseCode: 404,
			call: func(c *GitHubClient) error {
				return c.CreateComment(context.Background(), testRepo, 5, "hello")
			},
		},
		{
			name:             "close failure",
			expectedMethod:   "PATCH",
			expectedPath:     "/repos/acme/widgets/issues/5",
			expectedBody:     map[string]interface{}{"state": "closed", "state_reason": "not_planned"},
			mockResponseCode: 422,
			call: func(c *GitHubClient) error {
				return c.SetIssueState(context.Background(), testRepo, 5, "closed", "not_planned")
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.expectedMethod, r.Method)
				assert.Equal(t, tt.expectedPath, r.URL.Path)

				if tt.expectedBody != nil {
					var requestBody map[string]interface{}
					require.NoError(t, json.NewDecoder(r.Body).Decode(&requestBody))
					assert.Equal(t, tt.expectedBody, requestBody)
				}

				w.WriteHeader(tt.mockResponseCode)
				if tt.mockResponseCode >= 400 {
					w.Write([]byte(`{"message": "error"}`))
					return
				}
				if tt.expectedPath == "/repos/acme/widgets/issues/5/labels" {
					w.Write([]byte(`[{"name": "stale"}]`))
					return
				}
				w.Write([]byte(`{}`))
			})

			err := tt.call(client)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestGitHubClient_AddLabels_Body tests the label payload
func TestGitHubClient_AddLabels_Body(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var labels []string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&labels))
		assert.Equal(t, []string{"stale"}, labels)
		w.Write([]byte(`[{"name": "stale"}]`))
	})

	assert.NoError(t, client.AddLabels(context.Background(), testRepo, 9, []string{"stale"}))
}

// TestIssue_HasLabel tests label membership
func TestIssue_HasLabel(t *testing.T) {
	issue := Issue{Labels: []string{"bug", "enhancement"}}

	assert.True(t, issue.HasLabel("enhancement"))
	assert.True(t, issue.HasLabel("stale", "bug"))
	assert.False(t, issue.HasLabel("stale", "autoclose"))
	assert.False(t, Issue{}.HasLabel("bug"))
}
