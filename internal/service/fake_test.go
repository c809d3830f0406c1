//go:build unit

package service

import (
	"context"
	"time"

	"issue-lifecycle/internal/client"
	"issue-lifecycle/internal/config"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func daysAgo(n int) time.Time { return testNow.AddDate(0, 0, -n) }

func testConfig() *config.Config {
	return &config.Config{
		RepoOwner:    "acme",
		RepoName:     "widgets",
		NewIssueURL:  "https://example.com/new",
		SweepLockTTL: 30 * time.Minute,
	}
}

type stateChange struct {
	state  string
	reason string
}

// fakeTracker serves canned pages and records every call
type fakeTracker struct {
	// pages are keyed by label filter; "" is the unfiltered listing
	pages  map[string][][]client.Issue
	events map[int][]client.IssueEvent

	listCalls  []client.ListOptions
	eventCalls map[int]int

	labeled  map[int][]string
	comments map[int][]string
	states   map[int]stateChange

	listErr    error
	eventsErr  error
	labelErr   error
	commentErr error
	stateErr   error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{
		pages:      make(map[string][][]client.Issue),
		events:     make(map[int][]client.IssueEvent),
		eventCalls: make(map[int]int),
		labeled:    make(map[int][]string),
		comments:   make(map[int][]string),
		states:     make(map[int]stateChange),
	}
}

func (f *fakeTracker) ListOpenIssues(ctx context.Context, repo client.Repository, opts client.ListOptions) ([]client.Issue, error) {
	f.listCalls = append(f.listCalls, opts)
	if f.listErr != nil {
		return nil, f.listErr
	}
	pages := f.pages[opts.Label]
	if opts.Page-1 < len(pages) {
		return pages[opts.Page-1], nil
	}
	return nil, nil
}

func (f *fakeTracker) ListIssueEvents(ctx context.Context, repo client.Repository, number, page, perPage int) ([]client.IssueEvent, error) {
	f.eventCalls[number]++
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	all := f.events[number]
	start := (page - 1) * perPage
	if start >= len(all) {
		return nil, nil
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (f *fakeTracker) AddLabels(ctx context.Context, repo client.Repository, number int, labels []string) error {
	if f.labelErr != nil {
		return f.labelErr
	}
	f.labeled[number] = append(f.labeled[number], labels...)
	return nil
}

func (f *fakeTracker) CreateComment(ctx context.Context, repo client.Repository, number int, body string) error {
	if f.commentErr != nil {
		return f.commentErr
	}
	f.comments[number] = append(f.comments[number], body)
	return nil
}

func (f *fakeTracker) SetIssueState(ctx context.Context, repo client.Repository, number int, state, reason string) error {
	if f.stateErr != nil {
		return f.stateErr
	}
	f.states[number] = stateChange{state: state, reason: reason}
	return nil
}

func (f *fakeTracker) mutations() int {
	return len(f.labeled) + len(f.comments) + len(f.states)
}

func (f *fakeTracker) listCallsFor(label string) int {
	n := 0
	for _, c := range f.listCalls {
		if c.Label == label {
			n++
		}
	}
	return n
}

func labeledEvent(label string, at time.Time) client.IssueEvent {
	return client.IssueEvent{Event: "labeled", Label: label, CreatedAt: at}
}

// fakeLock records lock traffic for the sweeper tests
type fakeLock struct {
	held       bool
	acquireErr error
	releaseErr error

	acquired []string
	released []string
	ttl      time.Duration
}

func (l *fakeLock) Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	if l.acquireErr != nil {
		return false, l.acquireErr
	}
	if l.held {
		return false, nil
	}
	l.acquired = append(l.acquired, key+"|"+owner)
	l.ttl = ttl
	return true, nil
}

func (l *fakeLock) Release(ctx context.Context, key, owner string) error {
	l.released = append(l.released, key+"|"+owner)
	return l.releaseErr
}
