package repository

import (
	"context"
	"time"
)

// LockRepository guards a sweep against overlapping runs on the same repository
type LockRepository interface {
	// Acquire takes the lock for owner; false means another run holds it
	Acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error)

	// Release drops the lock only if owner still holds it
	Release(ctx context.Context, key, owner string) error
}

// LockKey builds the lock key for a repository
func LockKey(fullName string) string {
	return "issue-lifecycle:sweep:" + fullName
}
