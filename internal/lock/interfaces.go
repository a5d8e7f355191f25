// Package lock provides distributed and local locking abstractions.
// Single-node deployments use the in-memory locker; multi-instance
// deployments share locks through Redis.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned by WithLock when every attempt found the lock held.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker defines the interface for distributed/local locking.
type Locker interface {
	// Acquire attempts to acquire a lock.
	// Returns an ownership token and true if the lock was acquired, false if
	// it's held by another process. The lock expires after the specified TTL.
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)

	// AcquireWithRetry retries Acquire up to maxRetries times, retryDelay apart.
	AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, maxRetries int, retryDelay time.Duration) (string, bool, error)

	// Release releases the lock if it is still held under token.
	// Returns false if it expired or was taken over by another holder.
	Release(ctx context.Context, key, token string) (bool, error)

	// IsHeld checks if the lock is currently held by anyone.
	IsHeld(ctx context.Context, key string) (bool, error)
}

// Options control how WithLock acquires its lock.
type Options struct {
	TTL        time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultOptions suit short critical sections such as a single ledger update.
var DefaultOptions = Options{
	TTL:        10 * time.Second,
	MaxRetries: 50,
	RetryDelay: 20 * time.Millisecond,
}

// WithLock runs fn while holding key. The lock is released on a fresh
// context so a cancelled request does not leave it behind until the TTL.
func WithLock(ctx context.Context, locker Locker, key string, opts Options, fn func(ctx context.Context) error) error {
	token, acquired, err := locker.AcquireWithRetry(ctx, key, opts.TTL, opts.MaxRetries, opts.RetryDelay)
	if err != nil {
		return err
	}
	if !acquired {
		return ErrNotAcquired
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_, _ = locker.Release(releaseCtx, key, token)
	}()
	return fn(ctx)
}

// retry drives AcquireWithRetry for every implementation.
func retry(ctx context.Context, maxRetries int, retryDelay time.Duration, attempt func() (string, bool, error)) (string, bool, error) {
	for i := 0; i <= maxRetries; i++ {
		token, acquired, err := attempt()
		if err != nil {
			return "", false, err
		}
		if acquired {
			return token, true, nil
		}
		if i < maxRetries {
			select {
			case <-ctx.Done():
				return "", false, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}
	return "", false, nil
}

// =============================================================================
// Lock Keys
// =============================================================================

// Keys provides lock key generation.
var Keys = lockKeys{}

type lockKeys struct{}

// Sharing serializes ledger updates for one (recipe, owner) pair.
func (lockKeys) Sharing(recipeID, ownerID string) string {
	return "lock:sharing:" + recipeID + ":" + ownerID
}

// Seed prevents two admin runs from seeding at the same time.
func (lockKeys) Seed() string {
	return "lock:seed"
}
