package ports

import (
	"context"
	"time"
)

// UnlockFunc is a function that releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes command execution for a session across shell replicas
// that share the same history backend.
type DistributedLocker interface {
	// Lock blocks until the lock for key is held or ctx is done.
	// The returned UnlockFunc MUST be called to release the lock; the TTL bounds
	// how long a crashed holder can keep it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
