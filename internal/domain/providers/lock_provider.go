package providers

import (
	"context"
	"time"

	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// ErrLockHeld is returned by Acquire when another holder owns the key.
var ErrLockHeld = apperrors.NewConflictError("lock is held by another process")

// Lock is a held mutual-exclusion lease.
type Lock interface {
	// Release gives the lease back. Releasing an expired or stolen lease is a no-op.
	Release(ctx context.Context) error
}

// LockProvider hands out named leases that expire after ttl.
type LockProvider interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}
