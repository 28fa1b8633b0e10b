package providers

import (
	"context"
	"time"

	apperrors "github.com/Aftab48/Haemologix-sub000/pkg/errors"
)

// ErrCacheMiss is returned by Get when the key does not exist
var ErrCacheMiss = apperrors.NewNotFoundError("cache miss")

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error
}
