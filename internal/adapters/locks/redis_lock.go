package locks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
	redisclient "github.com/Aftab48/Haemologix-sub000/internal/infrastructure/clients/redis"
)

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLockProvider hands out leases with SET NX PX so that exporters on
// different hosts exclude each other.
type RedisLockProvider struct {
	client *redisclient.Client
	prefix string
}

// NewRedisLockProvider creates a lock provider. Keys are namespaced by prefix.
func NewRedisLockProvider(client *redisclient.Client, prefix string) *RedisLockProvider {
	return &RedisLockProvider{client: client, prefix: prefix}
}

// Acquire takes the lease or returns providers.ErrLockHeld
func (p *RedisLockProvider) Acquire(ctx context.Context, key string, ttl time.Duration) (providers.Lock, error) {
	token := uuid.NewString()
	fullKey := p.prefix + key

	ok, err := p.client.Client().SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, providers.ErrLockHeld
	}
	return &redisLock{client: p.client, key: fullKey, token: token}, nil
}

type redisLock struct {
	client *redisclient.Client
	key    string
	token  string
}

func (l *redisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client.Client(), []string{l.key}, l.token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release lock %s: %w", l.key, err)
	}
	return nil
}
