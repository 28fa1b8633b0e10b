package locks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Aftab48/Haemologix-sub000/internal/domain/providers"
)

type memoryLease struct {
	token     string
	expiresAt time.Time
}

// MemoryLockProvider is a process-local LockProvider.
type MemoryLockProvider struct {
	mu     sync.Mutex
	leases map[string]memoryLease
	now    func() time.Time
}

// NewMemoryLockProvider creates an empty lock table
func NewMemoryLockProvider() *MemoryLockProvider {
	return &MemoryLockProvider{leases: make(map[string]memoryLease), now: time.Now}
}

// Acquire takes the lease or returns providers.ErrLockHeld
func (p *MemoryLockProvider) Acquire(ctx context.Context, key string, ttl time.Duration) (providers.Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if lease, held := p.leases[key]; held && now.Before(lease.expiresAt) {
		return nil, providers.ErrLockHeld
	}

	token := uuid.NewString()
	p.leases[key] = memoryLease{token: token, expiresAt: now.Add(ttl)}
	return &memoryLock{provider: p, key: key, token: token}, nil
}

type memoryLock struct {
	provider *MemoryLockProvider
	key      string
	token    string
}

func (l *memoryLock) Release(ctx context.Context) error {
	l.provider.mu.Lock()
	defer l.provider.mu.Unlock()

	if lease, ok := l.provider.leases[l.key]; ok && lease.token == l.token {
		delete(l.provider.leases, l.key)
	}
	return nil
}
