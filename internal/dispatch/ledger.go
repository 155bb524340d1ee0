package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultClaimTTL is how long a dispatch claim is remembered. Claims
// only need to outlive retry storms and operator re-approvals.
const DefaultClaimTTL = 24 * time.Hour

const keyPrefix = "smartinbox:dispatched:"

// Ledger records which (email, rule) pairs have already produced their
// external side effect, so a retried dispatch is idempotent.
type Ledger interface {
	// Claim atomically marks the key as dispatched. It returns false
	// when the key was already claimed.
	Claim(ctx context.Context, key string) (bool, error)

	// Release drops a claim after a failed dispatch so the pair can be
	// dispatched again later.
	Release(ctx context.Context, key string) error
}

// RedisLedger is a Ledger backed by Redis SETNX with TTL, shared across
// instances.
type RedisLedger struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLedger creates a Redis-backed dispatch ledger
func NewRedisLedger(rdb *redis.Client) *RedisLedger {
	return &RedisLedger{
		rdb: rdb,
		ttl: DefaultClaimTTL,
	}
}

// Claim marks the key as dispatched via SETNX
func (l *RedisLedger) Claim(ctx context.Context, key string) (bool, error) {
	set, err := l.rdb.SetNX(ctx, keyPrefix+key, 1, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("ledger SETNX: %w", err)
	}
	return set, nil
}

// Release drops the claim
func (l *RedisLedger) Release(ctx context.Context, key string) error {
	if err := l.rdb.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("ledger DEL: %w", err)
	}
	return nil
}

// MemoryLedger is an in-process Ledger for single-instance deployments
// and tests.
type MemoryLedger struct {
	mu      sync.Mutex
	claimed map[string]bool
}

// NewMemoryLedger creates an in-process dispatch ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claimed: make(map[string]bool)}
}

// Claim marks the key as dispatched
func (l *MemoryLedger) Claim(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.claimed[key] {
		return false, nil
	}
	l.claimed[key] = true
	return true, nil
}

// Release drops the claim
func (l *MemoryLedger) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claimed, key)
	return nil
}
