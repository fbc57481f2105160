package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Claimer reports whether a key is seen for the first time within its TTL.
type Claimer interface {
	Claim(ctx context.Context, scope, key string) bool
}

// Redis claims keys with SETNX so every instance shares the same view.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// Claim returns true the first time scope+key is seen. When Redis is
// unavailable it returns true and lets the database unique index decide.
func (d *Redis) Claim(ctx context.Context, scope, key string) bool {
	ok, err := d.rdb.SetNX(ctx, "dedup:"+scope+":"+key, 1, d.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// Memory is a process-local Claimer for tests and single-instance dev runs.
type Memory struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (m *Memory) Claim(_ context.Context, scope, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := scope + ":" + key
	now := m.now()
	if exp, ok := m.seen[k]; ok && now.Before(exp) {
		return false
	}
	m.seen[k] = now.Add(m.ttl)
	return true
}
