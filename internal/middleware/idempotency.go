package middleware

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deduper remembers keys it has already seen for a while.
type Deduper interface {
	// FirstSeen reports whether key was not seen before, and claims it.
	FirstSeen(ctx context.Context, key string) (bool, error)
}

func GetEventKey(eventID string) string {
	return "webhook:event:" + eventID
}

type redisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisDeduper claims keys with SETNX so redelivered webhook events are
// dropped across api replicas.
func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) Deduper {
	return &redisDeduper{rdb: rdb, ttl: ttl}
}

func (d *redisDeduper) FirstSeen(ctx context.Context, key string) (bool, error) {
	return d.rdb.SetNX(ctx, GetEventKey(key), "1", d.ttl).Result()
}

// MemoryDeduper is the single-process fallback used when no Redis is
// configured. Expired keys are dropped by Sweep, run from RunSweeper.
type MemoryDeduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	seen map[string]time.Time
	now  func() time.Time
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{ttl: ttl, seen: make(map[string]time.Time), now: time.Now}
}

func (d *MemoryDeduper) FirstSeen(ctx context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if exp, ok := d.seen[key]; ok && !now.After(exp) {
		return false, nil
	}
	d.seen[key] = now.Add(d.ttl)
	return true, nil
}

// Sweep removes expired keys and reports how many were removed.
func (d *MemoryDeduper) Sweep() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	removed := 0
	for k, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, k)
			removed++
		}
	}
	return removed
}

func (d *MemoryDeduper) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (d *MemoryDeduper) RunSweeper(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := d.Sweep(); n > 0 && logger != nil {
				logger.Debug("webhook event ids expired", zap.Int("removed", n))
			}
		}
	}
}
