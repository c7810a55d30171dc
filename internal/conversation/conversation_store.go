package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const StateKeyPrefix = "conversation:state:"

func GetStateKey(userID string) string {
	return StateKeyPrefix + userID
}

type StateStore interface {
	Get(ctx context.Context, userID string) (State, bool, error)
	Save(ctx context.Context, state State) error
	Delete(ctx context.Context, userID string) error
}

// MemoryStore keeps states in process. Entries older than ttl are treated
// as absent and removed on access or by Sweep.
type MemoryStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[string]State
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[string]State),
	}
}

func (m *MemoryStore) Get(ctx context.Context, userID string) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.states[userID]
	if !ok {
		return State{}, false, nil
	}
	if m.expired(s) {
		delete(m.states, userID)
		return State{}, false, nil
	}
	return s.clone(), true, nil
}

func (m *MemoryStore) Save(ctx context.Context, state State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	state.UpdatedAt = m.now()
	m.states[state.UserID] = state.clone()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, userID)
	return nil
}

// Sweep drops expired entries and returns how many were removed.
func (m *MemoryStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.states {
		if m.expired(s) {
			delete(m.states, id)
			removed++
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *MemoryStore) RunSweeper(ctx context.Context, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 && logger != nil {
				logger.Debug("conversation states expired", zap.Int("removed", n))
			}
		}
	}
}

func (m *MemoryStore) expired(s State) bool {
	return m.ttl > 0 && m.now().Sub(s.UpdatedAt) > m.ttl
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}
}

func (r *RedisStore) Get(ctx context.Context, userID string) (State, bool, error) {
	val, err := r.rdb.Get(ctx, GetStateKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	var s State
	if err := json.Unmarshal([]byte(val), &s); err != nil {
		return State{}, false, err
	}
	return s, true, nil
}

func (r *RedisStore) Save(ctx context.Context, state State) error {
	state.UpdatedAt = r.now()
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, GetStateKey(state.UserID), string(payload), r.ttl).Err()
}

func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, GetStateKey(userID)).Err()
}
