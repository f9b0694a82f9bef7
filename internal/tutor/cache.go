package tutor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores generated explanations. A miss is (zero, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (Explanation, bool, error)
	Set(ctx context.Context, key string, e Explanation) error
}

// CacheKey identifies an explanation by question and selected option.
// Skipped questions share the "skipped" slot.
func CacheKey(v MistakeView) string {
	selected := v.SelectedOptionID
	if selected == "" {
		selected = "skipped"
	}
	sum := sha256.Sum256([]byte(v.Question.ID + "\x00" + selected))
	return hex.EncodeToString(sum[:16])
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Explanation
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Explanation)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Explanation, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, e Explanation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

const redisKeyPrefix = "mockprep:explain:"

// RedisCache shares explanations across machines. Entries expire after ttl;
// zero keeps them forever.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Explanation, bool, error) {
	raw, err := c.rdb.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Explanation{}, false, nil
	}
	if err != nil {
		return Explanation{}, false, fmt.Errorf("redis get: %w", err)
	}

	var e Explanation
	if err := json.Unmarshal(raw, &e); err != nil {
		return Explanation{}, false, fmt.Errorf("decode cached explanation: %w", err)
	}
	return e, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, e Explanation) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode explanation: %w", err)
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
