package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"RegimeSentinel/internal/model"
)

// ErrCacheMiss is returned when a key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache stores sentiment readings with a time-to-live.
type Cache interface {
	Get(ctx context.Context, symbol string) (model.SentimentData, error)
	Set(ctx context.Context, symbol string, data model.SentimentData, ttl time.Duration) error
}

type entry struct {
	v   model.SentimentData
	exp time.Time
}

// MemoryCache is an in-process TTL map.
type MemoryCache struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: make(map[string]entry), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, symbol string) (model.SentimentData, error) {
	c.mu.RLock()
	e, ok := c.m[symbol]
	c.mu.RUnlock()
	if !ok {
		return model.SentimentData{}, ErrCacheMiss
	}
	if c.expired(e) {
		c.mu.Lock()
		// A Set may have replaced the entry since the read lock was released.
		if cur, ok := c.m[symbol]; ok && c.expired(cur) {
			delete(c.m, symbol)
		}
		c.mu.Unlock()
		return model.SentimentData{}, ErrCacheMiss
	}
	return e.v, nil
}

func (c *MemoryCache) expired(e entry) bool {
	return !e.exp.IsZero() && c.now().After(e.exp)
}

func (c *MemoryCache) Set(_ context.Context, symbol string, data model.SentimentData, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.m[symbol] = entry{v: data, exp: exp}
	c.mu.Unlock()
	return nil
}

// RedisCache shares sentiment readings between processes through Redis.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{client: client, prefix: "regime_sentinel:sentiment:"}, nil
}

func (c *RedisCache) Get(ctx context.Context, symbol string) (model.SentimentData, error) {
	var data model.SentimentData
	raw, err := c.client.Get(ctx, c.prefix+symbol).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return data, ErrCacheMiss
		}
		return data, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return data, fmt.Errorf("decode cached sentiment: %w", err)
	}
	return data, nil
}

func (c *RedisCache) Set(ctx context.Context, symbol string, data model.SentimentData, ttl time.Duration) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode sentiment: %w", err)
	}
	return c.client.Set(ctx, c.prefix+symbol, raw, ttl).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
