// Package cache stores the rendered blog list between mutations.
package cache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	generationKey = "cache:blogs:gen"
	listKeyPrefix = "cache:blogs:list:"
)

// NoGeneration is returned by Get when the current generation is unknown.
// Set ignores it.
const NoGeneration int64 = -1

// BlogListCache holds the JSON encoded blog list.
//
// Every Invalidate starts a new generation. Get reports the generation it
// looked at, and Set stores data under that generation only, so a list read
// from the database before a mutation can never be served after it.
type BlogListCache interface {
	Get(ctx context.Context) (data []byte, generation int64, ok bool)
	Set(ctx context.Context, generation int64, data []byte)
	Invalidate(ctx context.Context)
}

// Noop never stores anything. Used when no redis is configured.
type Noop struct{}

func (Noop) Get(context.Context) ([]byte, int64, bool) { return nil, NoGeneration, false }
func (Noop) Set(context.Context, int64, []byte)        {}
func (Noop) Invalidate(context.Context)                {}

// RedisCache keeps one list per generation under a versioned key. Entries of
// old generations are never read again and expire with the ttl.
//
// Redis failures are logged and treated as misses. A failed Invalidate is
// retried before the next read, and until it succeeds nothing is served or
// stored.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.Mutex
	pending bool // an Invalidate has not reached redis yet
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func listKey(generation int64) string {
	return listKeyPrefix + strconv.FormatInt(generation, 10)
}

func (c *RedisCache) Get(ctx context.Context) ([]byte, int64, bool) {
	if !c.flushPending(ctx) {
		return nil, NoGeneration, false
	}

	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache generation read failed", zap.Error(err))
			return nil, NoGeneration, false
		}
		gen = 0
	}

	b, err := c.client.Get(ctx, listKey(gen)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache get failed", zap.String("key", listKey(gen)), zap.Error(err))
		}
		return nil, gen, false
	}
	return b, gen, true
}

func (c *RedisCache) Set(ctx context.Context, generation int64, data []byte) {
	if generation == NoGeneration || c.isPending() {
		return
	}
	if err := c.client.Set(ctx, listKey(generation), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", listKey(generation)), zap.Error(err))
	}
}

func (c *RedisCache) Invalidate(ctx context.Context) {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		c.mu.Lock()
		c.pending = true
		c.mu.Unlock()
		c.logger.Warn("cache invalidate failed", zap.String("key", generationKey), zap.Error(err))
	}
}

// flushPending retries a failed Invalidate and reports whether the cache is usable
func (c *RedisCache) flushPending(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.pending {
		return true
	}
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return false
	}
	c.pending = false
	return true
}

func (c *RedisCache) isPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}
