package metrics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/holt-ace/DASHBOARDV3-sub001/internal/cache"
)

// SnapshotCache stores computed snapshots by aggregation key. Failures are
// treated as misses.
type SnapshotCache interface {
	// Get returns the snapshot stored under key. The snapshot may be shared
	// with other callers and must be treated as read-only.
	Get(ctx context.Context, key string) (*Snapshot, bool)
	Set(ctx context.Context, key string, s *Snapshot)
}

// MemoryCache keeps snapshots in process.
type MemoryCache struct {
	ttl *cache.TTL[*Snapshot]
}

// NewMemoryCache wraps ttl.
func NewMemoryCache(ttl *cache.TTL[*Snapshot]) *MemoryCache {
	return &MemoryCache{ttl: ttl}
}

// Get returns the stored pointer itself, so every hit shares one snapshot.
// Callers must not modify it.
func (c *MemoryCache) Get(_ context.Context, key string) (*Snapshot, bool) {
	return c.ttl.Get(key)
}

func (c *MemoryCache) Set(_ context.Context, key string, s *Snapshot) {
	c.ttl.Set(key, s)
}

const redisKeyPrefix = "potrack:metrics:"

// RedisCache shares snapshots between server instances. Redis expires the
// keys, so no sweep is needed.
type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache creates a cache over rdb.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Snapshot, bool) {
	raw, err := c.rdb.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("metrics cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		c.logger.Warn("metrics cache entry undecodable", zap.Error(err))
		return nil, false
	}
	return &s, true
}

func (c *RedisCache) Set(ctx context.Context, key string, s *Snapshot) {
	raw, err := json.Marshal(s)
	if err != nil {
		c.logger.Warn("metrics snapshot not cacheable", zap.Error(err))
		return
	}
	if err := c.rdb.Set(ctx, redisKey(key), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("metrics cache write failed", zap.Error(err))
	}
}

func redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return redisKeyPrefix + hex.EncodeToString(sum[:])
}
