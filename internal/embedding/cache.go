package embedding

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nlpforge/raglab/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Cache stores embeddings keyed by text hash. Misses and cache errors
// are soft: the caller falls through to the remote call.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Put(ctx context.Context, key string, vector []float32)
}

// RedisCache caches embeddings in Redis so repeated sweep runs do not
// re-embed identical chunks or the fixed query.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logging.Logger
}

// NewRedisCache connects to Redis at url (redis:// URI).
func NewRedisCache(url string, log *logging.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.NewLogger("embedding-cache")
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisCache{
		client: client,
		ttl:    24 * time.Hour,
		log:    log,
	}, nil
}

// Get returns the cached vector for key, if any.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.log.Warn("embedding cache read failed", "error", err)
		return nil, false
	}

	var vector []float32
	if err := json.Unmarshal(data, &vector); err != nil {
		c.log.Warn("embedding cache entry corrupt, ignoring", "key", key)
		return nil, false
	}
	return vector, true
}

// Put stores a vector under key. Failures are logged, never fatal.
func (c *RedisCache) Put(ctx context.Context, key string, vector []float32) {
	data, err := json.Marshal(vector)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn("embedding cache write failed", "error", err)
	}
}

// Close releases the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
