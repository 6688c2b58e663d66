package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pawmart-be/internal/logger"
	"pawmart-be/internal/metrics"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var ErrMiss = errors.New("cache miss")

const (
	keyPrefix = "pawmart:view:"
	genPrefix = "pawmart:gen:"
	scanCount = 100
)

// setIfVersion writes KEYS[2] only while the generation in KEYS[1] still
// equals ARGV[1]. A missing generation reads as 0.
var setIfVersion = redis.NewScript(`
local gen = tonumber(redis.call('GET', KEYS[1]) or '0')
if gen ~= tonumber(ARGV[1]) then
	return 0
end
redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
return 1
`)

type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and verifies the connection with PING.
func NewClient(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:            opts.Addr,
		Password:        opts.Password,
		DB:              opts.DB,
		DialTimeout:     3 * time.Second,
		ReadTimeout:     2 * time.Second,
		WriteTimeout:    2 * time.Second,
		PoolSize:        10,
		MinIdleConns:    2,
		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 500 * time.Millisecond,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// ViewCache stores rendered admin and storefront views as JSON.
type ViewCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewViewCache(client redis.Cmdable, ttl time.Duration) *ViewCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ViewCache{client: client, ttl: ttl}
}

func (c *ViewCache) Get(ctx context.Context, key string, dest any) error {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CacheLookups.WithLabelValues(viewLabel(key), "miss").Inc()
		return ErrMiss
	}
	if err != nil {
		metrics.CacheLookups.WithLabelValues(viewLabel(key), "error").Inc()
		return err
	}

	if err := json.Unmarshal(val, dest); err != nil {
		metrics.CacheLookups.WithLabelValues(viewLabel(key), "error").Inc()
		return fmt.Errorf("decode cached %s: %w", key, err)
	}
	metrics.CacheLookups.WithLabelValues(viewLabel(key), "hit").Inc()
	return nil
}

// Version returns the generation of a view. It grows on every Invalidate.
func (c *ViewCache) Version(ctx context.Context, view string) (uint64, error) {
	v, err := c.client.Get(ctx, genPrefix+view).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetIfVersion stores value under key unless view was invalidated after
// version was read. It reports whether the value was stored.
func (c *ViewCache) SetIfVersion(ctx context.Context, key, view string, version uint64, value any) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}

	stored, err := setIfVersion.Run(ctx, c.client,
		[]string{genPrefix + view, keyPrefix + key},
		version, string(data), c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	if stored == 0 {
		metrics.CacheLookups.WithLabelValues(viewLabel(key), "stale_fill").Inc()
	}
	return stored == 1, nil
}

// Invalidate moves each view to a new generation, then deletes every entry
// stored under it. Fills that started before the bump are refused.
func (c *ViewCache) Invalidate(ctx context.Context, keys ...string) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "cache"),
		zap.String("method", "Invalidate"),
	)

	deleted := 0
	for _, key := range keys {
		if err := c.client.Incr(ctx, genPrefix+key).Err(); err != nil {
			log.Error("failed to bump view generation", zap.String("key", key), zap.Error(err))
			return fmt.Errorf("invalidate %s: %w", key, err)
		}
		n, err := c.deletePrefix(ctx, keyPrefix+key)
		deleted += n
		if err != nil {
			log.Error("failed to invalidate view", zap.String("key", key), zap.Error(err))
			return fmt.Errorf("invalidate %s: %w", key, err)
		}
	}

	log.Debug("views invalidated", zap.Strings("keys", keys), zap.Int("deleted", deleted))
	return nil
}

func (c *ViewCache) deletePrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", scanCount).Result()
		if err != nil {
			return deleted, err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return deleted, err
			}
			deleted += len(keys)
		}
		if next == 0 {
			return deleted, nil
		}
		cursor = next
	}
}
