package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"cms-backend/pkg/cache"
	"cms-backend/pkg/logger"
)

const defaultScanPageSize = 500

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(addr, password string, db, poolSize int) *RedisClient {
	if poolSize <= 0 {
		poolSize = 10
	}
	return &RedisClient{
		Client: redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     password,
			DB:           db,
			PoolSize:     poolSize,
			MinIdleConns: 2,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}),
	}
}

func (r *RedisClient) Connect(ctx context.Context) error {
	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	log.Info().Str("addr", r.Client.Options().Addr).Msg("[REDIS] connected")
	return nil
}

func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}

func (r *RedisClient) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// RedisCache implement pkg/cache.Cache trên Redis. Value lưu dạng JSON,
// mọi key được prefix bằng instance namespace của deployment.
type RedisCache struct {
	client       redis.UniversalClient
	instance     string
	defaultTTL   time.Duration
	scanPageSize int64
}

var _ cache.Cache = (*RedisCache)(nil)

func NewRedisCache(client redis.UniversalClient, instance string, defaultTTL time.Duration, scanPageSize int64) *RedisCache {
	if scanPageSize <= 0 {
		scanPageSize = defaultScanPageSize
	}
	return &RedisCache{
		client:       client,
		instance:     instance,
		defaultTTL:   defaultTTL,
		scanPageSize: scanPageSize,
	}
}

func (c *RedisCache) key(k string) string {
	return c.instance + k
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// entry hỏng (vd DTO đổi shape sau deploy) được coi như miss
		logger.FromContext(ctx).Warn().Err(err).Str("cache_key", key).Msg("[REDIS] cannot decode cached value")
		return false, nil
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis set %s: encode: %w", key, err)
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// DeleteByPrefix dùng SCAN (không dùng KEYS) để duyệt theo từng page và xóa
// từng key. Dừng lại khi ctx bị cancel, những key đã xóa thì không khôi phục.
func (c *RedisCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	pattern := escapeGlob(c.key(prefix)) + "*"

	var cursor uint64
	deleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		keys, next, err := c.client.Scan(ctx, cursor, pattern, c.scanPageSize).Result()
		if err != nil {
			return fmt.Errorf("redis scan %s: %w", prefix, err)
		}

		if len(keys) > 0 {
			pipe := c.client.Pipeline()
			for _, k := range keys {
				pipe.Del(ctx, k)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return fmt.Errorf("redis del by prefix %s: %w", prefix, err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	logger.FromContext(ctx).Debug().Str("prefix", prefix).Int("deleted", deleted).Msg("[REDIS] delete by prefix")
	return nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// escapeGlob escape các ký tự đặc biệt của Redis MATCH pattern
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
