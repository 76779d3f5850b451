package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/viccon/sturdyc"

	"cms-backend/pkg/cache"
)

// MemoryConfig cấu hình in-process cache (CACHE_DRIVER=memory)
type MemoryConfig struct {
	Capacity           int
	NumShards          int
	DefaultTTL         time.Duration
	EvictionPercentage int
	Instance           string
}

// memoryEntry giữ JSON giống Redis để caller không share pointer với cache,
// kèm expiry riêng vì sturdyc chỉ có một TTL cho cả client.
type memoryEntry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryCache implement pkg/cache.Cache trên sturdyc, dùng cho dev local và tests
type MemoryCache struct {
	client     *sturdyc.Client[memoryEntry]
	instance   string
	defaultTTL time.Duration
	maxTTL     time.Duration
	now        func() time.Time
}

var _ cache.Cache = (*MemoryCache)(nil)

func NewMemoryCache(cfg MemoryConfig) *MemoryCache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10000
	}
	if cfg.NumShards <= 0 {
		cfg.NumShards = 64
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 60 * time.Second
	}
	if cfg.EvictionPercentage < 1 || cfg.EvictionPercentage > 100 {
		cfg.EvictionPercentage = 10
	}

	// sturdyc TTL là trần; expiry thật của từng entry nằm trong memoryEntry
	maxTTL := 24 * time.Hour
	return &MemoryCache{
		client:     sturdyc.New[memoryEntry](cfg.Capacity, cfg.NumShards, maxTTL, cfg.EvictionPercentage),
		instance:   cfg.Instance,
		defaultTTL: cfg.DefaultTTL,
		maxTTL:     maxTTL,
		now:        time.Now,
	}
}

func (c *MemoryCache) key(k string) string {
	return c.instance + k
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	entry, ok := c.client.Get(c.key(key))
	if !ok {
		return false, nil
	}
	if !c.now().Before(entry.expiresAt) {
		c.client.Delete(c.key(key))
		return false, nil
	}
	if err := json.Unmarshal(entry.raw, dest); err != nil {
		return false, nil
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memory cache set %s: encode: %w", key, err)
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if ttl > c.maxTTL {
		ttl = c.maxTTL
	}
	c.client.Set(c.key(key), memoryEntry{raw: raw, expiresAt: c.now().Add(ttl)})
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.client.Delete(c.key(k))
	}
	return nil
}

func (c *MemoryCache) DeleteByPrefix(ctx context.Context, prefix string) error {
	full := c.key(prefix)
	for _, k := range c.client.ScanKeys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(k, full) {
			c.client.Delete(k)
		}
	}
	return nil
}

func (c *MemoryCache) Ping(context.Context) error { return nil }

// Size trả về số entries hiện có (kể cả entries đã hết hạn nhưng chưa bị dọn)
func (c *MemoryCache) Size() int {
	return c.client.Size()
}
