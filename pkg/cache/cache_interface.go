package cache

import (
	"context"
	"time"
)

// Cache interface định nghĩa contract cho cache layer
// Cho phép swap implementation (Redis, in-process sturdyc, noop)
type Cache interface {
	// Get lấy data từ cache và unmarshal vào dest
	// Returns: (found bool, error)
	// - found = true: cache hit, data đã unmarshal vào dest
	// - found = false: cache miss, dest không bị thay đổi
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set lưu data vào cache với TTL. ttl <= 0 dùng TTL mặc định của provider
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Delete xóa các keys khỏi cache
	Delete(ctx context.Context, keys ...string) error

	// DeleteByPrefix xóa mọi key bắt đầu bằng prefix.
	// Best-effort: nếu bị ngắt giữa chừng, một phần keys có thể đã bị xóa.
	DeleteByPrefix(ctx context.Context, prefix string) error

	// Ping kiểm tra connection
	Ping(ctx context.Context) error
}
