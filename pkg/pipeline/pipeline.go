// Package pipeline wraps use-case handlers with the cross-cutting stages every
// request goes through: validation, read-through caching for queries and
// prefix invalidation after successful commands.
//
// A request type opts into a stage by implementing the matching interface, and
// the builder functions only accept types that do, so participation is decided
// at compile time.
package pipeline

import (
	"context"
	"time"

	"cms-backend/pkg/apperror"
	"cms-backend/pkg/cache"
	"cms-backend/pkg/logger"
)

const (
	DefaultCacheTTL   = 60 * time.Second
	invalidateTimeout = 5 * time.Second
)

// Request is anything that can be validated before dispatch.
type Request interface {
	Validate() error
}

// Cacheable queries declare a deterministic key and a TTL (<= 0 means default).
type Cacheable interface {
	Request
	CacheKey() string
	CacheTTL() time.Duration
}

// Invalidating commands declare the key prefixes to drop after they succeed.
type Invalidating interface {
	Request
	InvalidatePrefixes() []string
}

// Handler là một use case nhận request và trả về kết quả
type Handler[Req any, Res any] func(ctx context.Context, req Req) (Res, error)

// Pipeline giữ cache provider dùng chung cho các stage
type Pipeline struct {
	cache      cache.Cache
	defaultTTL time.Duration
}

// New tạo pipeline. c == nil tương đương cache.Noop.
func New(c cache.Cache, defaultTTL time.Duration) *Pipeline {
	if c == nil {
		c = cache.Noop{}
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultCacheTTL
	}
	return &Pipeline{cache: c, defaultTTL: defaultTTL}
}

// Send chỉ có stage validation.
func Send[Req Request, Res any](p *Pipeline, h Handler[Req, Res]) Handler[Req, Res] {
	return func(ctx context.Context, req Req) (Res, error) {
		if err := validate(req); err != nil {
			var zero Res
			return zero, err
		}
		return h(ctx, req)
	}
}

// Query: validation -> cache lookup -> handler on miss -> cache set.
// Cache errors degrade to a direct handler call.
func Query[Req Cacheable, Res any](p *Pipeline, h Handler[Req, Res]) Handler[Req, Res] {
	return func(ctx context.Context, req Req) (Res, error) {
		var zero Res
		if err := validate(req); err != nil {
			return zero, err
		}

		log := logger.FromContext(ctx)
		key := req.CacheKey()

		var cached Res
		found, err := p.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return zero, ctxErr
			}
			log.Warn().Err(err).Str("cache_key", key).Msg("cache read failed, treating as miss")
		case found:
			log.Debug().Str("cache_key", key).Msg("cache hit")
			return cached, nil
		}

		res, err := h(ctx, req)
		if err != nil {
			return zero, err
		}

		ttl := req.CacheTTL()
		if ttl <= 0 {
			ttl = p.defaultTTL
		}
		if err := p.cache.Set(ctx, key, res, ttl); err != nil {
			log.Warn().Err(err).Str("cache_key", key).Msg("cache write failed")
		} else {
			log.Debug().Str("cache_key", key).Dur("ttl", ttl).Msg("cache set")
		}

		return res, nil
	}
}

// Command: validation -> handler -> invalidate every declared prefix.
// Nothing is invalidated when the handler fails.
func Command[Req Invalidating, Res any](p *Pipeline, h Handler[Req, Res]) Handler[Req, Res] {
	return func(ctx context.Context, req Req) (Res, error) {
		var zero Res
		if err := validate(req); err != nil {
			return zero, err
		}

		res, err := h(ctx, req)
		if err != nil {
			return zero, err
		}

		p.invalidate(ctx, req.InvalidatePrefixes())
		return res, nil
	}
}

// invalidate chạy sau khi write đã commit nên không phụ thuộc vào việc
// client còn chờ hay không.
func (p *Pipeline) invalidate(ctx context.Context, prefixes []string) {
	if len(prefixes) == 0 {
		return
	}
	log := logger.FromContext(ctx)

	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()

	seen := make(map[string]struct{}, len(prefixes))
	for _, prefix := range prefixes {
		if prefix == "" {
			continue
		}
		if _, dup := seen[prefix]; dup {
			continue
		}
		seen[prefix] = struct{}{}

		if err := p.cache.DeleteByPrefix(ictx, prefix); err != nil {
			log.Warn().Err(err).Str("prefix", prefix).Msg("cache invalidation failed")
			continue
		}
		log.Debug().Str("prefix", prefix).Msg("cache invalidate")
	}
}

func validate(req Request) error {
	if err := req.Validate(); err != nil {
		return apperror.Validation(err)
	}
	return nil
}
