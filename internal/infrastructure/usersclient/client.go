package usersclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"github.com/viccon/sturdyc"

	"cms-backend/internal/domains/content"
	"cms-backend/internal/shared"
	"cms-backend/pkg/apperror"
	"cms-backend/pkg/logger"
)

const (
	briefPath = "/api/v1/users/%s/brief"
	loginPath = "/api/v1/auth/login"

	// chừa lại cho caller sau khi call sang user service timeout
	deadlineMargin = 100 * time.Millisecond
	maxBodyBytes   = 1 << 20
)

// Config cho Client. Giá trị 0 dùng default.
type Config struct {
	BaseURL          string
	Timeout          time.Duration
	Retries          int
	RetryBaseDelay   time.Duration
	BreakerThreshold uint32
	BreakerCooldown  time.Duration
	// BriefCacheTTL > 0 bật memo brief trong process
	BriefCacheTTL time.Duration
	HTTPClient    *http.Client
}

func (c *Config) setDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = 3 * time.Second
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 200 * time.Millisecond
	}
	if c.BreakerThreshold == 0 {
		c.BreakerThreshold = 5
	}
	if c.BreakerCooldown <= 0 {
		c.BreakerCooldown = 30 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
}

// Client gọi user service để lấy brief của tác giả.
// Mỗi lần gọi: retry (backoff + jitter) -> circuit breaker -> timeout từng attempt.
type Client struct {
	cfg     Config
	http    *http.Client
	tokens  TokenProvider
	breaker *gobreaker.CircuitBreaker
	memo    *sturdyc.Client[*shared.UserBrief]
}

var _ content.AuthorDirectory = (*Client)(nil)

func New(cfg Config, tokens TokenProvider) (*Client, error) {
	cfg.setDefaults()

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid users base url %q", cfg.BaseURL)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if tokens == nil {
		return nil, errors.New("token provider is required")
	}

	c := &Client{
		cfg:    cfg,
		http:   cfg.HTTPClient,
		tokens: tokens,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "users-service",
		MaxRequests: 1,
		Timeout:     cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerThreshold
		},
		IsSuccessful: func(err error) bool {
			// caller hủy hoặc lỗi 4xx không phải lỗi của user service
			return err == nil || errors.Is(err, context.Canceled) || !isTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("[USERS] circuit breaker state changed")
		},
	})

	if cfg.BriefCacheTTL > 0 {
		c.memo = sturdyc.New[*shared.UserBrief](10000, 16, cfg.BriefCacheTTL, 10)
	}

	return c, nil
}

// BreakerState dùng cho readiness và tests
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

// GetUserBrief trả nil, nil khi user không tồn tại (404).
// Lỗi khác được bọc thành apperror UpstreamUnavailable, trừ khi ctx đã bị hủy.
func (c *Client) GetUserBrief(ctx context.Context, id uuid.UUID) (*shared.UserBrief, error) {
	if c.memo == nil {
		return c.fetchBrief(ctx, id)
	}
	// GetOrFetch gộp các lookup đồng thời cho cùng một id
	return c.memo.GetOrFetch(ctx, id.String(), func(ctx context.Context) (*shared.UserBrief, error) {
		return c.fetchBrief(ctx, id)
	})
}

func (c *Client) fetchBrief(ctx context.Context, id uuid.UUID) (*shared.UserBrief, error) {
	var (
		brief   *shared.UserBrief
		attempt int
	)

	op := func() error {
		attempt++
		res, err := c.breaker.Execute(func() (interface{}, error) {
			return c.getBrief(ctx, id)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) || !isTransient(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		brief, _ = res.(*shared.UserBrief)
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.FromContext(ctx).Debug().Err(err).
			Int("attempt", attempt).
			Dur("wait", wait).
			Str("user_id", id.String()).
			Msg("[USERS] brief lookup failed, retrying")
	}

	if err := backoff.RetryNotify(op, c.retryPolicy(ctx), notify); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperror.Upstream("users service unavailable", err)
	}
	return brief, nil
}

// retryPolicy: base, 2*base, 4*base... với jitter ±50%, tối đa cfg.Retries lần retry
func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.RetryBaseDelay
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.cfg.Retries)), ctx)
}

// attemptContext: timeout của một attempt không vượt quá deadline của caller trừ margin
func (c *Client) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline) - deadlineMargin; remaining < timeout {
			timeout = remaining
		}
	}
	return context.WithTimeout(ctx, timeout)
}

// getBrief là một attempt duy nhất
func (c *Client) getBrief(ctx context.Context, id uuid.UUID) (*shared.UserBrief, error) {
	ctx, cancel := c.attemptContext(ctx)
	defer cancel()

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("service token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+fmt.Sprintf(briefPath, id), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	if cid := shared.CorrelationIDFrom(ctx); cid != "" {
		req.Header.Set(shared.CorrelationHeader, cid)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &transportError{err: err}
	}
	defer drain(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		var brief shared.UserBrief
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&brief); err != nil {
			return nil, fmt.Errorf("decode brief: %w", err)
		}
		return &brief, nil
	case http.StatusNotFound:
		return nil, nil
	case http.StatusUnauthorized:
		// token có thể đã bị từ chối (đổi key, lệch giờ); lần sau lấy token mới
		c.tokens.Invalidate()
		return nil, &StatusError{Op: opBrief, Code: resp.StatusCode}
	default:
		return nil, &StatusError{Op: opBrief, Code: resp.StatusCode}
	}
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxBodyBytes))
	_ = body.Close()
}
