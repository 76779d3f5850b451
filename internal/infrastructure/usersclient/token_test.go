package usersclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-backend/pkg/jwt"
)

type countingSource struct {
	calls   atomic.Int32
	ttl     time.Duration
	now     func() time.Time
	release chan struct{}
	err     error
}

func (s *countingSource) FetchToken(ctx context.Context) (Token, error) {
	n := s.calls.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return Token{}, ctx.Err()
		}
	}
	if s.err != nil {
		return Token{}, s.err
	}
	return Token{Value: "tok-" + string(rune('0'+n)), ExpiresAt: s.now().Add(s.ttl)}, nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newProvider(src *countingSource, clock *fakeClock) *CachedTokenProvider {
	src.now = clock.Now
	p := NewCachedTokenProvider(src, time.Minute)
	p.now = clock.Now
	return p
}

func TestCachedTokenProvider_ReusesUntilRefreshWindow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	src := &countingSource{ttl: 10 * time.Minute}
	p := newProvider(src, clock)
	ctx := context.Background()

	tok, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	clock.Advance(8 * time.Minute)
	tok, err = p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, int32(1), src.calls.Load())

	// còn dưới 1 phút trước expiry -> refresh
	clock.Advance(time.Minute + time.Second)
	tok, err = p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCachedTokenProvider_SingleRefreshInFlight(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	src := &countingSource{ttl: time.Hour, release: make(chan struct{})}
	p := newProvider(src, clock)

	const callers = 10
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Token(context.Background())
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "tok-1", results[i])
	}
}

func TestCachedTokenProvider_WaiterHonoursContext(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	src := &countingSource{ttl: time.Hour, release: make(chan struct{})}
	p := newProvider(src, clock)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = p.Token(context.Background())
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := p.Token(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(src.release)
	<-done
}

func TestCachedTokenProvider_ErrorIsNotCached(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	src := &countingSource{ttl: time.Hour, err: errors.New("login failed")}
	p := newProvider(src, clock)

	_, err := p.Token(context.Background())
	require.Error(t, err)

	src.err = nil
	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}

func TestCachedTokenProvider_Invalidate(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	src := &countingSource{ttl: time.Hour}
	p := newProvider(src, clock)

	_, err := p.Token(context.Background())
	require.NoError(t, err)
	p.Invalidate()

	tok, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}

func TestLoginTokenSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, loginPath, r.URL.Path)

		var req loginRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Email != "svc@cms.local" || req.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(loginResponse{AccessToken: "abc", TokenType: "Bearer", ExpiresIn: 3600})
	}))
	defer srv.Close()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	src := NewLoginTokenSource(srv.URL, "svc@cms.local", "secret", nil)
	src.now = func() time.Time { return now }
	tok, err := src.FetchToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", tok.Value)
	assert.Equal(t, now.Add(time.Hour), tok.ExpiresAt)

	bad := NewLoginTokenSource(srv.URL, "svc@cms.local", "wrong", nil)
	_, err = bad.FetchToken(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
	assert.False(t, isTransient(err))
}

func TestSignedTokenSource(t *testing.T) {
	m, err := jwt.NewManager(jwt.Options{
		Key:             "0123456789abcdef0123456789abcdef",
		Issuer:          "cms-users",
		Audience:        "cms-clients",
		ServiceTokenTTL: 30 * time.Minute,
	})
	require.NoError(t, err)

	src := NewSignedTokenSource(m, "content-service", "s2s:users.read", "Service")
	tok, err := src.FetchToken(context.Background())
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), tok.ExpiresAt, 5*time.Second)

	claims, err := m.ValidateToken(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "content-service", claims.Subject)
	assert.Equal(t, jwt.TokenTypeService, claims.Type)
	assert.True(t, claims.HasScope("s2s:users.read"))
	assert.True(t, claims.HasRole("Service"))
}
