package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms-backend/pkg/apperror"
	"cms-backend/pkg/cache"
)

// fakeCache lưu JSON giống provider thật, có thể inject lỗi
type fakeCache struct {
	mu        sync.Mutex
	data      map[string][]byte
	ttls      map[string]time.Duration
	getErr    error
	setErr    error
	deleteErr error
	deleted   []string
}

var _ cache.Cache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return false, f.getErr
	}
	raw, ok := f.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.data[key] = raw
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeCache) DeleteByPrefix(_ context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, prefix)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			delete(f.data, k)
		}
	}
	return nil
}

func (f *fakeCache) Ping(context.Context) error { return nil }

type listQuery struct {
	Page   int
	Search string
	ttl    time.Duration
}

func (q listQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Page, validation.Required, validation.Min(1)),
	)
}
func (q listQuery) CacheKey() string        { return "items:list:" + q.Search }
func (q listQuery) CacheTTL() time.Duration { return q.ttl }

type renameCommand struct {
	Name     string
	prefixes []string
}

func (c renameCommand) Validate() error {
	return validation.ValidateStruct(&c, validation.Field(&c.Name, validation.Required))
}
func (c renameCommand) InvalidatePrefixes() []string { return c.prefixes }

type page struct {
	Items []string `json:"items"`
	Total int      `json:"total"`
}

func countingHandler(calls *int) Handler[listQuery, page] {
	return func(_ context.Context, q listQuery) (page, error) {
		*calls++
		return page{Items: []string{"a-" + q.Search}, Total: 1}, nil
	}
}

func TestQuery_SecondCallIsCacheHit(t *testing.T) {
	c := newFakeCache()
	p := New(c, 0)
	calls := 0
	h := Query(p, countingHandler(&calls))

	q := listQuery{Page: 1, Search: "go"}
	first, err := h(context.Background(), q)
	require.NoError(t, err)
	second, err := h(context.Background(), q)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first, second)
	assert.Equal(t, DefaultCacheTTL, c.ttls["items:list:go"])
}

func TestQuery_DistinctKeysDoNotCollide(t *testing.T) {
	p := New(newFakeCache(), time.Minute)
	calls := 0
	h := Query(p, countingHandler(&calls))

	a, err := h(context.Background(), listQuery{Page: 1, Search: "a"})
	require.NoError(t, err)
	b, err := h(context.Background(), listQuery{Page: 1, Search: "b"})
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
	assert.NotEqual(t, a, b)
}

func TestQuery_DeclaredTTLWins(t *testing.T) {
	c := newFakeCache()
	h := Query(New(c, time.Minute), countingHandler(new(int)))

	_, err := h(context.Background(), listQuery{Page: 1, Search: "x", ttl: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, c.ttls["items:list:x"])
}

func TestQuery_ValidationShortCircuits(t *testing.T) {
	calls := 0
	h := Query(New(newFakeCache(), 0), countingHandler(&calls))

	_, err := h(context.Background(), listQuery{Page: 0})
	require.Error(t, err)
	assert.Equal(t, 0, calls)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Contains(t, appErr.Fields, "Page")
}

func TestQuery_CacheFailureDegradesToHandler(t *testing.T) {
	c := newFakeCache()
	c.getErr = errors.New("redis down")
	c.setErr = errors.New("redis down")
	calls := 0
	h := Query(New(c, 0), countingHandler(&calls))

	for i := 0; i < 2; i++ {
		res, err := h(context.Background(), listQuery{Page: 1, Search: "go"})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
	}
	assert.Equal(t, 2, calls)
}

func TestQuery_CancelledContextPropagates(t *testing.T) {
	c := newFakeCache()
	c.getErr = context.Canceled
	calls := 0
	h := Query(New(c, 0), countingHandler(&calls))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h(ctx, listQuery{Page: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestQuery_HandlerErrorIsNotCached(t *testing.T) {
	c := newFakeCache()
	notFound := apperror.NotFound("item not found")
	calls := 0
	h := Query(New(c, 0), func(context.Context, listQuery) (page, error) {
		calls++
		return page{}, notFound
	})

	for i := 0; i < 2; i++ {
		_, err := h(context.Background(), listQuery{Page: 1})
		assert.ErrorIs(t, err, notFound)
	}
	assert.Equal(t, 2, calls)
	assert.Empty(t, c.data)
}

func TestCommand_InvalidatesAfterSuccess(t *testing.T) {
	c := newFakeCache()
	p := New(c, 0)
	calls := 0
	read := Query(p, countingHandler(&calls))
	write := Command(p, func(context.Context, renameCommand) (string, error) { return "ok", nil })

	_, err := read(context.Background(), listQuery{Page: 1, Search: "go"})
	require.NoError(t, err)

	_, err = write(context.Background(), renameCommand{Name: "n", prefixes: []string{"items:list:", "items:list:", "items:id:1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"items:list:", "items:id:1"}, c.deleted)

	_, err = read(context.Background(), listQuery{Page: 1, Search: "go"})
	require.NoError(t, err)
	assert.Equal(t, 2, calls, "read after invalidating write must recompute")
}

func TestCommand_FailureSkipsInvalidation(t *testing.T) {
	c := newFakeCache()
	boom := errors.New("boom")
	write := Command(New(c, 0), func(context.Context, renameCommand) (string, error) { return "", boom })

	_, err := write(context.Background(), renameCommand{Name: "n", prefixes: []string{"items:"}})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, c.deleted)
}

func TestCommand_ValidationFailureSkipsHandler(t *testing.T) {
	c := newFakeCache()
	called := false
	write := Command(New(c, 0), func(context.Context, renameCommand) (string, error) {
		called = true
		return "", nil
	})

	_, err := write(context.Background(), renameCommand{prefixes: []string{"items:"}})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
	assert.False(t, called)
	assert.Empty(t, c.deleted)
}

func TestCommand_InvalidationFailureDoesNotFailWrite(t *testing.T) {
	c := newFakeCache()
	c.deleteErr = errors.New("redis down")
	write := Command(New(c, 0), func(context.Context, renameCommand) (string, error) { return "ok", nil })

	res, err := write(context.Background(), renameCommand{Name: "n", prefixes: []string{"items:"}})
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
}

func TestCommand_InvalidatesEvenIfClientCancelled(t *testing.T) {
	c := newFakeCache()
	ctx, cancel := context.WithCancel(context.Background())
	write := Command(New(c, 0), func(context.Context, renameCommand) (string, error) {
		cancel()
		return "ok", nil
	})

	_, err := write(ctx, renameCommand{Name: "n", prefixes: []string{"items:"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"items:"}, c.deleted)
}

func TestSend_ValidatesOnly(t *testing.T) {
	h := Send(New(nil, 0), func(_ context.Context, c renameCommand) (string, error) { return c.Name, nil })

	_, err := h(context.Background(), renameCommand{})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	res, err := h(context.Background(), renameCommand{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, "x", res)
}
