package cacheaside

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/kvstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeClock, Codec[string]) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	mem, err := kvstore.NewMemory(16)
	require.NoError(t, err)
	return New(zerolog.Nop(), WithClock(clock.Now)), clock, StoreCodec[string](mem)
}

func request(codec Codec[string], ttl time.Duration, fetch FetchFunc[string]) Request[string] {
	return Request[string]{
		Key:    "article:1:stats",
		Family: "article_stats",
		TTL:    ttl,
		Fetch:  fetch,
		Read:   codec.Read,
		Write:  codec.Write,
	}
}

func TestGetOrFetchFreshness(t *testing.T) {
	c, clock, codec := newTestCoordinator(t)
	ctx := context.Background()

	var calls int32
	req := request(codec, time.Minute, func(context.Context) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		return "v" + string(rune('0'+n)), nil
	})

	v, err := GetOrFetch(ctx, c, req)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)

	clock.Advance(30 * time.Second)
	v, err = GetOrFetch(ctx, c, req)
	require.NoError(t, err)
	assert.Equal(t, "v1", v)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "second call within ttl is served from cache")

	clock.Advance(31 * time.Second)
	v, err = GetOrFetch(ctx, c, req)
	require.NoError(t, err)
	assert.Equal(t, "v2", v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "stale entry triggers a new fetch")
}

func TestGetOrFetchCoalescesConcurrentMisses(t *testing.T) {
	c, _, codec := newTestCoordinator(t)
	ctx := context.Background()

	var calls int32
	release := make(chan struct{})
	req := request(codec, time.Minute, func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "shared", nil
	})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]string, callers)
	started := make(chan struct{}, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			started <- struct{}{}
			v, err := GetOrFetch(ctx, c, req)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	for i := 0; i < callers; i++ {
		<-started
	}
	// 给其余调用方时间加入同一次回源
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "shared", r)
	}
}

func TestGetOrFetchFailureKeepsStaleEntry(t *testing.T) {
	c, clock, codec := newTestCoordinator(t)
	ctx := context.Background()

	ok := request(codec, time.Minute, func(context.Context) (string, error) { return "good", nil })
	_, err := GetOrFetch(ctx, c, ok)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	boom := errors.New("backend down")
	failing := request(codec, time.Minute, func(context.Context) (string, error) { return "", boom })
	_, err = GetOrFetch(ctx, c, failing)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	entry, found := Peek(ctx, codec.Read, failing.Key)
	require.True(t, found, "stale value is still readable after a failed fetch")
	assert.Equal(t, "good", entry.Value)
}

func TestGetOrFetchFailureWithoutEntryWritesNothing(t *testing.T) {
	c, _, codec := newTestCoordinator(t)
	ctx := context.Background()

	failing := request(codec, time.Minute, func(context.Context) (string, error) {
		return "poison", errors.New("timeout")
	})
	_, err := GetOrFetch(ctx, c, failing)
	require.Error(t, err)

	_, found := Peek(ctx, codec.Read, failing.Key)
	assert.False(t, found)
}

func TestRefreshIgnoresFreshness(t *testing.T) {
	c, clock, codec := newTestCoordinator(t)
	ctx := context.Background()

	var calls int32
	req := request(codec, time.Hour, func(context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return "before", nil
		}
		return "after", nil
	})

	_, err := GetOrFetch(ctx, c, req)
	require.NoError(t, err)

	clock.Advance(time.Second)
	v, err := Refresh(ctx, c, req)
	require.NoError(t, err)
	assert.Equal(t, "after", v)

	v, err = GetOrFetch(ctx, c, req)
	require.NoError(t, err)
	assert.Equal(t, "after", v)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestWriteFailureStillReturnsValue(t *testing.T) {
	c, _, codec := newTestCoordinator(t)
	req := request(codec, time.Minute, func(context.Context) (string, error) { return "v", nil })
	req.Write = func(context.Context, string, Entry[string]) error { return errors.New("disk full") }

	v, err := GetOrFetch(context.Background(), c, req)
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
