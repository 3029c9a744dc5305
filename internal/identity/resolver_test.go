package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/kvstore"
)

func TestGetUserIdentifierIsStable(t *testing.T) {
	mem, err := kvstore.NewMemory(8)
	require.NoError(t, err)
	ctx := context.Background()

	r := NewResolver(mem)
	first, err := r.GetUserIdentifier(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(first, "v_"))

	second, err := r.GetUserIdentifier(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// 新的解析器实例（新会话）读取到同一个标识
	again, err := NewResolver(mem).GetUserIdentifier(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestGetUserIdentifierConcurrentFirstCall(t *testing.T) {
	mem, err := kvstore.NewMemory(8)
	require.NoError(t, err)

	var n int
	r := NewResolver(mem, WithGenerator(func() string {
		n++
		return "U" + string(rune('0'+n))
	}))

	var wg sync.WaitGroup
	ids := make([]string, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id, err := r.GetUserIdentifier(context.Background())
			assert.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, "U1", id)
	}
	assert.Equal(t, 1, n)
}

func TestNewVisitorIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewVisitorID()
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

type failingStore struct{ err error }

func (f failingStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (f failingStore) Set(context.Context, string, []byte) error         { return f.err }

func TestGetUserIdentifierPersistFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	_, err := NewResolver(failingStore{err: boom}).GetUserIdentifier(context.Background())
	assert.ErrorIs(t, err, boom)
}
