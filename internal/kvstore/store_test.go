package kvstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", []byte("v1")))
	require.NoError(t, s.Set(ctx, "k", []byte("v2")))

	val, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", string(val), "last write wins")
}

func TestMemoryStore(t *testing.T) {
	m, err := NewMemory(2)
	require.NoError(t, err)
	exerciseStore(t, m)

	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, m.Set(ctx, "copy", buf))
	buf[0] = 'x'
	val, _, _ := m.Get(ctx, "copy")
	assert.Equal(t, "abc", string(val))

	require.NoError(t, m.Set(ctx, "third", []byte("3")))
	assert.Equal(t, 2, m.Len(), "bounded by capacity")
}

func TestRedisStore(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	s := NewRedis(client, "newsroom:")
	exerciseStore(t, s)

	raw, err := srv.Get("newsroom:k")
	require.NoError(t, err)
	assert.Equal(t, "v2", raw)
	assert.Equal(t, 0, int(srv.TTL("newsroom:k")), "entries carry no ttl")
}

func TestRedisStoreUnavailable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	srv.Close()

	_, _, err := NewRedis(client, "").Get(context.Background(), "k")
	assert.Error(t, err)
}

func TestSessionStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("secret"))))
	r.GET("/set", func(c *gin.Context) {
		s := NewSession(sessions.Default(c))
		if err := s.Set(c, "visitor", []byte("v_1")); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusOK)
	})
	r.GET("/get", func(c *gin.Context) {
		val, ok, err := NewSession(sessions.Default(c)).Get(c, "visitor")
		if err != nil || !ok {
			c.Status(http.StatusNotFound)
			return
		}
		c.String(http.StatusOK, string(val))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/set", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/get", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v_1", w.Body.String())
}
