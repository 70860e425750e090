package idempotency

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewStore(rdb, time.Minute), mr
}

func TestStore_Seen(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	key := s.Key("order.events", 2, 41)
	assert.Equal(t, "idem:order.events:2:41", key)

	seen, err := s.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)

	seen, err = s.Seen(ctx, key)
	require.NoError(t, err)
	assert.True(t, seen)

	mr.FastForward(2 * time.Minute)
	seen, err = s.Seen(ctx, key)
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestStore_Forget(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()

	_, err := s.Seen(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, s.Forget(ctx, "k"))

	seen, err := s.Seen(ctx, "k")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMiddleware(t *testing.T) {
	s, _ := newStore(t)
	calls := 0
	status := http.StatusOK
	h := Middleware(slog.New(slog.NewTextHandler(io.Discard, nil)), s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	do := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/orders/o-1/submit", nil)
		if key != "" {
			req.Header.Set(HeaderKey, key)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("abc"))
	assert.Equal(t, http.StatusConflict, do("abc"))
	assert.Equal(t, http.StatusOK, do("other"))
	assert.Equal(t, http.StatusOK, do(""))
	assert.Equal(t, http.StatusOK, do(""))
	assert.Equal(t, 4, calls)

	status = http.StatusInternalServerError
	assert.Equal(t, http.StatusInternalServerError, do("retry-me"))
	status = http.StatusOK
	assert.Equal(t, http.StatusOK, do("retry-me"))
}

func TestMiddleware_RedisDownPassesThrough(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
	t.Cleanup(func() { _ = rdb.Close() })
	s := NewStore(rdb, time.Minute)

	calls := 0
	h := Middleware(slog.New(slog.NewTextHandler(io.Discard, nil)), s)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	req := httptest.NewRequest(http.MethodPost, "/orders/o-1/submit", nil)
	req.Header.Set(HeaderKey, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)
}
