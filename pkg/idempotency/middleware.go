package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const HeaderKey = "Idempotency-Key"

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(topic string, partition int, offset int64) string {
	return fmt.Sprintf("idem:%s:%d:%d", topic, partition, offset)
}

// Seen marks key and reports whether it had already been marked within ttl.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}

	return !ok, nil
}

// Forget removes key so the operation it guards may run again.
func (s *Store) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Middleware rejects a repeated request carrying the same Idempotency-Key
// header with 409. Requests without the header pass through. When Redis is
// unavailable requests pass through as well. A request that ends with a 5xx
// releases its key.
func Middleware(log *slog.Logger, s *Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := r.Header.Get(HeaderKey)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}
			key := fmt.Sprintf("idem:http:%s:%s:%s", r.Method, r.URL.Path, k)
			seen, err := s.Seen(r.Context(), key)
			if err != nil {
				log.WarnContext(r.Context(), "idempotency check failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				log.InfoContext(r.Context(), "duplicate request rejected", "key", key)
				http.Error(w, "duplicate request", http.StatusConflict)
				return
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			if sw.status >= http.StatusInternalServerError {
				if err := s.Forget(r.Context(), key); err != nil {
					log.WarnContext(r.Context(), "idempotency release failed", "key", key, "err", err)
				}
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
