package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-hclog"
)

// ResponseCache stores rendered JSON bodies by key. Generation changes on
// every clear so bodies rendered before a clear are never stored after it.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Generation(ctx context.Context) (int64, error)
}

type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *bodyRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// CacheResponses serves GET requests from cache, keyed by cache generation,
// path and query. Only 200 responses are stored, and only when no clear
// happened while the handler ran. Cache failures fall through to the handler.
func CacheResponses(cache ResponseCache, logger hclog.Logger) func(http.Handler) http.Handler {
	logger = logger.Named("cache")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || cache == nil {
				next.ServeHTTP(w, r)
				return
			}

			gen, err := cache.Generation(r.Context())
			if err != nil {
				logger.Warn("failed to read cache generation", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("%d:%s", gen, r.URL.RequestURI())
			body, ok, err := cache.Get(r.Context(), key)
			if err != nil {
				logger.Warn("failed to read response cache", "key", key, "error", err)
			}
			if ok {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.Write(body)
				return
			}

			w.Header().Set("X-Cache", "MISS")
			rec := &bodyRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status != http.StatusOK {
				return
			}

			// A write cleared the cache mid-request; the body may predate it
			if after, err := cache.Generation(r.Context()); err != nil || after != gen {
				return
			}
			if err := cache.Set(r.Context(), key, rec.body.Bytes()); err != nil {
				logger.Warn("failed to write response cache", "key", key, "error", err)
			}
		})
	}
}
