package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamwears/reelcatalog/internal/models"
	"github.com/liamwears/reelcatalog/internal/services"
	"github.com/liamwears/reelcatalog/internal/store/memstore"
)

type fakeTokens struct {
	claims map[string]*services.Claims
}

func (f fakeTokens) ParseAccess(token string) (*services.Claims, error) {
	if c, ok := f.claims[token]; ok {
		return c, nil
	}
	return nil, services.ErrInvalidToken
}

type fakeUsers map[uuid.UUID]*models.User

func (f fakeUsers) Get(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, services.ErrNotFound
}

func TestRequireAuth(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "ada"}
	ghost := uuid.New()

	claims := func(id uuid.UUID) *services.Claims {
		c := &services.Claims{TokenType: services.TokenTypeAccess}
		c.Subject = id.String()
		return c
	}
	auth := NewAuthMiddleware(
		fakeTokens{claims: map[string]*services.Claims{"good": claims(user.ID), "ghost": claims(ghost)}},
		fakeUsers{user.ID: user},
		hclog.NewNullLogger(),
	)

	var seen *models.User
	handler := auth.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r.Context())
		id, ok := GetUserIDFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, user.ID, id)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Basic abc", http.StatusUnauthorized},
		{"Bearer ", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer ghost", http.StatusUnauthorized},
		{"Bearer good", http.StatusNoContent},
		{"bearer good", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/movies/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, tt.header)
		if tt.status == http.StatusUnauthorized {
			assert.Contains(t, rec.Body.String(), `"error"`)
		}
	}
	require.NotNil(t, seen)
	assert.Equal(t, "ada", seen.Username)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1:5555", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.2")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("redis down")
}
func (failingCache) Set(context.Context, string, []byte) error { return errors.New("redis down") }
func (failingCache) Generation(context.Context) (int64, error) {
	return 0, errors.New("redis down")
}

func TestCacheResponses(t *testing.T) {
	cache := memstore.NewCache(time.Minute)
	calls := 0
	status := http.StatusOK
	handler := CacheResponses(cache, hclog.NewNullLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`[{"id":1}]`))
	}))

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	first := get("/api/movies/?year=2010")
	second := get("/api/movies/?year=2010")
	assert.Equal(t, 1, calls)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Body.String(), second.Body.String())

	get("/api/movies/?year=2011")
	assert.Equal(t, 2, calls, "query string is part of the key")

	status = http.StatusInternalServerError
	get("/api/movies/?year=1999")
	get("/api/movies/?year=1999")
	assert.Equal(t, 4, calls, "errors are not cached")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/movies/", nil))
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCacheResponses_ClearDuringRequestIsNotStored(t *testing.T) {
	cache := memstore.NewCache(time.Minute)
	calls := 0
	handler := CacheResponses(cache, hclog.NewNullLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		body := []byte(`[]`)
		if calls == 1 {
			// a concurrent write lands after the list was read
			require.NoError(t, cache.Clear(r.Context()))
		}
		w.Write(body)
	}))

	get := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies/", nil))
		return rec
	}

	assert.Equal(t, "MISS", get().Header().Get("X-Cache"))
	assert.Equal(t, 0, cache.Len())

	assert.Equal(t, "MISS", get().Header().Get("X-Cache"))
	assert.Equal(t, "HIT", get().Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)
}

func TestCacheResponses_FailingBackendFallsThrough(t *testing.T) {
	handler := CacheResponses(failingCache{}, hclog.NewNullLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `[]`, rec.Body.String())
}

func TestRateLimiter_DisabledOutsideProduction(t *testing.T) {
	rl := NewRateLimiter(nil, 1, time.Minute, false, hclog.NewNullLogger())
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	for range 3 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login/", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}

func TestRateLimiter_Production(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	rl := NewRateLimiter(client, 2, time.Minute, true, hclog.NewNullLogger())
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	post := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login/", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, post("10.0.0.1:1000").Code)
	assert.Equal(t, http.StatusCreated, post("10.0.0.1:1000").Code)

	limited := post("10.0.0.1:1000")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "60", limited.Header().Get("Retry-After"))
	assert.Contains(t, limited.Body.String(), "Too many requests")

	assert.Equal(t, http.StatusCreated, post("10.0.0.2:1000").Code, "other clients keep their own window")
	assert.True(t, mr.Exists("ratelimit:ip:10.0.0.1:1000"))
}

func TestRateLimiter_BackendDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	rl := NewRateLimiter(client, 2, time.Minute, true, hclog.NewNullLogger())
	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "[INFO]"},
		{http.StatusNoContent, "[INFO]"},
		{http.StatusNotFound, "[WARN]"},
		{http.StatusMethodNotAllowed, "[WARN]"},
		{http.StatusInternalServerError, "[ERROR]"},
		{http.StatusBadGateway, "[ERROR]"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := hclog.New(&hclog.LoggerOptions{Output: &buf, Level: hclog.Trace})
		handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/movies/", nil))
		assert.Equal(t, tt.status, rec.Code)
		assert.Contains(t, buf.String(), tt.level, "status %d", tt.status)
		assert.Contains(t, buf.String(), "http: request")
	}
}
