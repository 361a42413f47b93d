package handlers

import (
	"net/http"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/liamwears/reelcatalog/internal/middleware"
	"github.com/liamwears/reelcatalog/internal/services"
)

// Router collects everything the HTTP API is assembled from
type Router struct {
	Auth      *AuthHandler
	Movies    *MovieHandler
	Directors *PersonHandler
	Actors    *PersonHandler
	Metadata  *MetadataHandler
	Health    *HealthHandler

	AuthMiddleware *middleware.AuthMiddleware
	RateLimiter    *middleware.RateLimiter
	Cache          middleware.ResponseCache
	Logger         hclog.Logger
}

// handle registers h for path with and without a trailing slash
func handle(mux *http.ServeMux, method, path string, h http.Handler) {
	path = strings.TrimSuffix(path, "/")
	mux.Handle(method+" "+path, h)
	mux.Handle(method+" "+path+"/{$}", h)
}

// Handler builds the API mux. Reads are public; writes require a bearer
// access token and are rate limited.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	limit := func(h http.Handler) http.Handler {
		if rt.RateLimiter == nil {
			return h
		}
		return rt.RateLimiter.Limit(h)
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return rt.AuthMiddleware.RequireAuth(limit(h))
	}

	// Auth
	handle(mux, "POST", "/api/auth/register", limit(http.HandlerFunc(rt.Auth.Register)))
	handle(mux, "POST", "/api/auth/login", limit(http.HandlerFunc(rt.Auth.Login)))
	handle(mux, "POST", "/api/auth/refresh", limit(http.HandlerFunc(rt.Auth.Refresh)))
	handle(mux, "POST", "/api/auth/logout", protected(rt.Auth.Logout))

	// Movies
	cached := middleware.CacheResponses(rt.Cache, rt.Logger)
	handle(mux, "GET", "/api/movies", cached(http.HandlerFunc(rt.Movies.List)))
	handle(mux, "POST", "/api/movies", protected(rt.Movies.Create))
	handle(mux, "GET", "/api/movies/{id}", http.HandlerFunc(rt.Movies.Get))
	handle(mux, "PUT", "/api/movies/{id}", protected(rt.Movies.Update))
	handle(mux, "PATCH", "/api/movies/{id}", protected(rt.Movies.Update))
	handle(mux, "DELETE", "/api/movies/{id}", protected(rt.Movies.Delete))

	// Directors and actors
	for _, people := range []struct {
		path    string
		handler *PersonHandler
	}{
		{"/api/directors", rt.Directors},
		{"/api/actors", rt.Actors},
	} {
		handle(mux, "GET", people.path, http.HandlerFunc(people.handler.List))
		handle(mux, "POST", people.path, protected(people.handler.Create))
		handle(mux, "GET", people.path+"/{id}", http.HandlerFunc(people.handler.Get))
		handle(mux, "PUT", people.path+"/{id}", protected(people.handler.Update))
		handle(mux, "PATCH", people.path+"/{id}", protected(people.handler.Update))
		handle(mux, "DELETE", people.path+"/{id}", protected(people.handler.Delete))
	}

	// Metadata provider
	handle(mux, "GET", "/api/metadata/search", protected(rt.Metadata.Search))

	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health.Check)
	}

	return middleware.RequestLogger(rt.Logger)(rt.unmatched(mux))
}

// statusOnly captures the status the mux picked and drops its plain-text body
type statusOnly struct {
	header http.Header
	status int
}

func (s *statusOnly) Header() http.Header         { return s.header }
func (s *statusOnly) Write(b []byte) (int, error) { return len(b), nil }
func (s *statusOnly) WriteHeader(status int)      { s.status = status }

// unmatched answers requests no route accepts with the JSON error shape
func (rt *Router) unmatched(mux *http.ServeMux) http.Handler {
	logger := rt.Logger.Named("router")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, pattern := mux.Handler(r)
		if pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}

		// Let the mux decide between 404 and 405 and set Allow
		rec := &statusOnly{header: w.Header()}
		h.ServeHTTP(rec, r)

		if rec.status == http.StatusMethodNotAllowed {
			writeError(w, r, logger, "router", &methodNotAllowedError{method: r.Method})
			return
		}
		writeError(w, r, logger, "router", services.ErrNotFound)
	})
}
