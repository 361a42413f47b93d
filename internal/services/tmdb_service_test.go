package services_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liamwears/reelcatalog/internal/services"
)

type tmdbStub struct {
	searchBody  string
	genreCalls  atomic.Int32
	searchCalls atomic.Int32
	lastAuth    atomic.Value
	lastQuery   atomic.Value
}

func (s *tmdbStub) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search/movie", func(w http.ResponseWriter, r *http.Request) {
		s.searchCalls.Add(1)
		s.lastAuth.Store(r.Header.Get("Authorization"))
		s.lastQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(s.searchBody))
	})
	mux.HandleFunc("GET /genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		s.genreCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":878,"name":"Science Fiction"}]}`))
	})
	return mux
}

func newTMDB(t *testing.T, stub *tmdbStub, cfg services.TMDBConfig) *services.TMDBService {
	t.Helper()
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	cfg.BaseURL = srv.URL
	cfg.ImageBaseURL = "https://image.tmdb.org/t/p/w500"
	return services.NewTMDBService(cfg, nil)
}

const inceptionResults = `{
	"page": 1,
	"results": [
		{"id": 27205, "title": "Inception", "release_date": "2010-07-15", "vote_average": 8.4,
		 "overview": "Dreams within dreams.", "poster_path": "/inception.jpg", "genre_ids": [28, 878, 9999]},
		{"id": 1, "title": "Inception: The Cobol Job", "release_date": "2010-12-07", "genre_ids": []}
	],
	"total_pages": 1,
	"total_results": 2
}`

func TestTMDBService_FetchMovieDataUsesFirstResult(t *testing.T) {
	stub := &tmdbStub{searchBody: inceptionResults}
	svc := newTMDB(t, stub, services.TMDBConfig{APIKey: "key123"})

	data, err := svc.FetchMovieData(context.Background(), "Inception")
	require.NoError(t, err)
	require.NotNil(t, data)

	assert.Equal(t, "Inception", *data.Title)
	assert.Equal(t, 2010, *data.Year)
	assert.Equal(t, []string{"Action", "Science Fiction"}, data.Genres, "unknown genre ids are skipped")
	assert.Equal(t, "Dreams within dreams.", *data.Description)
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/inception.jpg", *data.PosterURL)
	assert.Equal(t, 8.4, *data.Rating)

	query := stub.lastQuery.Load().(url.Values)
	assert.Equal(t, []string{"key123"}, query["api_key"])
	assert.Equal(t, []string{"Inception"}, query["query"])
	assert.Equal(t, []string{"false"}, query["include_adult"])
}

func TestTMDBService_GenreMapFetchedOnce(t *testing.T) {
	stub := &tmdbStub{searchBody: inceptionResults}
	svc := newTMDB(t, stub, services.TMDBConfig{APIKey: "key123"})
	ctx := context.Background()

	for range 3 {
		_, err := svc.FetchMovieData(ctx, "Inception")
		require.NoError(t, err)
	}

	assert.Equal(t, int32(3), stub.searchCalls.Load())
	assert.Equal(t, int32(1), stub.genreCalls.Load())
}

func TestTMDBService_NoResults(t *testing.T) {
	stub := &tmdbStub{searchBody: `{"page":1,"results":[],"total_pages":0,"total_results":0}`}
	svc := newTMDB(t, stub, services.TMDBConfig{APIKey: "key123"})

	data, err := svc.FetchMovieData(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Equal(t, int32(0), stub.genreCalls.Load())
}

func TestTMDBService_MissingPosterAndDate(t *testing.T) {
	stub := &tmdbStub{searchBody: `{"results":[{"id":5,"title":"Untitled","poster_path":null,"release_date":"","genre_ids":[]}]}`}
	svc := newTMDB(t, stub, services.TMDBConfig{APIKey: "key123"})

	data, err := svc.FetchMovieData(context.Background(), "Untitled")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Nil(t, data.PosterURL)
	assert.Nil(t, data.Year)
	assert.Nil(t, data.Rating)
	assert.Empty(t, data.Genres)
}

func TestTMDBService_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	svc := services.NewTMDBService(services.TMDBConfig{APIKey: "bad", BaseURL: srv.URL}, nil)

	_, err := svc.FetchMovieData(context.Background(), "Inception")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestTMDBService_ReadTokenSentAsBearer(t *testing.T) {
	stub := &tmdbStub{searchBody: inceptionResults}
	svc := newTMDB(t, stub, services.TMDBConfig{ReadToken: "v4-token"})

	_, err := svc.FetchMovieData(context.Background(), "Inception")
	require.NoError(t, err)

	assert.Equal(t, "Bearer v4-token", stub.lastAuth.Load())
	query := stub.lastQuery.Load().(url.Values)
	assert.NotContains(t, query, "api_key")
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		in   *string
		want *int
	}{
		{ptr("1999-03-31"), ptr(1999)},
		{ptr("2024"), ptr(2024)},
		{ptr("99"), nil},
		{ptr(""), nil},
		{ptr("abcd-01-01"), nil},
		{nil, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, services.ReleaseYear(tt.in))
	}
}
