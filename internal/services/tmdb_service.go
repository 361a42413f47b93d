package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"

	"github.com/liamwears/reelcatalog/internal/models"
)

// TMDBService handles interactions with The Movie Database API
type TMDBService struct {
	client       *http.Client
	apiKey       string
	baseURL      string
	imageBaseURL string
	logger       hclog.Logger

	genreMu sync.Mutex
	genres  map[int]string
}

// TMDBConfig holds TMDB service configuration
type TMDBConfig struct {
	// APIKey is the v3 key sent as the api_key query parameter
	APIKey string
	// ReadToken is the v4 read access token; when set it is sent as a bearer token instead
	ReadToken    string
	BaseURL      string
	ImageBaseURL string
	Timeout      time.Duration
	HTTPClient   *http.Client
}

// NewTMDBService creates a new TMDB service
func NewTMDBService(cfg TMDBConfig, logger hclog.Logger) *TMDBService {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.ReadToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, client)
		client = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.ReadToken,
			TokenType:   "Bearer",
		}))
		client.Timeout = cfg.Timeout
	}

	return &TMDBService{
		client:       client,
		apiKey:       cfg.APIKey,
		baseURL:      cfg.BaseURL,
		imageBaseURL: cfg.ImageBaseURL,
		logger:       logger.Named("tmdb"),
	}
}

// TMDBMovie represents a movie search result from TMDB API
type TMDBMovie struct {
	ID          int      `json:"id"`
	Title       *string  `json:"title"`
	PosterPath  *string  `json:"poster_path"`
	ReleaseDate *string  `json:"release_date"`
	VoteAverage *float64 `json:"vote_average"`
	Overview    *string  `json:"overview"`
	GenreIDs    []int    `json:"genre_ids"`
}

// TMDBMovieResponse represents a movie search response
type TMDBMovieResponse struct {
	Page         int         `json:"page"`
	Results      []TMDBMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

// TMDBGenre is one entry of the genre list
type TMDBGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type tmdbGenreResponse struct {
	Genres []TMDBGenre `json:"genres"`
}

// doRequest performs an HTTP request to TMDB API
func (s *TMDBService) doRequest(ctx context.Context, endpoint string, params map[string]string) ([]byte, error) {
	url := fmt.Sprintf("%s%s", s.baseURL, endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	// Add query parameters
	q := req.URL.Query()
	if s.apiKey != "" {
		q.Add("api_key", s.apiKey)
	}
	q.Add("language", "en-US")
	for key, value := range params {
		q.Add(key, value)
	}
	req.URL.RawQuery = q.Encode()

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("TMDB API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// SearchMovies searches for movies
func (s *TMDBService) SearchMovies(ctx context.Context, query string, page int) (*TMDBMovieResponse, error) {
	if page < 1 {
		page = 1
	}

	params := map[string]string{
		"query":         query,
		"page":          strconv.Itoa(page),
		"include_adult": "false",
	}

	body, err := s.doRequest(ctx, "/search/movie", params)
	if err != nil {
		return nil, err
	}

	var response TMDBMovieResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal search results: %w", err)
	}

	return &response, nil
}

// GenreMap returns the genre id to name lookup. It is fetched once per process
// and never refreshed; a failed fetch is retried on the next call.
func (s *TMDBService) GenreMap(ctx context.Context) (map[int]string, error) {
	s.genreMu.Lock()
	defer s.genreMu.Unlock()

	if s.genres != nil {
		return s.genres, nil
	}

	body, err := s.doRequest(ctx, "/genre/movie/list", nil)
	if err != nil {
		return nil, err
	}

	var response tmdbGenreResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal genres: %w", err)
	}

	genres := make(map[int]string, len(response.Genres))
	for _, g := range response.Genres {
		genres[g.ID] = g.Name
	}
	s.genres = genres
	s.logger.Debug("genre map loaded", "genres", len(genres))

	return s.genres, nil
}

// FetchMovieData returns enrichment data for the best match of title,
// or nil when TMDB has no match.
func (s *TMDBService) FetchMovieData(ctx context.Context, title string) (*models.Enrichment, error) {
	result, err := s.SearchMovies(ctx, title, 1)
	if err != nil {
		return nil, err
	}
	if len(result.Results) == 0 {
		s.logger.Debug("no TMDB match", "title", title)
		return nil, nil
	}

	genreMap, err := s.GenreMap(ctx)
	if err != nil {
		return nil, err
	}

	movie := result.Results[0]
	genres := make([]string, 0, len(movie.GenreIDs))
	for _, id := range movie.GenreIDs {
		if name, ok := genreMap[id]; ok {
			genres = append(genres, name)
		}
	}

	return &models.Enrichment{
		Title:       movie.Title,
		Year:        releaseYear(movie.ReleaseDate),
		Genres:      genres,
		Description: movie.Overview,
		PosterURL:   s.posterURL(movie.PosterPath),
		Rating:      movie.VoteAverage,
	}, nil
}

// GetImageURL returns the full URL for an image path
func (s *TMDBService) GetImageURL(path string) string {
	if path == "" {
		return ""
	}
	return s.imageBaseURL + path
}

func (s *TMDBService) posterURL(path *string) *string {
	if path == nil || *path == "" {
		return nil
	}
	url := s.GetImageURL(*path)
	return &url
}

// releaseYear takes the first four characters of a release date
func releaseYear(date *string) *int {
	if date == nil || len(*date) < 4 {
		return nil
	}
	year, err := strconv.Atoi((*date)[:4])
	if err != nil {
		return nil
	}
	return &year
}
