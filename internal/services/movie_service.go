package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/liamwears/reelcatalog/internal/models"
)

// MovieStore persists movies and their actor associations
type MovieStore interface {
	List(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error)
	Get(ctx context.Context, id int64) (*models.Movie, error)
	TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error)
	Create(ctx context.Context, movie *models.Movie) (*models.Movie, error)
	Update(ctx context.Context, movie *models.Movie) (*models.Movie, error)
	SetActors(ctx context.Context, movieID int64, actorIDs []int64) error
	Delete(ctx context.Context, id int64) error
}

// PersonLookup answers existence questions about directors or actors
type PersonLookup interface {
	Exists(ctx context.Context, id int64) (bool, error)
	MissingIDs(ctx context.Context, ids []int64) ([]int64, error)
}

// MetadataClient looks up enrichment data by title
type MetadataClient interface {
	FetchMovieData(ctx context.Context, title string) (*models.Enrichment, error)
}

// CacheClearer drops every cached response
type CacheClearer interface {
	Clear(ctx context.Context) error
}

// MovieService handles movie-related business logic
type MovieService struct {
	store     MovieStore
	directors PersonLookup
	actors    PersonLookup
	metadata  MetadataClient
	cache     CacheClearer
	logger    hclog.Logger
	now       func() time.Time
}

// NewMovieService creates a new MovieService
func NewMovieService(store MovieStore, directors, actors PersonLookup, metadata MetadataClient, cache CacheClearer, logger hclog.Logger) *MovieService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &MovieService{
		store:     store,
		directors: directors,
		actors:    actors,
		metadata:  metadata,
		cache:     cache,
		logger:    logger,
		now:       time.Now,
	}
}

// List retrieves the movies matching filter
func (s *MovieService) List(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	movies, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list movies: %w", err)
	}
	return movies, nil
}

// Get retrieves a movie by ID
func (s *MovieService) Get(ctx context.Context, id int64) (*models.Movie, error) {
	return s.store.Get(ctx, id)
}

// Create validates input, fills missing fields from the metadata provider and stores the movie.
func (s *MovieService) Create(ctx context.Context, input models.CreateMovieInput) (*models.Movie, error) {
	input.Title = strings.TrimSpace(input.Title)

	// Required fields and field shapes
	verr := &ValidationError{}
	if input.Title == "" {
		verr.Add("title", "This field is required.")
	}
	if input.DirectorID == nil {
		verr.Add("director", "This field is required.")
	}
	mergeValidation(verr, validateStruct(input))
	if verr.HasErrors() {
		return nil, verr
	}

	// Duplicate title, then director and actor references
	taken, err := s.store.TitleTaken(ctx, input.Title, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check title: %w", err)
	}
	if taken {
		verr.Add("title", "Movie already exists")
	}
	if err := s.checkReferences(ctx, verr, input.DirectorID, input.ActorIDs); err != nil {
		return nil, err
	}

	movie := &models.Movie{
		Title:       input.Title,
		Year:        input.Year,
		Genres:      input.Genres,
		Rating:      input.Rating,
		Description: input.Description,
		PosterURL:   input.PosterURL,
		DirectorID:  *input.DirectorID,
	}
	if movie.Genres == nil {
		movie.Genres = []string{}
	}

	// Fill the gaps from the metadata provider
	if missing := missingFields(movie); len(missing) > 0 {
		if err := s.enrich(ctx, movie, missing); err != nil {
			return nil, err
		}
	}

	// Provider values are range checked too
	if verr := checkRanges(movie.Year, movie.Rating, s.now()); verr != nil {
		return nil, verr
	}

	created, err := s.store.Create(ctx, movie)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, NewValidationError("title", "Movie already exists")
		}
		return nil, fmt.Errorf("failed to create movie: %w", err)
	}

	// The movie row is committed; a failure here leaves it without actors
	if actorIDs := uniqueIDs(input.ActorIDs); len(actorIDs) > 0 {
		if err := s.store.SetActors(ctx, created.ID, actorIDs); err != nil {
			s.clearCache(ctx)
			return nil, &PartialWriteError{Movie: created, Err: err}
		}
	}

	s.clearCache(ctx)
	s.logger.Info("movie created", "id", created.ID, "title", created.Title)

	return s.store.Get(ctx, created.ID)
}

// Update applies input to an existing movie. With partial set, required fields may be omitted.
// Enrichment never runs on update.
func (s *MovieService) Update(ctx context.Context, id int64, input models.UpdateMovieInput, partial bool) (*models.Movie, error) {
	movie, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if !partial {
		if input.Title == nil {
			verr.Add("title", "This field is required.")
		}
		if input.DirectorID == nil {
			verr.Add("director", "This field is required.")
		}
	}
	mergeValidation(verr, validateStruct(input))
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		verr.Add("title", "This field may not be blank.")
	}
	mergeValidation(verr, checkRanges(input.Year, input.Rating, s.now()))
	if verr.HasErrors() {
		return nil, verr
	}

	var actorIDs []int64
	if input.ActorIDs != nil {
		actorIDs = *input.ActorIDs
	}
	if err := s.checkReferences(ctx, verr, input.DirectorID, actorIDs); err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		taken, err := s.store.TitleTaken(ctx, title, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check title: %w", err)
		}
		if taken {
			verr.Add("title", "Movie already exists")
		}
		movie.Title = title
	}
	if verr.HasErrors() {
		return nil, verr
	}

	if input.Year != nil {
		movie.Year = input.Year
	}
	if input.Genres != nil {
		movie.Genres = *input.Genres
		if movie.Genres == nil {
			movie.Genres = []string{}
		}
	}
	if input.Rating != nil {
		movie.Rating = input.Rating
	}
	if input.Description != nil {
		movie.Description = input.Description
	}
	if input.PosterURL != nil {
		movie.PosterURL = input.PosterURL
	}
	if input.DirectorID != nil {
		movie.DirectorID = *input.DirectorID
	}

	updated, err := s.store.Update(ctx, movie)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, NewValidationError("title", "Movie already exists")
		}
		return nil, fmt.Errorf("failed to update movie: %w", err)
	}

	if input.ActorIDs != nil {
		if err := s.store.SetActors(ctx, updated.ID, uniqueIDs(actorIDs)); err != nil {
			s.clearCache(ctx)
			return nil, &PartialWriteError{Movie: updated, Err: err}
		}
	}

	s.clearCache(ctx)
	s.logger.Info("movie updated", "id", updated.ID, "partial", partial)

	return s.store.Get(ctx, updated.ID)
}

// Delete deletes a movie and its actor associations
func (s *MovieService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.clearCache(ctx)
	s.logger.Info("movie deleted", "id", id)
	return nil
}

// enrich overwrites movie fields with every non-null value the provider returns.
// Fields the caller supplied are overwritten too; only the title is kept.
func (s *MovieService) enrich(ctx context.Context, movie *models.Movie, missing []string) error {
	s.logger.Debug("enriching movie", "title", movie.Title, "missing", missing)

	data, err := s.metadata.FetchMovieData(ctx, movie.Title)
	if err != nil {
		return &UpstreamError{Err: err}
	}
	if data == nil {
		return nil
	}

	if data.Year != nil {
		movie.Year = data.Year
	}
	if data.Genres != nil {
		movie.Genres = data.Genres
	}
	if data.Description != nil {
		movie.Description = data.Description
	}
	if data.PosterURL != nil {
		movie.PosterURL = data.PosterURL
	}
	if data.Rating != nil {
		movie.Rating = data.Rating
	}
	return nil
}

func (s *MovieService) checkReferences(ctx context.Context, verr *ValidationError, directorID *int64, actorIDs []int64) error {
	if directorID != nil {
		ok, err := s.directors.Exists(ctx, *directorID)
		if err != nil {
			return fmt.Errorf("failed to check director: %w", err)
		}
		if !ok {
			verr.Add("director", invalidPK(*directorID))
		}
	}

	if len(actorIDs) > 0 {
		missing, err := s.actors.MissingIDs(ctx, uniqueIDs(actorIDs))
		if err != nil {
			return fmt.Errorf("failed to check actors: %w", err)
		}
		for _, id := range missing {
			verr.Add("actors_id", invalidPK(id))
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

func (s *MovieService) clearCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear response cache", "error", err)
	}
}

// missingFields lists the completeness fields that are absent, null, blank or empty
func missingFields(m *models.Movie) []string {
	var missing []string
	if m.Year == nil {
		missing = append(missing, "year")
	}
	if len(m.Genres) == 0 {
		missing = append(missing, "genres")
	}
	if m.Description == nil || *m.Description == "" {
		missing = append(missing, "description")
	}
	if m.PosterURL == nil || *m.PosterURL == "" {
		missing = append(missing, "poster_url")
	}
	if m.Rating == nil {
		missing = append(missing, "rating")
	}
	return missing
}

func checkRanges(year *int, rating *float64, now time.Time) *ValidationError {
	verr := &ValidationError{}
	if year != nil {
		if err := checkYear(*year, now); err != nil {
			verr.Add("year", err.Error())
		}
	}
	if rating != nil {
		if err := checkRating(*rating); err != nil {
			verr.Add("rating", err.Error())
		}
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

func mergeValidation(dst, src *ValidationError) {
	if !src.HasErrors() {
		return
	}
	for field, msgs := range src.Fields {
		for _, msg := range msgs {
			dst.Add(field, msg)
		}
	}
}

func invalidPK(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
