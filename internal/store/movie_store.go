package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liamwears/reelcatalog/internal/models"
	"github.com/liamwears/reelcatalog/internal/services"
)

const movieColumns = `
	m.id, m.title, m.year, m.genres, m.rating, m.description, m.poster_url,
	m.created_at, m.updated_at,
	d.id, d.name, d.country,
	(SELECT COUNT(*) FROM movies dm WHERE dm.director_id = d.id)
`

// MovieStore is the PostgreSQL implementation of services.MovieStore
type MovieStore struct {
	db *pgxpool.Pool
}

// NewMovieStore creates a new MovieStore
func NewMovieStore(db *pgxpool.Pool) *MovieStore {
	return &MovieStore{db: db}
}

// List retrieves the movies matching filter, ordered by id
func (s *MovieStore) List(ctx context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	where, args := buildMovieWhere(filter)

	query := `SELECT ` + movieColumns + `
		FROM movies m
		JOIN directors d ON d.id = m.director_id
	` + where + `
		ORDER BY m.id
	`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	movies := []models.Movie{}
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		movies = append(movies, *movie)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating movies: %w", err)
	}

	if err := s.loadActors(ctx, movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// Get retrieves a movie by ID
func (s *MovieStore) Get(ctx context.Context, id int64) (*models.Movie, error) {
	query := `SELECT ` + movieColumns + `
		FROM movies m
		JOIN directors d ON d.id = m.director_id
		WHERE m.id = $1
	`

	movie, err := scanMovie(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get movie: %w", err)
	}

	movies := []models.Movie{*movie}
	if err := s.loadActors(ctx, movies); err != nil {
		return nil, err
	}
	return &movies[0], nil
}

// TitleTaken reports whether another movie has a case-insensitively equal title
func (s *MovieStore) TitleTaken(ctx context.Context, title string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM movies WHERE lower(title) = lower($1) AND id <> $2)`,
		title, excludeID,
	).Scan(&exists)
	return exists, err
}

// Create inserts the movie row. Actor associations are written separately.
func (s *MovieStore) Create(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
	query := `
		INSERT INTO movies (title, year, genres, rating, description, poster_url, director_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	created := *movie
	err := s.db.QueryRow(ctx, query,
		movie.Title,
		movie.Year,
		movie.Genres,
		movie.Rating,
		movie.Description,
		movie.PosterURL,
		movie.DirectorID,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}

	return &created, nil
}

// Update rewrites every mutable column of the movie
func (s *MovieStore) Update(ctx context.Context, movie *models.Movie) (*models.Movie, error) {
	query := `
		UPDATE movies
		SET title = $1, year = $2, genres = $3, rating = $4, description = $5,
		    poster_url = $6, director_id = $7, updated_at = NOW()
		WHERE id = $8
		RETURNING id, created_at, updated_at
	`

	updated := *movie
	err := s.db.QueryRow(ctx, query,
		movie.Title,
		movie.Year,
		movie.Genres,
		movie.Rating,
		movie.Description,
		movie.PosterURL,
		movie.DirectorID,
		movie.ID,
	).Scan(&updated.ID, &updated.CreatedAt, &updated.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrNotFound
		}
		return nil, mapWriteError(err)
	}

	return &updated, nil
}

// SetActors replaces the actor set of a movie
func (s *MovieStore) SetActors(ctx context.Context, movieID int64, actorIDs []int64) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM movie_actors WHERE movie_id = $1`, movieID); err != nil {
		return fmt.Errorf("failed to clear actors: %w", err)
	}

	if len(actorIDs) > 0 {
		_, err := tx.Exec(ctx, `
			INSERT INTO movie_actors (movie_id, actor_id)
			SELECT $1, unnest($2::bigint[])
			ON CONFLICT DO NOTHING
		`, movieID, actorIDs)
		if err != nil {
			return fmt.Errorf("failed to insert actors: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Delete deletes a movie; its actor associations go with it
func (s *MovieStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.Exec(ctx, `DELETE FROM movies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete movie: %w", err)
	}

	if result.RowsAffected() == 0 {
		return services.ErrNotFound
	}

	return nil
}

// loadActors fills the Actors field of every movie in place
func (s *MovieStore) loadActors(ctx context.Context, movies []models.Movie) error {
	if len(movies) == 0 {
		return nil
	}

	ids := make([]int64, len(movies))
	index := make(map[int64]int, len(movies))
	for i := range movies {
		ids[i] = movies[i].ID
		index[movies[i].ID] = i
		movies[i].Actors = []models.Person{}
	}

	rows, err := s.db.Query(ctx, `
		SELECT ma.movie_id, a.id, a.name, a.country,
		       (SELECT COUNT(*) FROM movie_actors x WHERE x.actor_id = a.id)
		FROM movie_actors ma
		JOIN actors a ON a.id = ma.actor_id
		WHERE ma.movie_id = ANY($1)
		ORDER BY a.id
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to query movie actors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var movieID int64
		var actor models.Person
		if err := rows.Scan(&movieID, &actor.ID, &actor.Name, &actor.Country, &actor.TotalMovies); err != nil {
			return fmt.Errorf("failed to scan movie actor: %w", err)
		}
		i := index[movieID]
		movies[i].Actors = append(movies[i].Actors, actor)
	}

	return rows.Err()
}

func scanMovie(row pgx.Row) (*models.Movie, error) {
	var movie models.Movie
	var director models.Person
	err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Year,
		&movie.Genres,
		&movie.Rating,
		&movie.Description,
		&movie.PosterURL,
		&movie.CreatedAt,
		&movie.UpdatedAt,
		&director.ID,
		&director.Name,
		&director.Country,
		&director.TotalMovies,
	)
	if err != nil {
		return nil, err
	}
	if movie.Genres == nil {
		movie.Genres = []string{}
	}
	movie.DirectorID = director.ID
	movie.Director = &director
	return &movie, nil
}

// buildMovieWhere renders filter as a WHERE clause over movies m joined to directors d
func buildMovieWhere(filter models.MovieFilter) (string, []any) {
	if filter.IsEmpty() {
		return "", nil
	}

	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Title != "" {
		conds = append(conds, "m.title ILIKE "+arg(likePattern(filter.Title)))
	}
	if filter.Genres != "" {
		conds = append(conds, "array_to_string(m.genres, ',') ILIKE "+arg(likePattern(filter.Genres)))
	}
	if filter.Year != nil {
		conds = append(conds, "m.year = "+arg(*filter.Year))
	}
	if filter.Rating != nil {
		conds = append(conds, "m.rating = "+arg(*filter.Rating))
	}
	for _, term := range filter.SearchTerms {
		p := arg(likePattern(term))
		conds = append(conds, fmt.Sprintf(`(m.title ILIKE %[1]s
			OR m.description ILIKE %[1]s
			OR m.year::text ILIKE %[1]s
			OR d.name ILIKE %[1]s
			OR EXISTS (
				SELECT 1 FROM movie_actors sa JOIN actors sact ON sact.id = sa.actor_id
				WHERE sa.movie_id = m.id AND sact.name ILIKE %[1]s
			))`, p))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns a substring into an escaped ILIKE pattern
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
