package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liamwears/reelcatalog/internal/models"
	"github.com/liamwears/reelcatalog/internal/services"
)

// PersonStore is the PostgreSQL implementation of services.PersonStore.
// Directors and actors live in tables of the same shape.
type PersonStore struct {
	db         *pgxpool.Pool
	table      string
	countQuery string
}

// NewPersonStore creates a new PersonStore for kind
func NewPersonStore(db *pgxpool.Pool, kind models.PersonKind) *PersonStore {
	if !kind.IsValid() {
		panic(fmt.Sprintf("store: unknown person kind %q", kind))
	}

	s := &PersonStore{db: db}
	switch kind {
	case models.KindDirector:
		s.table = "directors"
		s.countQuery = "(SELECT COUNT(*) FROM movies m WHERE m.director_id = p.id)"
	case models.KindActor:
		s.table = "actors"
		s.countQuery = "(SELECT COUNT(*) FROM movie_actors ma WHERE ma.actor_id = p.id)"
	}
	return s
}

// List retrieves every row ordered by id
func (s *PersonStore) List(ctx context.Context) ([]models.Person, error) {
	query := fmt.Sprintf(`SELECT p.id, p.name, p.country, %s FROM %s p ORDER BY p.id`, s.countQuery, s.table)

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.table, err)
	}
	defer rows.Close()

	people := []models.Person{}
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Country, &p.TotalMovies); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", s.table, err)
		}
		people = append(people, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", s.table, err)
	}

	return people, nil
}

// Get retrieves a row by ID
func (s *PersonStore) Get(ctx context.Context, id int64) (*models.Person, error) {
	query := fmt.Sprintf(`SELECT p.id, p.name, p.country, %s FROM %s p WHERE p.id = $1`, s.countQuery, s.table)

	var p models.Person
	err := s.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Country, &p.TotalMovies)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get %s: %w", s.table, err)
	}
	return &p, nil
}

// Exists reports whether a row with id exists
func (s *PersonStore) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, s.table)
	err := s.db.QueryRow(ctx, query, id).Scan(&exists)
	return exists, err
}

// MissingIDs returns the ids that have no row, in input order
func (s *PersonStore) MissingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT id FROM %s WHERE id = ANY($1)`, s.table)
	rows, err := s.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s ids: %w", s.table, err)
	}
	defer rows.Close()

	found := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// NameTaken reports whether another row has a case-insensitively equal name
func (s *PersonStore) NameTaken(ctx context.Context, name string, excludeID int64) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE lower(name) = lower($1) AND id <> $2)`, s.table)
	err := s.db.QueryRow(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}

// Create inserts a row
func (s *PersonStore) Create(ctx context.Context, person *models.Person) (*models.Person, error) {
	query := fmt.Sprintf(`INSERT INTO %s (name, country) VALUES ($1, $2) RETURNING id`, s.table)

	created := *person
	created.TotalMovies = 0
	if err := s.db.QueryRow(ctx, query, person.Name, person.Country).Scan(&created.ID); err != nil {
		return nil, mapWriteError(err)
	}
	return &created, nil
}

// Update rewrites name and country
func (s *PersonStore) Update(ctx context.Context, person *models.Person) (*models.Person, error) {
	query := fmt.Sprintf(`UPDATE %s SET name = $1, country = $2 WHERE id = $3`, s.table)

	result, err := s.db.Exec(ctx, query, person.Name, person.Country, person.ID)
	if err != nil {
		return nil, mapWriteError(err)
	}
	if result.RowsAffected() == 0 {
		return nil, services.ErrNotFound
	}
	return s.Get(ctx, person.ID)
}

// Delete deletes a row. Foreign keys cascade to movies (directors) or to
// movie_actors only (actors).
func (s *PersonStore) Delete(ctx context.Context, id int64) error {
	result, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.table), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", s.table, err)
	}
	if result.RowsAffected() == 0 {
		return services.ErrNotFound
	}
	return nil
}
