// Package memstore keeps the catalog in process memory. It mirrors the
// PostgreSQL stores, including unique names and delete cascades, and backs
// the service and handler tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liamwears/reelcatalog/internal/models"
	"github.com/liamwears/reelcatalog/internal/services"
)

// Store holds every table behind one lock
type Store struct {
	mu          sync.RWMutex
	seq         int64
	movies      map[int64]models.Movie
	people      map[models.PersonKind]map[int64]models.Person
	movieActors map[int64][]int64
	users       map[uuid.UUID]models.User

	// SetActorsErr, when set, makes every SetActors call fail with it
	SetActorsErr error
	now          func() time.Time
}

// New creates an empty Store
func New() *Store {
	return &Store{
		movies: make(map[int64]models.Movie),
		people: map[models.PersonKind]map[int64]models.Person{
			models.KindDirector: {},
			models.KindActor:    {},
		},
		movieActors: make(map[int64][]int64),
		users:       make(map[uuid.UUID]models.User),
		now:         time.Now,
	}
}

// Movies returns the movie table
func (s *Store) Movies() *MovieStore { return &MovieStore{s: s} }

// Directors returns the director table
func (s *Store) Directors() *PersonStore { return &PersonStore{s: s, kind: models.KindDirector} }

// Actors returns the actor table
func (s *Store) Actors() *PersonStore { return &PersonStore{s: s, kind: models.KindActor} }

// Users returns the user table
func (s *Store) Users() *UserStore { return &UserStore{s: s} }

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// totalMovies must be called with the lock held
func (s *Store) totalMovies(kind models.PersonKind, id int64) int {
	n := 0
	switch kind {
	case models.KindDirector:
		for _, m := range s.movies {
			if m.DirectorID == id {
				n++
			}
		}
	case models.KindActor:
		for _, ids := range s.movieActors {
			for _, actorID := range ids {
				if actorID == id {
					n++
				}
			}
		}
	}
	return n
}

// person must be called with the lock held
func (s *Store) person(kind models.PersonKind, id int64) (models.Person, bool) {
	p, ok := s.people[kind][id]
	if !ok {
		return models.Person{}, false
	}
	p.TotalMovies = s.totalMovies(kind, id)
	return p, true
}

// hydrate must be called with the lock held
func (s *Store) hydrate(m models.Movie) models.Movie {
	m.Genres = append([]string{}, m.Genres...)
	if d, ok := s.person(models.KindDirector, m.DirectorID); ok {
		m.Director = &d
	}
	m.Actors = []models.Person{}
	for _, id := range s.movieActors[m.ID] {
		if a, ok := s.person(models.KindActor, id); ok {
			m.Actors = append(m.Actors, a)
		}
	}
	sort.Slice(m.Actors, func(i, j int) bool { return m.Actors[i].ID < m.Actors[j].ID })
	return m
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// MovieStore implements services.MovieStore
type MovieStore struct {
	s *Store
}

var _ services.MovieStore = (*MovieStore)(nil)

func (ms *MovieStore) List(_ context.Context, filter models.MovieFilter) ([]models.Movie, error) {
	ms.s.mu.RLock()
	defer ms.s.mu.RUnlock()

	out := []models.Movie{}
	for _, id := range sortedKeys(ms.s.movies) {
		m := ms.s.hydrate(ms.s.movies[id])
		if filter.Match(&m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (ms *MovieStore) Get(_ context.Context, id int64) (*models.Movie, error) {
	ms.s.mu.RLock()
	defer ms.s.mu.RUnlock()

	m, ok := ms.s.movies[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	hydrated := ms.s.hydrate(m)
	return &hydrated, nil
}

func (ms *MovieStore) TitleTaken(_ context.Context, title string, excludeID int64) (bool, error) {
	ms.s.mu.RLock()
	defer ms.s.mu.RUnlock()
	return ms.s.titleTaken(title, excludeID), nil
}

func (s *Store) titleTaken(title string, excludeID int64) bool {
	for id, m := range s.movies {
		if id != excludeID && strings.EqualFold(m.Title, title) {
			return true
		}
	}
	return false
}

func (ms *MovieStore) Create(_ context.Context, movie *models.Movie) (*models.Movie, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	if ms.s.titleTaken(movie.Title, 0) {
		return nil, services.ErrDuplicate
	}

	row := *movie
	row.ID = ms.s.nextID()
	row.CreatedAt = ms.s.now()
	row.UpdatedAt = row.CreatedAt
	row.Director = nil
	row.Actors = nil
	ms.s.movies[row.ID] = row

	created := row
	return &created, nil
}

func (ms *MovieStore) Update(_ context.Context, movie *models.Movie) (*models.Movie, error) {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	existing, ok := ms.s.movies[movie.ID]
	if !ok {
		return nil, services.ErrNotFound
	}
	if ms.s.titleTaken(movie.Title, movie.ID) {
		return nil, services.ErrDuplicate
	}

	row := *movie
	row.CreatedAt = existing.CreatedAt
	row.UpdatedAt = ms.s.now()
	row.Director = nil
	row.Actors = nil
	ms.s.movies[row.ID] = row

	updated := row
	return &updated, nil
}

func (ms *MovieStore) SetActors(_ context.Context, movieID int64, actorIDs []int64) error {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	if ms.s.SetActorsErr != nil {
		return ms.s.SetActorsErr
	}
	if _, ok := ms.s.movies[movieID]; !ok {
		return services.ErrNotFound
	}
	ms.s.movieActors[movieID] = append([]int64{}, actorIDs...)
	return nil
}

func (ms *MovieStore) Delete(_ context.Context, id int64) error {
	ms.s.mu.Lock()
	defer ms.s.mu.Unlock()

	if _, ok := ms.s.movies[id]; !ok {
		return services.ErrNotFound
	}
	delete(ms.s.movies, id)
	delete(ms.s.movieActors, id)
	return nil
}

// PersonStore implements services.PersonStore for one kind
type PersonStore struct {
	s    *Store
	kind models.PersonKind
}

var _ services.PersonStore = (*PersonStore)(nil)

func (ps *PersonStore) List(_ context.Context) ([]models.Person, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	out := []models.Person{}
	for _, id := range sortedKeys(ps.s.people[ps.kind]) {
		p, _ := ps.s.person(ps.kind, id)
		out = append(out, p)
	}
	return out, nil
}

func (ps *PersonStore) Get(_ context.Context, id int64) (*models.Person, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	p, ok := ps.s.person(ps.kind, id)
	if !ok {
		return nil, services.ErrNotFound
	}
	return &p, nil
}

func (ps *PersonStore) Exists(_ context.Context, id int64) (bool, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	_, ok := ps.s.people[ps.kind][id]
	return ok, nil
}

func (ps *PersonStore) MissingIDs(_ context.Context, ids []int64) ([]int64, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()

	var missing []int64
	for _, id := range ids {
		if _, ok := ps.s.people[ps.kind][id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (ps *PersonStore) NameTaken(_ context.Context, name string, excludeID int64) (bool, error) {
	ps.s.mu.RLock()
	defer ps.s.mu.RUnlock()
	return ps.nameTaken(name, excludeID), nil
}

func (ps *PersonStore) nameTaken(name string, excludeID int64) bool {
	for id, p := range ps.s.people[ps.kind] {
		if id != excludeID && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func (ps *PersonStore) Create(_ context.Context, person *models.Person) (*models.Person, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	if ps.nameTaken(person.Name, 0) {
		return nil, services.ErrDuplicate
	}

	row := models.Person{ID: ps.s.nextID(), Name: person.Name, Country: person.Country}
	ps.s.people[ps.kind][row.ID] = row
	return &row, nil
}

func (ps *PersonStore) Update(_ context.Context, person *models.Person) (*models.Person, error) {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	if _, ok := ps.s.people[ps.kind][person.ID]; !ok {
		return nil, services.ErrNotFound
	}
	if ps.nameTaken(person.Name, person.ID) {
		return nil, services.ErrDuplicate
	}

	ps.s.people[ps.kind][person.ID] = models.Person{ID: person.ID, Name: person.Name, Country: person.Country}
	p, _ := ps.s.person(ps.kind, person.ID)
	return &p, nil
}

// Delete removes the row. A director takes its movies with it; an actor is
// only removed from cast lists.
func (ps *PersonStore) Delete(_ context.Context, id int64) error {
	ps.s.mu.Lock()
	defer ps.s.mu.Unlock()

	if _, ok := ps.s.people[ps.kind][id]; !ok {
		return services.ErrNotFound
	}
	delete(ps.s.people[ps.kind], id)

	switch ps.kind {
	case models.KindDirector:
		for movieID, m := range ps.s.movies {
			if m.DirectorID == id {
				delete(ps.s.movies, movieID)
				delete(ps.s.movieActors, movieID)
			}
		}
	case models.KindActor:
		for movieID, ids := range ps.s.movieActors {
			kept := ids[:0]
			for _, actorID := range ids {
				if actorID != id {
					kept = append(kept, actorID)
				}
			}
			ps.s.movieActors[movieID] = kept
		}
	}
	return nil
}

// UserStore implements services.UserStore
type UserStore struct {
	s *Store
}

var _ services.UserStore = (*UserStore)(nil)

func (us *UserStore) Get(_ context.Context, id uuid.UUID) (*models.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	u, ok := us.s.users[id]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &u, nil
}

func (us *UserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	us.s.mu.RLock()
	defer us.s.mu.RUnlock()

	for _, u := range us.s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, services.ErrNotFound
}

func (us *UserStore) Create(_ context.Context, user *models.User) (*models.User, error) {
	us.s.mu.Lock()
	defer us.s.mu.Unlock()

	for _, u := range us.s.users {
		if u.Username == user.Username {
			return nil, services.ErrDuplicate
		}
	}

	row := *user
	row.ID = uuid.New()
	row.CreatedAt = us.s.now()
	row.UpdatedAt = row.CreatedAt
	us.s.users[row.ID] = row
	return &row, nil
}
