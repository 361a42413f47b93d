package models

import (
	"time"
)

// Movie represents a catalog entry with its director and cast expanded
type Movie struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Year        *int      `db:"year" json:"year"`
	Genres      []string  `db:"genres" json:"genres"`
	Rating      *float64  `db:"rating" json:"rating"`
	Description *string   `db:"description" json:"description"`
	PosterURL   *string   `db:"poster_url" json:"poster_url"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
	DirectorID  int64     `db:"director_id" json:"-"`
	Director    *Person   `json:"director_data"`
	Actors      []Person  `json:"actors_data"`
}

// ActorIDs returns the ids of the expanded cast
func (m *Movie) ActorIDs() []int64 {
	ids := make([]int64, 0, len(m.Actors))
	for _, a := range m.Actors {
		ids = append(ids, a.ID)
	}
	return ids
}

// CreateMovieInput represents the input for creating a movie.
// created_at and updated_at are not accepted from clients.
type CreateMovieInput struct {
	Title       string   `json:"title" validate:"max=200"`
	Year        *int     `json:"year"`
	Genres      []string `json:"genres" validate:"dive,max=100"`
	Rating      *float64 `json:"rating"`
	Description *string  `json:"description"`
	PosterURL   *string  `json:"poster_url" validate:"omitempty,url"`
	DirectorID  *int64   `json:"director"`
	ActorIDs    []int64  `json:"actors_id"`
}

// UpdateMovieInput represents a full or partial update; nil fields are left unchanged.
// A non-nil ActorIDs (including an empty list) replaces the cast.
type UpdateMovieInput struct {
	Title       *string   `json:"title" validate:"omitempty,max=200"`
	Year        *int      `json:"year"`
	Genres      *[]string `json:"genres"`
	Rating      *float64  `json:"rating"`
	Description *string   `json:"description"`
	PosterURL   *string   `json:"poster_url" validate:"omitempty,url"`
	DirectorID  *int64    `json:"director"`
	ActorIDs    *[]int64  `json:"actors_id"`
}

// Enrichment is the best metadata match for a title. Nil fields were absent upstream.
type Enrichment struct {
	Title       *string  `json:"title"`
	Year        *int     `json:"year"`
	Genres      []string `json:"genres"`
	Description *string  `json:"description"`
	PosterURL   *string  `json:"poster_url"`
	Rating      *float64 `json:"rating"`
}
