package models

// PersonKind distinguishes the two credit tables that share the Person shape.
type PersonKind string

const (
	KindDirector PersonKind = "director"
	KindActor    PersonKind = "actor"
)

// Label returns the capitalised kind used in user-facing messages
func (k PersonKind) Label() string {
	switch k {
	case KindDirector:
		return "Director"
	case KindActor:
		return "Actor"
	}
	return string(k)
}

// IsValid checks if the kind is known
func (k PersonKind) IsValid() bool {
	return k == KindDirector || k == KindActor
}

// Person is a director or an actor. TotalMovies is computed on read.
type Person struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Country     string `db:"country" json:"country"`
	TotalMovies int    `db:"total_movies" json:"total_movies"`
}

// CreatePersonInput represents the input for creating a director or actor
type CreatePersonInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Country string `json:"country" validate:"required,iso3166_1_alpha2"`
}

// UpdatePersonInput represents a full or partial update; nil fields are left unchanged
type UpdatePersonInput struct {
	Name    *string `json:"name" validate:"omitempty,max=100"`
	Country *string `json:"country" validate:"omitempty,iso3166_1_alpha2"`
}
