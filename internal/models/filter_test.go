package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string     { return &v }

func sampleMovie() *Movie {
	return &Movie{
		ID:          1,
		Title:       "Inception",
		Year:        intPtr(2010),
		Genres:      []string{"Action", "Science Fiction"},
		Rating:      floatPtr(8.4),
		Description: strPtr("Cobb, a skilled thief who steals secrets"),
		Director:    &Person{ID: 1, Name: "Christopher Nolan", Country: "GB"},
		Actors:      []Person{{ID: 2, Name: "Leonardo DiCaprio", Country: "US"}},
	}
}

func TestMovieFilterMatch(t *testing.T) {
	m := sampleMovie()

	tests := []struct {
		name   string
		filter MovieFilter
		want   bool
	}{
		{"empty filter", MovieFilter{}, true},
		{"title substring any case", MovieFilter{Title: "CEPT"}, true},
		{"title miss", MovieFilter{Title: "tenet"}, false},
		{"genres substring", MovieFilter{Genres: "science"}, true},
		{"genres spans separator", MovieFilter{Genres: "action,sci"}, true},
		{"genres miss", MovieFilter{Genres: "drama"}, false},
		{"year exact", MovieFilter{Year: intPtr(2010)}, true},
		{"year miss", MovieFilter{Year: intPtr(2011)}, false},
		{"rating exact", MovieFilter{Rating: floatPtr(8.4)}, true},
		{"rating miss", MovieFilter{Rating: floatPtr(8)}, false},
		{"search director", MovieFilter{SearchTerms: []string{"nolan"}}, true},
		{"search actor", MovieFilter{SearchTerms: []string{"dicaprio"}}, true},
		{"search description", MovieFilter{SearchTerms: []string{"thief"}}, true},
		{"search year", MovieFilter{SearchTerms: []string{"2010"}}, true},
		{"search all terms must hit", MovieFilter{SearchTerms: []string{"nolan", "pacino"}}, false},
		{"combined AND", MovieFilter{Title: "incep", Year: intPtr(1999)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(m))
		})
	}
}

func TestMovieFilterMatchNullFields(t *testing.T) {
	m := &Movie{Title: "Bare", Genres: []string{}}

	assert.False(t, MovieFilter{Year: intPtr(2000)}.Match(m))
	assert.False(t, MovieFilter{Rating: floatPtr(5)}.Match(m))
	assert.False(t, MovieFilter{SearchTerms: []string{"nolan"}}.Match(m))
	assert.True(t, MovieFilter{SearchTerms: []string{"bare"}}.Match(m))
}

func TestPersonKindLabel(t *testing.T) {
	assert.Equal(t, "Director", KindDirector.Label())
	assert.Equal(t, "Actor", KindActor.Label())
	assert.False(t, PersonKind("writer").IsValid())
}
