package models

import (
	"strconv"
	"strings"
)

// MovieFilter holds the list filters of GET /api/movies/. Zero values mean "no filter".
type MovieFilter struct {
	Title  string
	Genres string
	Year   *int
	Rating *float64
	// SearchTerms must each match one of title, description, year, director or actor names.
	SearchTerms []string
}

// IsEmpty reports whether no filter is set
func (f MovieFilter) IsEmpty() bool {
	return f.Title == "" && f.Genres == "" && f.Year == nil && f.Rating == nil && len(f.SearchTerms) == 0
}

// Match applies the filter to an already loaded movie
func (f MovieFilter) Match(m *Movie) bool {
	if f.Title != "" && !containsFold(m.Title, f.Title) {
		return false
	}
	if f.Genres != "" && !containsFold(strings.Join(m.Genres, ","), f.Genres) {
		return false
	}
	if f.Year != nil && (m.Year == nil || *m.Year != *f.Year) {
		return false
	}
	if f.Rating != nil && (m.Rating == nil || *m.Rating != *f.Rating) {
		return false
	}
	for _, term := range f.SearchTerms {
		if !m.matchesSearchTerm(term) {
			return false
		}
	}
	return true
}

func (m *Movie) matchesSearchTerm(term string) bool {
	if containsFold(m.Title, term) {
		return true
	}
	if m.Description != nil && containsFold(*m.Description, term) {
		return true
	}
	if m.Year != nil && containsFold(strconv.Itoa(*m.Year), term) {
		return true
	}
	if m.Director != nil && containsFold(m.Director.Name, term) {
		return true
	}
	for _, a := range m.Actors {
		if containsFold(a.Name, term) {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
