package services

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/liamwears/reelcatalog/internal/models"
)

// ParseMovieFilter reads the list filters from query parameters
func ParseMovieFilter(query url.Values) (models.MovieFilter, error) {
	filter := models.MovieFilter{
		Title:       strings.TrimSpace(query.Get("title")),
		Genres:      strings.TrimSpace(query.Get("genres")),
		SearchTerms: strings.Fields(query.Get("search")),
	}

	verr := &ValidationError{}
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			verr.Add("year", "Enter a whole number.")
		} else {
			filter.Year = &year
		}
	}
	if v := strings.TrimSpace(query.Get("rating")); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			verr.Add("rating", "Enter a number.")
		} else {
			filter.Rating = &rating
		}
	}
	if verr.HasErrors() {
		return models.MovieFilter{}, verr
	}

	return filter, nil
}
