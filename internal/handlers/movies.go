package handlers

import (
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/liamwears/reelcatalog/internal/models"
	"github.com/liamwears/reelcatalog/internal/services"
)

// MovieHandler handles movie-related requests
type MovieHandler struct {
	movieService *services.MovieService
	logger       hclog.Logger
}

// NewMovieHandler creates a new movie handler
func NewMovieHandler(movieService *services.MovieService, logger hclog.Logger) *MovieHandler {
	return &MovieHandler{
		movieService: movieService,
		logger:       logger.Named("movies"),
	}
}

// List handles GET /api/movies/
func (h *MovieHandler) List(w http.ResponseWriter, r *http.Request) {
	// Parse filters from query parameters
	filter, err := services.ParseMovieFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, h.logger, "movies.list", err)
		return
	}

	movies, err := h.movieService.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, h.logger, "movies.list", err)
		return
	}

	writeJSON(w, http.StatusOK, movies)
}

// Create handles POST /api/movies/
func (h *MovieHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.CreateMovieInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, "movies.create", err)
		return
	}

	movie, err := h.movieService.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, "movies.create", err)
		return
	}

	writeJSON(w, http.StatusCreated, movie)
}

// Get handles GET /api/movies/{id}/
func (h *MovieHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, "movies.retrieve", err)
		return
	}

	movie, err := h.movieService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, "movies.retrieve", err)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// Update handles PUT and PATCH /api/movies/{id}/
func (h *MovieHandler) Update(w http.ResponseWriter, r *http.Request) {
	// PATCH leaves omitted fields untouched
	partial := r.Method == http.MethodPatch
	view := "movies.update"
	if partial {
		view = "movies.partial_update"
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, view, err)
		return
	}

	var input models.UpdateMovieInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, view, err)
		return
	}

	movie, err := h.movieService.Update(r.Context(), id, input, partial)
	if err != nil {
		writeError(w, r, h.logger, view, err)
		return
	}

	writeJSON(w, http.StatusOK, movie)
}

// Delete handles DELETE /api/movies/{id}/
func (h *MovieHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, "movies.destroy", err)
		return
	}

	if err := h.movieService.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, "movies.destroy", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
