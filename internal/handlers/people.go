package handlers

import (
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/liamwears/reelcatalog/internal/models"
	"github.com/liamwears/reelcatalog/internal/services"
)

// PersonHandler serves the director or actor endpoints
type PersonHandler struct {
	personService *services.PersonService
	resource      string
	logger        hclog.Logger
}

// NewPersonHandler creates a handler for the kind managed by personService
func NewPersonHandler(personService *services.PersonService, logger hclog.Logger) *PersonHandler {
	resource := string(personService.Kind()) + "s"
	return &PersonHandler{
		personService: personService,
		resource:      resource,
		logger:        logger.Named(resource),
	}
}

func (h *PersonHandler) view(action string) string {
	return h.resource + "." + action
}

// List handles GET /api/{directors,actors}/
func (h *PersonHandler) List(w http.ResponseWriter, r *http.Request) {
	people, err := h.personService.List(r.Context())
	if err != nil {
		writeError(w, r, h.logger, h.view("list"), err)
		return
	}

	writeJSON(w, http.StatusOK, people)
}

// Create handles POST /api/{directors,actors}/
func (h *PersonHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.CreatePersonInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, h.view("create"), err)
		return
	}

	person, err := h.personService.Create(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, h.view("create"), err)
		return
	}

	writeJSON(w, http.StatusCreated, person)
}

// Get handles GET /api/{directors,actors}/{id}/
func (h *PersonHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, h.view("retrieve"), err)
		return
	}

	person, err := h.personService.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, h.view("retrieve"), err)
		return
	}

	writeJSON(w, http.StatusOK, person)
}

// Update handles PUT and PATCH /api/{directors,actors}/{id}/
func (h *PersonHandler) Update(w http.ResponseWriter, r *http.Request) {
	partial := r.Method == http.MethodPatch
	view := h.view("update")
	if partial {
		view = h.view("partial_update")
	}

	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, view, err)
		return
	}

	var input models.UpdatePersonInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, view, err)
		return
	}

	person, err := h.personService.Update(r.Context(), id, input, partial)
	if err != nil {
		writeError(w, r, h.logger, view, err)
		return
	}

	writeJSON(w, http.StatusOK, person)
}

// Delete handles DELETE /api/{directors,actors}/{id}/
func (h *PersonHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, h.logger, h.view("destroy"), err)
		return
	}

	if err := h.personService.Delete(r.Context(), id); err != nil {
		writeError(w, r, h.logger, h.view("destroy"), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
