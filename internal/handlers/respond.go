package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/hashicorp/go-hclog"

	"github.com/liamwears/reelcatalog/internal/middleware"
	"github.com/liamwears/reelcatalog/internal/services"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto a status code and logs it.
// 5xx are logged at error level, 4xx at warn level.
func writeError(w http.ResponseWriter, r *http.Request, logger hclog.Logger, view string, err error) {
	status, resp := classify(err)

	username := "anonymous"
	if user, ok := middleware.GetUserFromContext(r.Context()); ok {
		username = user.Username
	}
	args := []any{
		"status", status,
		"method", r.Method,
		"path", r.URL.Path,
		"user", username,
		"ip", middleware.ClientIP(r),
		"view", view,
		"detail", err.Error(),
	}

	var partial *services.PartialWriteError
	if errors.As(err, &partial) && partial.Movie != nil {
		args = append(args, "movie_id", partial.Movie.ID)
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", args...)
	} else {
		logger.Warn("request rejected", args...)
	}

	writeJSON(w, status, resp)
}

// methodNotAllowedError is returned for a known path requested with the wrong method
type methodNotAllowedError struct {
	method string
}

func (e *methodNotAllowedError) Error() string {
	return fmt.Sprintf("Method %q not allowed.", e.method)
}

func classify(err error) (int, errorResponse) {
	var verr *services.ValidationError
	var upstream *services.UpstreamError
	var partial *services.PartialWriteError
	var method *methodNotAllowedError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorResponse{Error: validationSummary(verr), Fields: verr.Fields}
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "Not found."}
	case errors.As(err, &method):
		return http.StatusMethodNotAllowed, errorResponse{Error: method.Error()}
	case errors.Is(err, services.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "Wrong credentials"}
	case errors.Is(err, services.ErrInvalidToken):
		return http.StatusUnauthorized, errorResponse{Error: "Token is invalid or expired"}
	case errors.As(err, &upstream):
		return http.StatusBadGateway, errorResponse{Error: "Movie metadata provider is unavailable"}
	case errors.As(err, &partial):
		return http.StatusInternalServerError, errorResponse{Error: "Movie was saved but its actors could not be updated"}
	}
	return http.StatusInternalServerError, errorResponse{Error: "Internal server error"}
}

// validationSummary returns the only message when there is exactly one
func validationSummary(verr *services.ValidationError) string {
	if len(verr.Fields) == 1 {
		for _, msgs := range verr.Fields {
			if len(msgs) == 1 {
				return msgs[0]
			}
		}
	}
	return "Invalid input."
}

// decodeJSON reads the request body into v. An empty body decodes as {}.
func decodeJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return services.NewValidationError(typeErr.Field, fmt.Sprintf("Incorrect type. Expected %s.", typeErr.Type))
	}
	return services.NewValidationError(services.NonFieldErrors, "JSON parse error - "+err.Error())
}

// pathID parses the {id} path value. Anything that is not a positive integer is not found.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.ErrNotFound
	}
	return id, nil
}
