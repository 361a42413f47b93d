package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/liamwears/reelcatalog/internal/models"
)

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials is returned when a username/password pair does not match
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicate is returned by stores when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate value")
)

// NonFieldErrors is the key used for errors that are not tied to one field
const NonFieldErrors = "non_field_errors"

// ValidationError carries field-scoped messages for a rejected input
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates a ValidationError with a single field message
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// Add appends a message for field
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any message was recorded
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// UpstreamError wraps a failure of the metadata provider
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("metadata provider: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// PartialWriteError reports a movie that was stored although its cast could not be.
// The caller must reconcile; nothing is rolled back.
type PartialWriteError struct {
	Movie *models.Movie
	Err   error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("movie %d stored but actor associations failed: %v", e.Movie.ID, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
