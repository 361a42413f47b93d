package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/liamwears/reelcatalog/internal/models"
)

// PersonStore persists directors or actors
type PersonStore interface {
	PersonLookup
	List(ctx context.Context) ([]models.Person, error)
	Get(ctx context.Context, id int64) (*models.Person, error)
	NameTaken(ctx context.Context, name string, excludeID int64) (bool, error)
	Create(ctx context.Context, person *models.Person) (*models.Person, error)
	Update(ctx context.Context, person *models.Person) (*models.Person, error)
	Delete(ctx context.Context, id int64) error
}

// PersonService handles director and actor business logic. Deleting a
// director removes its movies; deleting an actor only detaches it.
type PersonService struct {
	kind   models.PersonKind
	store  PersonStore
	cache  CacheClearer
	logger hclog.Logger
}

// NewPersonService creates a new PersonService for kind. It panics on an unknown kind.
func NewPersonService(kind models.PersonKind, store PersonStore, cache CacheClearer, logger hclog.Logger) *PersonService {
	if !kind.IsValid() {
		panic(fmt.Sprintf("services: unknown person kind %q", kind))
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &PersonService{
		kind:   kind,
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Kind returns the kind of person this service manages
func (s *PersonService) Kind() models.PersonKind {
	return s.kind
}

// List retrieves every person of this kind
func (s *PersonService) List(ctx context.Context) ([]models.Person, error) {
	people, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %ss: %w", s.kind, err)
	}
	return people, nil
}

// Get retrieves a person by ID
func (s *PersonService) Get(ctx context.Context, id int64) (*models.Person, error) {
	return s.store.Get(ctx, id)
}

// Create creates a new person
func (s *PersonService) Create(ctx context.Context, input models.CreatePersonInput) (*models.Person, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Country = strings.ToUpper(strings.TrimSpace(input.Country))

	if verr := validateStruct(input); verr != nil {
		return nil, verr
	}
	if err := s.checkName(ctx, input.Name, 0); err != nil {
		return nil, err
	}

	person, err := s.store.Create(ctx, &models.Person{Name: input.Name, Country: input.Country})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, s.duplicateError()
		}
		return nil, fmt.Errorf("failed to create %s: %w", s.kind, err)
	}

	s.clearCache(ctx)
	s.logger.Info(s.kind.Label()+" created", "id", person.ID, "name", person.Name)
	return person, nil
}

// Update applies input to an existing person. With partial set, omitted fields are kept.
func (s *PersonService) Update(ctx context.Context, id int64, input models.UpdatePersonInput, partial bool) (*models.Person, error) {
	person, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		input.Name = &name
	}
	if input.Country != nil {
		country := strings.ToUpper(strings.TrimSpace(*input.Country))
		input.Country = &country
	}

	verr := &ValidationError{}
	if !partial {
		if input.Name == nil {
			verr.Add("name", "This field is required.")
		}
		if input.Country == nil {
			verr.Add("country", "This field is required.")
		}
	}
	if input.Name != nil && *input.Name == "" {
		verr.Add("name", "This field may not be blank.")
	}
	if input.Country != nil && *input.Country == "" {
		verr.Add("country", "This field may not be blank.")
	}
	if verr.HasErrors() {
		return nil, verr
	}
	if verr := validateStruct(input); verr != nil {
		return nil, verr
	}

	if input.Name != nil {
		if err := s.checkName(ctx, *input.Name, id); err != nil {
			return nil, err
		}
		person.Name = *input.Name
	}
	if input.Country != nil {
		person.Country = *input.Country
	}

	updated, err := s.store.Update(ctx, person)
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, s.duplicateError()
		}
		return nil, fmt.Errorf("failed to update %s: %w", s.kind, err)
	}

	s.clearCache(ctx)
	return updated, nil
}

// Delete deletes a person
func (s *PersonService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.clearCache(ctx)
	s.logger.Info(s.kind.Label()+" deleted", "id", id)
	return nil
}

func (s *PersonService) checkName(ctx context.Context, name string, excludeID int64) error {
	taken, err := s.store.NameTaken(ctx, name, excludeID)
	if err != nil {
		return fmt.Errorf("failed to check %s name: %w", s.kind, err)
	}
	if taken {
		return s.duplicateError()
	}
	return nil
}

func (s *PersonService) duplicateError() *ValidationError {
	return NewValidationError("name", s.kind.Label()+" already exists")
}

func (s *PersonService) clearCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("failed to clear response cache", "error", err)
	}
}
