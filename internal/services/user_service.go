package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/crypto/bcrypt"

	"github.com/liamwears/reelcatalog/internal/models"
)

// UserStore persists API accounts
type UserStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
}

// UserService handles user-related business logic
type UserService struct {
	store      UserStore
	logger     hclog.Logger
	bcryptCost int
}

// NewUserService creates a new UserService
func NewUserService(store UserStore, logger hclog.Logger) *UserService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &UserService{
		store:      store,
		logger:     logger,
		bcryptCost: bcrypt.DefaultCost,
	}
}

// SetBcryptCost overrides the password hashing cost
func (s *UserService) SetBcryptCost(cost int) {
	s.bcryptCost = cost
}

// Register creates a user with a hashed password. Usernames are case-sensitive.
func (s *UserService) Register(ctx context.Context, input models.RegisterInput) (*models.User, error) {
	if input.Username == "" || input.Password == "" {
		s.logger.Warn("the username or password was not provided")
		return nil, NewValidationError(NonFieldErrors, "Username and password fields are required")
	}

	_, err := s.store.FindByUsername(ctx, input.Username)
	switch {
	case err == nil:
		s.logger.Warn("user tried to sign up but it already exists", "username", input.Username)
		return nil, NewValidationError("username", "User already exists")
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.store.Create(ctx, &models.User{
		Username:     input.Username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, NewValidationError("username", "User already exists")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("user has signed up successfully", "username", user.Username)
	return user, nil
}

// Authenticate returns the user matching username and password, or ErrInvalidCredentials
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// Get retrieves a user by ID
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.store.Get(ctx, id)
}
