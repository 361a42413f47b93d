package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/liamwears/reelcatalog/internal/models"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// ErrInvalidToken is returned for malformed, expired, mistyped or revoked tokens
var ErrInvalidToken = errors.New("token is invalid or expired")

// RevocationStore remembers revoked refresh token ids until they would have expired.
// Revoke reports false when tokenID was already revoked.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

// LogoutResult tells apart the outcomes of revoking a refresh token
type LogoutResult int

const (
	// TokenInvalid means the token could not be parsed or verified
	TokenInvalid LogoutResult = iota
	// TokenAlreadyRevoked means the token was valid but revoked earlier
	TokenAlreadyRevoked
	// TokenRevoked means the token was revoked by this call
	TokenRevoked
)

func (r LogoutResult) String() string {
	switch r {
	case TokenInvalid:
		return "invalid"
	case TokenAlreadyRevoked:
		return "already_revoked"
	case TokenRevoked:
		return "revoked"
	}
	return "unknown"
}

// Claims are the JWT claims of both access and refresh tokens
type Claims struct {
	TokenType string `json:"token_type"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a UUID
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenConfig holds signing settings
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService issues, refreshes and revokes JWT token pairs
type TokenService struct {
	secret      []byte
	accessTTL   time.Duration
	refreshTTL  time.Duration
	revocations RevocationStore
	logger      hclog.Logger
	now         func() time.Time
}

// NewTokenService creates a new TokenService
func NewTokenService(cfg TokenConfig, revocations RevocationStore, logger hclog.Logger) *TokenService {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = 5 * time.Minute
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 24 * time.Hour
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &TokenService{
		secret:      []byte(cfg.Secret),
		accessTTL:   cfg.AccessTTL,
		refreshTTL:  cfg.RefreshTTL,
		revocations: revocations,
		logger:      logger,
		now:         time.Now,
	}
}

// IssuePair creates a fresh access and refresh token for user
func (s *TokenService) IssuePair(user *models.User) (*models.TokenPair, error) {
	refresh, err := s.sign(user.ID.String(), user.Username, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	access, err := s.sign(user.ID.String(), user.Username, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{Refresh: refresh, Access: access}, nil
}

// ParseAccess verifies an access token
func (s *TokenService) ParseAccess(token string) (*Claims, error) {
	return s.parse(token, TokenTypeAccess)
}

// Refresh exchanges a valid, unrevoked refresh token for a new pair.
// The presented refresh token is revoked so it cannot be used twice.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := s.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.Revoke(ctx, claims.ID, s.remaining(claims))
	if err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	if !revoked {
		return nil, ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrInvalidToken
	}
	return s.IssuePair(&models.User{ID: userID, Username: claims.Username})
}

// Revoke invalidates a refresh token. Errors never escape: any failure is reported as TokenInvalid.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) LogoutResult {
	claims, err := s.parse(refreshToken, TokenTypeRefresh)
	if err != nil {
		return TokenInvalid
	}

	revoked, err := s.revocations.Revoke(ctx, claims.ID, s.remaining(claims))
	if err != nil {
		s.logger.Error("failed to revoke refresh token", "error", err)
		return TokenInvalid
	}
	if !revoked {
		return TokenAlreadyRevoked
	}
	return TokenRevoked
}

func (s *TokenService) sign(subject, username, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		TokenType: tokenType,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *TokenService) parse(token, tokenType string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *TokenService) remaining(claims *Claims) time.Duration {
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}
