package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered API account
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RegisterInput is the body of POST /api/auth/register/
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput is the body of POST /api/auth/login/
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenPair is an access token plus the refresh token that renews it
type TokenPair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}
