package handlers

import (
	"net/http"

	"github.com/hashicorp/go-hclog"

	"github.com/liamwears/reelcatalog/internal/middleware"
	"github.com/liamwears/reelcatalog/internal/models"
	"github.com/liamwears/reelcatalog/internal/services"
)

// AuthHandler handles registration and the token lifecycle
type AuthHandler struct {
	userService  *services.UserService
	tokenService *services.TokenService
	logger       hclog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *services.UserService, tokenService *services.TokenService, logger hclog.Logger) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		tokenService: tokenService,
		logger:       logger.Named("auth"),
	}
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type registerResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	models.TokenPair
}

type logoutResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Register handles POST /api/auth/register/
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input models.RegisterInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, "auth.register", err)
		return
	}

	user, err := h.userService.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, h.logger, "auth.register", err)
		return
	}

	pair, err := h.tokenService.IssuePair(user)
	if err != nil {
		writeError(w, r, h.logger, "auth.register", err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		Success:   true,
		Message:   "User created successfully",
		TokenPair: *pair,
	})
}

// Login handles POST /api/auth/login/
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, "auth.login", err)
		return
	}

	verr := &services.ValidationError{}
	if input.Username == "" {
		verr.Add("username", "This field is required.")
	}
	if input.Password == "" {
		verr.Add("password", "This field is required.")
	}
	if verr.HasErrors() {
		writeError(w, r, h.logger, "auth.login", verr)
		return
	}

	user, err := h.userService.Authenticate(r.Context(), input.Username, input.Password)
	if err != nil {
		writeError(w, r, h.logger, "auth.login", err)
		return
	}

	pair, err := h.tokenService.IssuePair(user)
	if err != nil {
		writeError(w, r, h.logger, "auth.login", err)
		return
	}

	h.logger.Info("user logged in", "username", user.Username)
	writeJSON(w, http.StatusOK, pair)
}

// Refresh handles POST /api/auth/refresh/
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input refreshRequest
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, "auth.refresh", err)
		return
	}

	pair, err := h.tokenService.Refresh(r.Context(), input.Refresh)
	if err != nil {
		writeError(w, r, h.logger, "auth.refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, pair)
}

// Logout handles POST /api/auth/logout/
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var input refreshRequest
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, r, h.logger, "auth.logout", err)
		return
	}

	result := h.tokenService.Revoke(r.Context(), input.Refresh)
	if result != services.TokenRevoked {
		h.logger.Warn("logout rejected", "result", result.String(), "ip", middleware.ClientIP(r))
		writeJSON(w, http.StatusBadRequest, logoutResponse{Success: false, Message: "Invalid token"})
		return
	}

	writeJSON(w, http.StatusOK, logoutResponse{Success: true, Message: "Logout successful"})
}
