package handlers

import (
	"net/http"
	"strings"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/services"
	"connexa-backend/internal/token"

	"github.com/rs/zerolog/log"
)

// authCookieName is the http-only copy of the bearer token set on login.
const authCookieName = "auth_token"

// AuthHandler handles registration and login HTTP requests
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// RegisterRequest is the body of POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, err)
		return
	}

	result, err := h.authService.Register(ctx, req.Email, req.Password, req.Role)
	if err != nil {
		logAuthFailure("registration", req.Email, err)
		respondAppError(w, err)
		return
	}

	log.Info().
		Str("user_id", result.User.UserID).
		Str("email", result.User.Email).
		Msg("User registered")

	respondData(w, http.StatusCreated, result)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ctype := r.Header.Get("Content-Type")
	if !strings.Contains(strings.ToLower(ctype), "application/json") {
		respondError(w, apperrors.CodeValidation, "Content-Type must be application/json", http.StatusBadRequest)
		return
	}

	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondAppError(w, err)
		return
	}

	result, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		logAuthFailure("login", req.Email, err)
		respondAppError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(token.TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info().
		Str("user_id", result.User.UserID).
		Msg("User logged in")

	respondData(w, http.StatusOK, result)
}

// logAuthFailure keeps expected failures quiet and internal ones loud.
// The caller's response body stays generic either way.
func logAuthFailure(flow, email string, err error) {
	switch {
	case apperrors.Is(err, apperrors.CodeAuthFailed):
		log.Info().Str("flow", flow).Msg("Credentials rejected")
	case apperrors.Is(err, apperrors.CodeValidation):
		log.Debug().Str("flow", flow).Msg("Invalid auth request")
	case apperrors.Is(err, apperrors.CodeConflict):
		log.Info().Str("flow", flow).Str("email", email).Msg("Duplicate registration")
	default:
		log.Error().Err(err).Str("flow", flow).Msg("Auth flow failed")
	}
}
