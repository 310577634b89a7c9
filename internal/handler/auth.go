// Package handler contains HTTP handlers for the Jobscout API.
//
// This file implements account routes:
//   - POST /api/auth/register -> Register
//   - POST /api/auth/login    -> Login
//   - POST /api/auth/logout   -> Logout
package handler

import (
	"log/slog"
	"net/http"

	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/email"
	"github.com/mlawrence/jobscout/internal/service"
)

const (
	// SessionCookieName is the cookie that carries the raw session token.
	SessionCookieName = "jobscout_session"

	// SessionCookieMaxAge matches service.SessionDuration, in seconds.
	SessionCookieMaxAge = 7 * 24 * 60 * 60
)

// AuthHandler handles account registration and sessions.
type AuthHandler struct {
	users    service.UserService
	email    email.EmailService
	logger   *slog.Logger
	isSecure bool
}

// NewAuthHandler creates a new AuthHandler.
// emailService may be nil; the welcome email is then skipped.
func NewAuthHandler(users service.UserService, emailService email.EmailService, logger *slog.Logger, isSecure bool) *AuthHandler {
	return &AuthHandler{
		users:    users,
		email:    emailService,
		logger:   logger,
		isSecure: isSecure,
	}
}

// RegisterRoutes registers auth routes on the provided mux.
// These routes are PUBLIC, no auth middleware.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register creates a new account and logs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	user, err := h.users.Register(r.Context(), domain.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if h.email != nil {
		// Best effort; registration is already durable.
		if err := h.email.SendWelcomeEmail(r.Context(), user.Email, user.Name); err != nil {
			h.logger.Warn("welcome email failed", "user_id", user.ID, "error", err)
		}
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, userResponse{
		ID:    user.ID.String(),
		Email: user.Email,
		Name:  user.Name,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login authenticates a user and issues a session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, userResponse{
		ID:    result.User.ID.String(),
		Email: result.User.Email,
		Name:  result.User.Name,
	})
}

// Logout invalidates the current session. Idempotent.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(SessionCookieName)
	if err == nil && cookie.Value != "" {
		if err := h.users.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Warn("logout failed", "error", err)
		}
	}

	h.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   SessionCookieMaxAge,
		HttpOnly: true,
		Secure:   h.isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
