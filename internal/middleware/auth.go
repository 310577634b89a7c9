// Package middleware contains HTTP middleware for the Jobscout API.
//
// Middleware functions follow the standard Go pattern of wrapping
// http.Handler and are composed per-route when the mux is built.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mlawrence/jobscout/internal/auth"
	"github.com/mlawrence/jobscout/internal/handler"
	"github.com/mlawrence/jobscout/internal/service"
)

// AuthMiddleware provides authentication middleware functionality.
type AuthMiddleware struct {
	users    service.UserService
	logger   *slog.Logger
	isSecure bool // Whether to set Secure flag on cleared cookies
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(users service.UserService, logger *slog.Logger, isSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		users:    users,
		logger:   logger,
		isSecure: isSecure,
	}
}

// WithUser attempts to load the user from the session cookie.
//
// The request continues regardless of authentication status; a valid
// session puts the user in the request context for auth.GetUser.
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(handler.SessionCookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetBySessionToken(r.Context(), cookie.Value)
		if err != nil {
			// Invalid or expired session: clear the cookie and continue
			// unauthenticated.
			m.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		r = r.WithContext(auth.SetUser(r.Context(), user))
		next.ServeHTTP(w, r)
	})
}

// RequireUser requires an authenticated user in the context.
//
// Must run after WithUser in the chain. Unauthenticated requests get a
// 401 JSON error.
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Protect composes WithUser and RequireUser for protected routes.
func (m *AuthMiddleware) Protect(next http.Handler) http.Handler {
	return m.WithUser(m.RequireUser(next))
}

func (m *AuthMiddleware) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     handler.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
