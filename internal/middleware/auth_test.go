package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mlawrence/jobscout/internal/auth"
	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/handler"
)

// fakeUserService recognizes a single session token.
type fakeUserService struct {
	token string
	user  *domain.User
}

func (f *fakeUserService) Register(ctx context.Context, params domain.RegisterParams) (*domain.User, error) {
	return nil, domain.Invalid("test", "not implemented")
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	return nil, domain.Unauthorized("test", "invalid session")
}

func (f *fakeUserService) Logout(ctx context.Context, token string) error {
	return nil
}

func (f *fakeUserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return nil, domain.NotFound("test", "user", id.String())
}

func (f *fakeUserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, domain.NotFound("test", "user", email)
}

func (f *fakeUserService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	if f.user != nil && token == f.token {
		return f.user, nil
	}
	return nil, domain.Unauthorized("test", "invalid session")
}

func (f *fakeUserService) GetPlan(ctx context.Context, userID uuid.UUID) (*domain.UserPlan, error) {
	return domain.DefaultFreePlan(userID, time.Now()), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetUser(r.Context()) != nil {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestWithUserValidSession(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com"}
	users := &fakeUserService{token: "valid-token", user: user}
	mw := NewAuthMiddleware(users, testLogger(), false)

	req := httptest.NewRequest("GET", "/api/usage", nil)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()

	mw.WithUser(echoUser()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected the user in context, got status %d", rec.Code)
	}
}

func TestWithUserNoCookieContinuesUnauthenticated(t *testing.T) {
	mw := NewAuthMiddleware(&fakeUserService{}, testLogger(), false)

	req := httptest.NewRequest("GET", "/api/usage", nil)
	rec := httptest.NewRecorder()

	mw.WithUser(echoUser()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected no user in context, got status %d", rec.Code)
	}
}

func TestWithUserInvalidSessionClearsCookie(t *testing.T) {
	mw := NewAuthMiddleware(&fakeUserService{}, testLogger(), false)

	req := httptest.NewRequest("GET", "/api/usage", nil)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: "expired-token"})
	rec := httptest.NewRecorder()

	mw.WithUser(echoUser()).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected the request to continue unauthenticated, got status %d", rec.Code)
	}

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == handler.SessionCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the stale session cookie to be cleared")
	}
}

func TestRequireUserRejectsUnauthenticated(t *testing.T) {
	mw := NewAuthMiddleware(&fakeUserService{}, testLogger(), false)

	req := httptest.NewRequest("GET", "/api/usage", nil)
	rec := httptest.NewRecorder()

	mw.RequireUser(echoUser()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestProtect(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "ada@example.com"}
	users := &fakeUserService{token: "valid-token", user: user}
	mw := NewAuthMiddleware(users, testLogger(), false)

	// With a valid session the request reaches the handler authenticated.
	req := httptest.NewRequest("GET", "/api/usage", nil)
	req.AddCookie(&http.Cookie{Name: handler.SessionCookieName, Value: "valid-token"})
	rec := httptest.NewRecorder()
	mw.Protect(echoUser()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated request: status = %d, want %d", rec.Code, http.StatusOK)
	}

	// Without one it is rejected before the handler runs.
	req = httptest.NewRequest("GET", "/api/usage", nil)
	rec = httptest.NewRecorder()
	mw.Protect(echoUser()).ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous request: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
