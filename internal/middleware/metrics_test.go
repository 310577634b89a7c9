package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMetricsAuthDisabledWhenUnconfigured(t *testing.T) {
	mw := NewMetricsAuthMiddleware("", "")

	rec := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMetricsAuthRejectsMissingCredentials(t *testing.T) {
	mw := NewMetricsAuthMiddleware("prom", "scrape-secret")

	rec := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got == "" {
		t.Error("expected a WWW-Authenticate challenge")
	}
}

func TestMetricsAuthRejectsWrongPassword(t *testing.T) {
	mw := NewMetricsAuthMiddleware("prom", "scrape-secret")

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.SetBasicAuth("prom", "wrong")
	rec := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestMetricsAuthAcceptsValidCredentials(t *testing.T) {
	mw := NewMetricsAuthMiddleware("prom", "scrape-secret")

	req := httptest.NewRequest("GET", "/metrics", nil)
	req.SetBasicAuth("prom", "scrape-secret")
	rec := httptest.NewRecorder()
	mw.Handler(okHandler()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
