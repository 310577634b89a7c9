package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mlawrence/jobscout/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EPAYMENT, http.StatusPaymentRequired},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ERATELIMIT, http.StatusTooManyRequests},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ErrorCodeToHTTPStatus(tt.code); got != tt.want {
				t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

func TestErrorResponse_QuotaExceededIsPaymentRequired(t *testing.T) {
	err := domain.QuotaExceeded("quota.can_perform", domain.ActionSearch, 50)

	req := httptest.NewRequest("POST", "/api/jobs/search", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, testLogger(), err)

	if rec.Code != http.StatusPaymentRequired {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusPaymentRequired)
	}

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != domain.EPAYMENT {
		t.Errorf("code = %q, want %q", body.Error.Code, domain.EPAYMENT)
	}
	if !strings.Contains(body.Error.Message, "monthly search limit (50)") {
		t.Errorf("message missing limit detail: %q", body.Error.Message)
	}
	if !strings.Contains(body.Error.Message, "Upgrade to continue") {
		t.Errorf("message missing upgrade hint: %q", body.Error.Message)
	}
}

func TestErrorResponse_InternalErrorHidesDetail(t *testing.T) {
	err := domain.Internal(io.ErrUnexpectedEOF, "quota.usage_for", "failed to count usage")

	req := httptest.NewRequest("GET", "/api/usage", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, testLogger(), err)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	body := rec.Body.String()
	// Internal detail stays in the logs, not the response.
	if strings.Contains(body, "unexpected EOF") {
		t.Errorf("response exposes the underlying error: %s", body)
	}
	if strings.Contains(body, "quota.usage_for") {
		t.Errorf("response exposes the operation name: %s", body)
	}
}

func TestErrorResponse_PlainTextForBrowserPaths(t *testing.T) {
	err := domain.Invalid("alert.unsubscribe", "Unknown alert.")

	req := httptest.NewRequest("GET", "/alerts/not-a-uuid/unsubscribe", nil)
	rec := httptest.NewRecorder()

	ErrorResponse(rec, req, testLogger(), err)

	if ct := rec.Header().Get("Content-Type"); strings.Contains(ct, "application/json") {
		t.Errorf("expected a non-JSON response for a browser path, got %q", ct)
	}
}

func TestAcceptsJSON(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		accept  string
		content string
		want    bool
	}{
		{name: "api path", path: "/api/bookmarks", want: true},
		{name: "accept header", path: "/somewhere", accept: "application/json", want: true},
		{name: "content type", path: "/somewhere", content: "application/json", want: true},
		{name: "plain browser request", path: "/alerts/x/unsubscribe", accept: "text/html", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.accept != "" {
				req.Header.Set("Accept", tt.accept)
			}
			if tt.content != "" {
				req.Header.Set("Content-Type", tt.content)
			}
			if got := acceptsJSON(req); got != tt.want {
				t.Errorf("acceptsJSON() = %v, want %v", got, tt.want)
			}
		})
	}
}
