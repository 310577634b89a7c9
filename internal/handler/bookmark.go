// Package handler contains HTTP handlers for the Jobscout API.
//
// This file implements bookmark routes:
//   - POST   /api/bookmarks          -> Create
//   - GET    /api/bookmarks          -> List
//   - DELETE /api/bookmarks/{jobRef} -> Delete
package handler

import (
	"log/slog"
	"net/http"

	"github.com/mlawrence/jobscout/internal/auth"
	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/service"
)

// BookmarkHandler handles saved-posting routes.
type BookmarkHandler struct {
	bookmarks service.BookmarkService
	logger    *slog.Logger
}

// NewBookmarkHandler creates a new BookmarkHandler.
func NewBookmarkHandler(bookmarks service.BookmarkService, logger *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{
		bookmarks: bookmarks,
		logger:    logger,
	}
}

// RegisterRoutes registers bookmark routes on the provided mux.
// Callers must wrap them with the auth middleware.
func (h *BookmarkHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("POST /api/bookmarks", protect(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/bookmarks", protect(http.HandlerFunc(h.List)))
	mux.Handle("DELETE /api/bookmarks/{jobRef}", protect(http.HandlerFunc(h.Delete)))
}

type createBookmarkRequest struct {
	JobRef  string `json:"job_ref"`
	Title   string `json:"title"`
	Company string `json:"company"`
	URL     string `json:"url"`
}

// Create saves a posting. Re-bookmarking an already saved posting returns
// the existing bookmark with 200 instead of 201.
func (h *BookmarkHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	var req createBookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	bookmark, err := h.bookmarks.Create(r.Context(), user.ID, domain.JobPosting{
		Ref:     req.JobRef,
		Title:   req.Title,
		Company: req.Company,
		URL:     req.URL,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, bookmark)
}

// List returns the user's bookmarks, newest first.
func (h *BookmarkHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	bookmarks, err := h.bookmarks.List(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if bookmarks == nil {
		bookmarks = []domain.Bookmark{}
	}

	writeJSON(w, http.StatusOK, bookmarks)
}

// Delete removes a bookmark. Idempotent.
func (h *BookmarkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	if err := h.bookmarks.Delete(r.Context(), user.ID, r.PathValue("jobRef")); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
