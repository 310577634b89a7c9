// Package handler contains HTTP handlers for the Jobscout API.
//
// This file implements resume routes:
//   - POST /api/resumes        -> Upload (multipart form, field "resume")
//   - GET  /api/resumes/latest -> Latest
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/mlawrence/jobscout/internal/auth"
	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/service"
)

// maxUploadMemory is the in-memory buffer for multipart parsing; larger
// parts spill to disk.
const maxUploadMemory = 1 << 20

// ResumeHandler handles resume upload and retrieval.
type ResumeHandler struct {
	resumes service.ResumeService
	logger  *slog.Logger
}

// NewResumeHandler creates a new ResumeHandler.
func NewResumeHandler(resumes service.ResumeService, logger *slog.Logger) *ResumeHandler {
	return &ResumeHandler{
		resumes: resumes,
		logger:  logger,
	}
}

// RegisterRoutes registers resume routes on the provided mux.
// Callers must wrap them with the auth middleware.
func (h *ResumeHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("POST /api/resumes", protect(http.HandlerFunc(h.Upload)))
	mux.Handle("GET /api/resumes/latest", protect(http.HandlerFunc(h.Latest)))
}

type resumeResponse struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	CreatedAt string `json:"created_at"`
	URL       string `json:"url,omitempty"`
}

// Upload stores a resume file from a multipart form.
func (h *ResumeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "resume.upload"

	user := auth.GetUser(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxResumeSize+maxUploadMemory)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "Expected a multipart form with a resume file."))
		return
	}

	file, header, err := r.FormFile("resume")
	if err != nil {
		ErrorResponse(w, r, h.logger, domain.Invalid(op, "A resume file is required."))
		return
	}
	defer file.Close()

	resume, err := h.resumes.Upload(r.Context(), user.ID, header.Filename, file)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, resumeResponse{
		ID:        resume.ID.String(),
		Filename:  resume.Filename,
		CreatedAt: resume.CreatedAt.Format(time.RFC3339),
	})
}

// Latest returns the user's most recent resume with a short-lived
// download URL.
func (h *ResumeHandler) Latest(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	resume, err := h.resumes.Latest(r.Context(), user.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	url, err := h.resumes.DownloadURL(r.Context(), resume)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resumeResponse{
		ID:        resume.ID.String(),
		Filename:  resume.Filename,
		CreatedAt: resume.CreatedAt.Format(time.RFC3339),
		URL:       url,
	})
}
