// Package handler contains HTTP handlers for the Jobscout API.
//
// This file implements job routes:
//   - GET  /api/jobs/search    -> Search
//   - POST /api/jobs/apply     -> Apply
//   - POST /api/jobs/match     -> Match
//   - POST /api/jobs/interview -> Interview
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mlawrence/jobscout/internal/auth"
	"github.com/mlawrence/jobscout/internal/domain"
	"github.com/mlawrence/jobscout/internal/jobsearch"
	"github.com/mlawrence/jobscout/internal/service"
)

// JobHandler handles search, application, and AI career routes.
type JobHandler struct {
	search       service.SearchService
	applications service.ApplicationService
	career       service.CareerService
	logger       *slog.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(search service.SearchService, applications service.ApplicationService, career service.CareerService, logger *slog.Logger) *JobHandler {
	return &JobHandler{
		search:       search,
		applications: applications,
		career:       career,
		logger:       logger,
	}
}

// RegisterRoutes registers job routes on the provided mux.
// Callers must wrap them with the auth middleware.
func (h *JobHandler) RegisterRoutes(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /api/jobs/search", protect(http.HandlerFunc(h.Search)))
	mux.Handle("POST /api/jobs/apply", protect(http.HandlerFunc(h.Apply)))
	mux.Handle("POST /api/jobs/match", protect(http.HandlerFunc(h.Match)))
	mux.Handle("POST /api/jobs/interview", protect(http.HandlerFunc(h.Interview)))
}

// Search returns recent postings for a query.
func (h *JobHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	postings, err := h.search.Search(r.Context(), user.ID, jobsearch.Params{
		Query:    q.Get("q"),
		Location: q.Get("location"),
		Limit:    limit,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if postings == nil {
		postings = []domain.JobPosting{}
	}

	writeJSON(w, http.StatusOK, postings)
}

type postingRequest struct {
	JobRef      string `json:"job_ref"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (p postingRequest) toPosting() domain.JobPosting {
	return domain.JobPosting{
		Ref:         p.JobRef,
		Title:       p.Title,
		Company:     p.Company,
		URL:         p.URL,
		Description: p.Description,
	}
}

// Apply submits a direct application for a posting.
func (h *JobHandler) Apply(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	var req postingRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	application, err := h.applications.Apply(r.Context(), user.ID, req.toPosting())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, application)
}

// Match scores the user's latest resume against a posting.
func (h *JobHandler) Match(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	var req postingRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.career.MatchResume(r.Context(), user.ID, req.toPosting())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type interviewRequest struct {
	postingRequest
	Count int `json:"count"`
}

// Interview generates practice interview questions for a posting.
func (h *JobHandler) Interview(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	var req interviewRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	questions, err := h.career.InterviewQuestions(r.Context(), user.ID, req.toPosting(), req.Count)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, questions)
}
