package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobPosting is a posting returned by the external job-search provider.
// Postings are not persisted by this subsystem; they pass through to
// bookmarks, applications, and alert emails.
type JobPosting struct {
	Ref         string    `json:"ref"` // provider-assigned stable identifier
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	PostedAt    time.Time `json:"posted_at"`
}

// Bookmark is a user's saved job posting. One per (user, job ref); the
// creation path checks for an existing row before recording usage.
type Bookmark struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	JobRef    string
	Title     string
	Company   string
	URL       string
	CreatedAt time.Time
}

// ApplicationStatus tracks where a submitted application stands.
type ApplicationStatus string

const (
	ApplicationStatusSubmitted ApplicationStatus = "submitted"
	ApplicationStatusViewed    ApplicationStatus = "viewed"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
)

// Application is a user's application to a posting.
type Application struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	JobRef    string
	Status    ApplicationStatus
	CreatedAt time.Time
}

// Resume is an uploaded resume file; the bytes live in object storage under
// StorageKey.
type Resume struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	StorageKey string
	Filename   string
	CreatedAt  time.Time
}
