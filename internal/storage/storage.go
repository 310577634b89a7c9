// Package storage provides file storage abstraction for uploaded resumes.
//
// Two implementations are provided:
// - LocalStorage: filesystem storage for development
// - R2Storage: Cloudflare R2 (S3-compatible) object storage for production
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Storage defines the interface for resume file storage.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at the specified key. Returns ErrKeyExists if the
	// key is taken and overwrite is disabled, ErrTooLarge if the data
	// exceeds opts.MaxSize.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get retrieves the data at the specified key. The caller must close
	// the reader. Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at the specified key. Idempotent.
	Delete(ctx context.Context, key string) error

	// URL returns a URL for accessing the object: a permanent public URL
	// when the backend has one, otherwise a presigned URL valid for the
	// given duration.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType specifies the MIME type of the object.
	ContentType string

	// MaxSize is the maximum allowed size in bytes; 0 means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object at the same key.
	Overwrite bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where files are stored.
	BasePath string

	// BaseURL is the public URL prefix for accessing files.
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's public URL when a custom domain is bound.
	// If empty, presigned URLs are used for all access.
	PublicURL string

	// Region can be any valid region string; R2 is globally distributed.
	// Default: "auto"
	Region string
}

// Provider names accepted by configuration.
const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// ResumeKey generates a storage key for an uploaded resume.
// Format: resumes/{userID}/{uuid}.{ext}
func ResumeKey(userID uuid.UUID, filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("resumes/%s/%s%s", userID, uuid.New(), ext)
}
