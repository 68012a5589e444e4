package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidPath is returned for keys that would escape the storage root.
var ErrInvalidPath = errors.New("invalid storage path")

// Storage defines the interface for file storage operations
type Storage interface {
	// Save stores a file at the given path. Implementations must not leave a
	// partially written object behind when Save fails.
	Save(ctx context.Context, path string, reader io.Reader, contentType string) error

	// Get retrieves a file from the given path
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes a file at the given path
	Delete(ctx context.Context, path string) error

	// Exists checks if a file exists at the given path
	Exists(ctx context.Context, path string) (bool, error)

	// GetURL returns a public URL for the file
	GetURL(ctx context.Context, path string) (string, error)

	// GetSize returns the size of a file in bytes
	GetSize(ctx context.Context, path string) (int64, error)

	// EnsurePrefix prepares a key prefix (a directory for local storage).
	// It is idempotent.
	EnsurePrefix(ctx context.Context, prefix string) error
}

// Config holds storage configuration
type Config struct {
	Type      string // local, s3, cloudflare_r2, minio
	BasePath  string // For local storage
	BaseURL   string // Public URL base
	Bucket    string // For S3/R2/MinIO
	Region    string // For S3
	AccessKey string // For S3/R2/MinIO
	SecretKey string // For S3/R2/MinIO
	Endpoint  string // For R2, MinIO or custom S3
	UseSSL    bool   // For MinIO
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3":
		return NewS3Storage(cfg)
	case "cloudflare_r2":
		return NewCloudflareR2Storage(cfg)
	case "minio":
		return NewMinioStorage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
