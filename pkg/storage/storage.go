package storage

import (
	"context"
	"fmt"
	"io"
)

// Storage is the blob store behind uploaded images. Callers treat the
// returned reference as an opaque URL/path string.
type Storage interface {
	// Save stores a file at the given path and returns its public reference
	Save(ctx context.Context, path string, reader io.Reader, contentType string) (string, error)

	// Delete removes a file at the given path
	Delete(ctx context.Context, path string) error

	// URL returns the public reference for a stored path
	URL(path string) string
}

// Config holds storage configuration
type Config struct {
	Type      string // local or s3
	BasePath  string // for local storage
	BaseURL   string // public URL base
	Bucket    string // for S3
	Region    string // for S3
	Endpoint  string // for S3-compatible providers (R2, MinIO)
	AccessKey string
	SecretKey string
}

// NewStorage creates a storage backend based on configuration
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.BasePath, cfg.BaseURL)
	case "s3":
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
