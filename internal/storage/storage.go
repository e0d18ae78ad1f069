package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound возвращается, когда blob отсутствует в хранилище.
// Удаление отсутствующего blob-а не считается ошибкой на уровне вызывающего.
var ErrNotFound = errors.New("storage: object not found")

// Storage defines the interface for blob storage operations
type Storage interface {
	// Save stores a blob at the given key
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Get retrieves a blob by key
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes a blob by key; returns ErrNotFound if it is absent
	Delete(ctx context.Context, key string) error

	// Exists checks if a blob exists at the given key
	Exists(ctx context.Context, key string) (bool, error)

	// GetURL returns a public URL for the blob
	GetURL(ctx context.Context, key string) (string, error)
}

// Config holds storage configuration
type Config struct {
	Type       string // local, cloudflare_r2
	BasePath   string // For local storage
	BaseURL    string // Public URL base
	Bucket     string // For R2
	Region     string // For S3; R2 uses "auto"
	AccessKey  string // For R2
	SecretKey  string // For R2
	Endpoint   string // For R2 or custom S3
	UseSSL     bool   // Plain-HTTP endpoints (minio in dev) set this to false
	PublicRead bool   // Make blobs public by default
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "local":
		return NewLocalStorage(cfg)
	case "cloudflare_r2", "s3":
		return NewCloudflareR2Storage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
