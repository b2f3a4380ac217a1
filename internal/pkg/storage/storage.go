package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

// ErrNotFound is returned by Get and GetInfo when the object does not exist
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that would escape the storage root
var ErrInvalidKey = errors.New("invalid object key")

// Storage is implemented by every backend holding the site's model assets and thumbnails
type Storage interface {
	// Put stores an object under key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Get opens an object. The caller closes the reader.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Returns nil if it doesn't exist.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is present.
	Exists(ctx context.Context, key string) (bool, error)

	// GetInfo returns object metadata.
	GetInfo(ctx context.Context, key string) (*FileInfo, error)

	// GetURL returns the public URL for a key.
	GetURL(key string) string
}

// FileInfo describes a stored object
type FileInfo struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

// Config selects and configures a backend
type Config struct {
	Driver string // local, s3, r2

	LocalPath string
	BaseURL   string

	S3 S3Config
	R2 R2Config
}

// New builds the backend named by cfg.Driver
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.LocalPath, cfg.BaseURL)
	case "s3":
		return NewS3Storage(ctx, cfg.S3)
	case "r2":
		return NewR2Storage(ctx, cfg.R2)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// KeyFromPath turns a dataset path such as "/models/statue.glb" into a storage key
func KeyFromPath(p string) (string, error) {
	if strings.Contains(p, "://") {
		return "", ErrInvalidKey
	}
	key := strings.TrimPrefix(path.Clean("/"+p), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	return key, nil
}

// ContentTypeForKey guesses a content type from the key extension
func ContentTypeForKey(key string) string {
	switch strings.ToLower(path.Ext(key)) {
	case ".glb":
		return "model/gltf-binary"
	case ".gltf":
		return "model/gltf+json"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
