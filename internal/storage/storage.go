package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/marsesrobotics/dashboard/internal/config"
)

var ErrInvalidKey = errors.New("invalid object key")

// Storage keeps uploaded objects and returns the URL browsers load them from.
type Storage interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by UPLOAD_BACKEND
func New(ctx context.Context, cfg config.UploadConfig) (Storage, error) {
	switch cfg.Backend {
	case config.UploadBackendLocal:
		return NewLocalStorage(cfg.Dir, cfg.PublicPath)
	case config.UploadBackendS3:
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown upload backend %q", cfg.Backend)
	}
}

// validateKey allows flat names only, so a key can never leave its directory or bucket prefix.
func validateKey(key string) error {
	if key == "" || key != path.Base(key) || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func joinURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
