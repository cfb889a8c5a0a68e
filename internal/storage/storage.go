// Package storage lists the input files of a sample on EOS.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitordossantos/NUCoffea/internal/config"
)

// Common errors
var (
	// ErrDirNotFound indicates the input directory does not exist
	ErrDirNotFound = errors.New("input directory not found")

	// ErrUnknownBackend indicates an unsupported storage.backend value
	ErrUnknownBackend = errors.New("unknown storage backend")
)

// Lister enumerates the entries of a remote directory.
type Lister interface {
	// List returns the full path of every entry directly under dir, sorted.
	List(ctx context.Context, dir string) ([]string, error)
}

// ListError represents a failure listing an input directory
type ListError struct {
	Backend string // "local" or "s3"
	Dir     string // Directory being listed
	Err     error  // Underlying error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("%s listing of %s failed: %v", e.Backend, e.Dir, e.Err)
}

func (e *ListError) Unwrap() error {
	return e.Err
}

// New returns the Lister selected by cfg.Backend.
func New(cfg config.StorageConfig) (Lister, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalLister(), nil
	case "s3":
		return NewS3Lister(cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
