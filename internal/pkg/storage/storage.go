package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when no object exists at the path.
var ErrNotFound = errors.New("stored object not found")

// Storage defines the interface for file storage operations.
type Storage interface {
	// Save stores content at the relative path.
	Save(ctx context.Context, path string, content io.Reader) error

	// Get opens the object at path. The caller closes the reader.
	Get(ctx context.Context, path string) (io.ReadCloser, error)

	// Delete removes the object at path. Missing objects are not an error.
	Delete(ctx context.Context, path string) error
}
