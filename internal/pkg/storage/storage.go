package storage

import (
	"context"
	"errors"
	"io"
)

var ErrInvalidPath = errors.New("storage path escapes base directory")

// FileStorage stores punch photos. Paths are relative keys, never absolute.
type FileStorage interface {
	// Upload writes file under path and returns the cleaned key
	Upload(ctx context.Context, file io.Reader, path string, contentType string) (string, error)

	// Delete removes a file; a missing file is not an error
	Delete(ctx context.Context, path string) error

	// URL returns the public address of a stored key
	URL(path string) string

	// Exists checks if file exists
	Exists(ctx context.Context, path string) (bool, error)
}
