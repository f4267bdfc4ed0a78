// Package storagebackend implements the abstract key→bytes blob store
// contract (C2) that the object database depends on, plus concrete
// implementations: in-memory, local filesystem, S3, and GCS.
package storagebackend

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get when key does not exist.
var ErrNotFound = errors.New("storagebackend: key not found")

// ErrInvalidKey is returned for empty or otherwise malformed keys.
var ErrInvalidKey = errors.New("storagebackend: invalid key")

// Backend is the minimal capability surface every storage implementation
// must provide. Implementations are expected to make Put atomic per key
// (write-to-tempfile-then-rename or the equivalent for the backend).
type Backend interface {
	// Get returns the bytes stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores b at key, overwriting any previous value atomically.
	Put(ctx context.Context, key string, b []byte) error
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Delete removes key. It is idempotent: deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error
	// List returns every key with the given prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)
}

// StreamingBackend is implemented by backends that can hand back a
// reader instead of buffering the whole value, used by the ODB's read
// path for large blobs.
type StreamingBackend interface {
	Backend
	// OpenReader returns a stream for key; callers must Close it.
	OpenReader(ctx context.Context, key string) (io.ReadCloser, error)
}

func validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}
