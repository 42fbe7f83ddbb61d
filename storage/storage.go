package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is wrapped by Download when nothing is stored at the path.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo describes one stored object as returned by List.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage is a flat namespace of objects addressed by slash separated
// paths. Upload replaces an object atomically, so a reader sees the old
// content or the new content and nothing in between. Delete of a missing
// object is not an error.
type Storage interface {
	Upload(ctx context.Context, path string, r io.Reader) error
	// Download's caller closes the reader.
	Download(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}
