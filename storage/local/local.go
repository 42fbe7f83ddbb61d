// Package local implements storage.Storage on a directory tree.
package local

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kbukum/samuelizer/storage"
)

const tmpSuffix = ".tmp"

// Storage keeps each object as a file below a root directory. Object paths
// are slash separated and cannot escape the root.
type Storage struct {
	root string
}

var _ storage.Storage = (*Storage)(nil)

// NewStorage creates root if needed and returns a Storage on it.
func NewStorage(root string) (*Storage, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", abs, err)
	}
	return &Storage{root: abs}, nil
}

// BasePath returns the absolute root directory.
func (s *Storage) BasePath() string { return s.root }

func (s *Storage) file(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	if clean == "/" {
		return "", errors.New("storage: empty object path")
	}
	return filepath.Join(s.root, clean), nil
}

// Upload streams r into a hidden temp file next to the target, syncs it,
// then renames it into place.
func (s *Storage) Upload(ctx context.Context, path string, r io.Reader) error {
	dst, err := s.file(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("storage: create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*"+tmpSuffix)
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	if err := commit(ctx, tmp, r, dst); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func commit(ctx context.Context, tmp *os.File, r io.Reader, dst string) error {
	_, err := io.Copy(tmp, r)
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("storage: write %s: %w", filepath.Base(dst), err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("storage: commit %s: %w", filepath.Base(dst), err)
	}
	return nil
}

// Download opens the object. A missing one yields storage.ErrNotFound.
func (s *Storage) Download(_ context.Context, path string) (io.ReadCloser, error) {
	name, err := s.file(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, path)
	case err != nil:
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return f, nil
}

func (s *Storage) Delete(_ context.Context, path string) error {
	name, err := s.file(path)
	if err != nil {
		return err
	}
	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", path, err)
	}
	return nil
}

func (s *Storage) Exists(_ context.Context, path string) (bool, error) {
	name, err := s.file(path)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("storage: stat %s: %w", path, err)
	}
	return true, nil
}

// List walks the tree and returns the objects under prefix sorted by
// path. Uploads still in flight are not listed.
func (s *Storage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	files := []storage.FileInfo{}
	err := filepath.WalkDir(s.root, func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || inFlight(d.Name()) {
			return err
		}
		rel, err := filepath.Rel(s.root, name)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !strings.HasPrefix(rel, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, storage.FileInfo{
			Path:         rel,
			Size:         info.Size(),
			LastModified: info.ModTime(),
			ContentType:  cmp.Or(mime.TypeByExtension(filepath.Ext(name)), "application/octet-stream"),
		})
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("storage: list %q: %w", prefix, err)
	}
	slices.SortFunc(files, func(a, b storage.FileInfo) int { return strings.Compare(a.Path, b.Path) })
	return files, nil
}

func inFlight(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tmpSuffix)
}
