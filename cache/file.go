package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kbukum/samuelizer/fingerprint"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/storage"
	"github.com/kbukum/samuelizer/storage/local"
)

const (
	entryExt = ".json"
	// maxEntryBytes bounds a single cached transcript; anything larger is
	// not something this store wrote.
	maxEntryBytes = 64 << 20
)

// FileStore keeps one JSON document per fingerprint in a directory.
// Writes go to a temp file and are renamed into place, so concurrent
// writers never leave a torn entry. Reads take no lock.
type FileStore struct {
	objects storage.Storage
	dir     string
	log     *logger.Logger
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string, log *logger.Logger) (*FileStore, error) {
	s, err := local.NewStorage(dir)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FileStore{
		objects: s,
		dir:     s.BasePath(),
		log:     log.WithComponent("cache.file"),
	}, nil
}

// Dir returns the absolute cache directory.
func (s *FileStore) Dir() string { return s.dir }

func entryPath(fp fingerprint.Fingerprint) string { return string(fp) + entryExt }

// Get reads the entry for fp. Missing, unreadable and corrupt entries are misses.
func (s *FileStore) Get(ctx context.Context, fp fingerprint.Fingerprint) (string, bool, error) {
	data, err := storage.ReadDocument(ctx, s.objects, entryPath(fp), maxEntryBytes)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("unreadable cache entry treated as miss", logger.Fields(
				logger.FieldFingerprint, fp.Short(), logger.FieldError, err.Error()))
		}
		return "", false, nil
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		s.log.Warn("corrupt cache entry treated as miss", logger.Fields(
			logger.FieldFingerprint, fp.Short(), logger.FieldError, err.Error()))
		return "", false, nil
	}
	if e.Fingerprint != fp {
		s.log.Warn("cache entry fingerprint mismatch treated as miss", logger.Fields(
			logger.FieldFingerprint, fp.Short()))
		return "", false, nil
	}
	return e.Text, true, nil
}

// Put writes the entry atomically. Last write wins.
func (s *FileStore) Put(ctx context.Context, fp fingerprint.Fingerprint, text string) error {
	data, err := json.MarshalIndent(newEntry(fp, text), "", "  ")
	if err != nil {
		return err
	}
	return storage.WriteDocument(ctx, s.objects, entryPath(fp), data)
}

// Has reports whether an entry file exists.
func (s *FileStore) Has(ctx context.Context, fp fingerprint.Fingerprint) (bool, error) {
	return s.objects.Exists(ctx, entryPath(fp))
}

// Invalidate removes the entry file.
func (s *FileStore) Invalidate(ctx context.Context, fp fingerprint.Fingerprint) error {
	return s.objects.Delete(ctx, entryPath(fp))
}

// Clear removes every entry file in the directory. Other files are left alone.
func (s *FileStore) Clear(ctx context.Context) error {
	objects, err := s.objects.List(ctx, "")
	if err != nil {
		return err
	}
	var errs []error
	for _, o := range objects {
		if !isEntry(o.Path) {
			continue
		}
		if err := s.objects.Delete(ctx, o.Path); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stats counts entry files and their total size.
func (s *FileStore) Stats(ctx context.Context) (Stats, error) {
	objects, err := s.objects.List(ctx, "")
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Backend: BackendFile}
	for _, o := range objects {
		if !isEntry(o.Path) {
			continue
		}
		st.Entries++
		st.Bytes += o.Size
	}
	return st, nil
}

func isEntry(key string) bool {
	return !strings.Contains(key, "/") && strings.HasSuffix(key, entryExt) &&
		fingerprint.Valid(strings.TrimSuffix(key, entryExt))
}

// compile-time check
var _ Store = (*FileStore)(nil)
