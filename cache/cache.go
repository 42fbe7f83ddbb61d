// Package cache persists transcription results keyed by fingerprint.
//
// Two backends implement Store:
//
//   - FileStore: one JSON document per fingerprint under a directory, written
//     atomically through storage/local
//   - RedisStore: the same documents in Redis under a key prefix, for caches
//     shared between hosts
//
// Unreadable or corrupt entries are reported as misses, never as errors, so
// the caller re-transcribes and overwrites them.
package cache

import (
	"context"
	"time"

	"github.com/kbukum/samuelizer/fingerprint"
)

// Entry is a persisted transcription. Entries are never mutated; Put replaces
// the whole document.
type Entry struct {
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
	Text        string                  `json:"text"`
	CreatedAt   time.Time               `json:"created_at"`
}

// Stats summarizes a store's contents.
type Stats struct {
	Backend string `json:"backend"`
	Entries int    `json:"entries"`
	// Bytes is the stored size, when the backend can report it.
	Bytes int64 `json:"bytes"`
}

// Store is the transcription cache contract.
type Store interface {
	// Get returns the cached text; ok is false on a miss.
	Get(ctx context.Context, fp fingerprint.Fingerprint) (text string, ok bool, err error)
	// Put stores text under fp, replacing any previous entry.
	Put(ctx context.Context, fp fingerprint.Fingerprint, text string) error
	// Has reports whether an entry exists without decoding it.
	Has(ctx context.Context, fp fingerprint.Fingerprint) (bool, error)
	// Invalidate removes the entry for fp. Missing entries are not an error.
	Invalidate(ctx context.Context, fp fingerprint.Fingerprint) error
	// Clear removes every entry.
	Clear(ctx context.Context) error
	// Stats reports entry count and size.
	Stats(ctx context.Context) (Stats, error)
}

// now is swapped in tests.
var now = func() time.Time { return time.Now().UTC() }

func newEntry(fp fingerprint.Fingerprint, text string) Entry {
	return Entry{Fingerprint: fp, Text: text, CreatedAt: now()}
}
