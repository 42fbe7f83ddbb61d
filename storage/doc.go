// Package storage defines a small object storage abstraction used for
// on-disk persistence such as the transcription cache.
//
// Backends:
//
//   - storage/local: filesystem storage with atomic per-object writes
//
// ReadDocument and WriteDocument move whole in-memory documents, such as
// cache entries, through any Storage.
package storage
