package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// ReadDocument downloads a whole object into memory. Objects larger than
// limit bytes are rejected rather than truncated; limit <= 0 disables the
// check.
func ReadDocument(ctx context.Context, s Storage, path string, limit int64) ([]byte, error) {
	rc, err := s.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if limit <= 0 {
		return io.ReadAll(rc)
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("storage: %s exceeds %d bytes", path, limit)
	}
	return data, nil
}

// WriteDocument stores data at path with the backend's write guarantees.
func WriteDocument(ctx context.Context, s Storage, path string, data []byte) error {
	return s.Upload(ctx, path, bytes.NewReader(data))
}
