package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// scanBatch is the COUNT hint passed to SCAN.
const scanBatch = 100

// TypedStore keeps values of type V as JSON documents under
// "<namespace>:<key>".
type TypedStore[V any] struct {
	rdb       *goredis.Client
	namespace string
}

// NewTypedStore binds a store to client. An empty namespace stores bare keys.
func NewTypedStore[V any](client *Client, namespace string) *TypedStore[V] {
	return &TypedStore[V]{rdb: client.rdb, namespace: namespace}
}

func (s *TypedStore[V]) key(k string) string {
	if s.namespace == "" {
		return k
	}
	return s.namespace + ":" + k
}

// Load returns the value at k. found is false for a missing key; a value
// that does not decode is reported with found=true and an error.
func (s *TypedStore[V]) Load(ctx context.Context, k string) (val *V, found bool, err error) {
	raw, err := s.rdb.Get(ctx, s.key(k)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", k, err)
	}
	val = new(V)
	if err := json.Unmarshal(raw, val); err != nil {
		return nil, true, fmt.Errorf("redis decode %s: %w", k, err)
	}
	return val, true, nil
}

// Save writes v at k. A zero ttl never expires.
func (s *TypedStore[V]) Save(ctx context.Context, k string, v *V, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", k, err)
	}
	if err := s.rdb.Set(ctx, s.key(k), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", k, err)
	}
	return nil
}

// Exists reports whether k is present.
func (s *TypedStore[V]) Exists(ctx context.Context, k string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(k)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %w", k, err)
	}
	return n == 1, nil
}

// Delete removes k. Deleting a missing key is not an error.
func (s *TypedStore[V]) Delete(ctx context.Context, k string) error {
	if err := s.rdb.Del(ctx, s.key(k)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", k, err)
	}
	return nil
}

// Keys walks the namespace with SCAN and returns keys without it.
func (s *TypedStore[V]) Keys(ctx context.Context) ([]string, error) {
	full, err := s.scan(ctx)
	if err != nil {
		return nil, err
	}
	prefix := s.key("")
	for i, k := range full {
		full[i] = strings.TrimPrefix(k, prefix)
	}
	return full, nil
}

// DeleteAll removes every key in the namespace and reports how many.
func (s *TypedStore[V]) DeleteAll(ctx context.Context) (int, error) {
	full, err := s.scan(ctx)
	if err != nil || len(full) == 0 {
		return 0, err
	}
	n, err := s.rdb.Del(ctx, full...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del %d keys: %w", len(full), err)
	}
	return int(n), nil
}

func (s *TypedStore[V]) scan(ctx context.Context) ([]string, error) {
	var keys []string
	it := s.rdb.Scan(ctx, 0, s.key("*"), scanBatch).Iterator()
	for it.Next(ctx) {
		keys = append(keys, it.Val())
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", s.key("*"), err)
	}
	return keys, nil
}
