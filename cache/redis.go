package cache

import (
	"context"
	"time"

	"github.com/kbukum/samuelizer/fingerprint"
	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/redis"
)

// transcriptPrefix is appended to the configured key prefix.
const transcriptPrefix = "transcripts"

// RedisStore keeps entries as JSON documents in Redis.
type RedisStore struct {
	entries *redis.TypedStore[Entry]
	ttl     time.Duration
	log     *logger.Logger
}

// NewRedisStore stores entries under "<keyPrefix>:transcripts:<fingerprint>".
func NewRedisStore(client *redis.Client, keyPrefix string, ttl time.Duration, log *logger.Logger) *RedisStore {
	prefix := transcriptPrefix
	if keyPrefix != "" {
		prefix = keyPrefix + ":" + transcriptPrefix
	}
	if log == nil {
		log = logger.Nop()
	}
	return &RedisStore{
		entries: redis.NewTypedStore[Entry](client, prefix),
		ttl:     ttl,
		log:     log.WithComponent("cache.redis"),
	}
}

// Get loads the entry for fp. Corrupt documents are misses; connection
// failures are returned.
func (s *RedisStore) Get(ctx context.Context, fp fingerprint.Fingerprint) (string, bool, error) {
	e, found, err := s.entries.Load(ctx, string(fp))
	if err != nil {
		if found {
			s.log.Warn("corrupt cache entry treated as miss", logger.Fields(
				logger.FieldFingerprint, fp.Short(), logger.FieldError, err.Error()))
			return "", false, nil
		}
		return "", false, err
	}
	if !found || e.Fingerprint != fp {
		return "", false, nil
	}
	return e.Text, true, nil
}

// Put stores the entry with the configured TTL.
func (s *RedisStore) Put(ctx context.Context, fp fingerprint.Fingerprint, text string) error {
	e := newEntry(fp, text)
	return s.entries.Save(ctx, string(fp), &e, s.ttl)
}

// Has reports whether the key exists.
func (s *RedisStore) Has(ctx context.Context, fp fingerprint.Fingerprint) (bool, error) {
	return s.entries.Exists(ctx, string(fp))
}

// Invalidate deletes the key.
func (s *RedisStore) Invalidate(ctx context.Context, fp fingerprint.Fingerprint) error {
	return s.entries.Delete(ctx, string(fp))
}

// Clear deletes every key under the prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	n, err := s.entries.DeleteAll(ctx)
	if err != nil {
		return err
	}
	s.log.Debug("cache cleared", logger.Fields("entries", n))
	return nil
}

// Stats counts keys under the prefix. Redis does not report sizes cheaply,
// so Bytes is zero.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	keys, err := s.entries.Keys(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Backend: BackendRedis, Entries: len(keys)}, nil
}

// compile-time check
var _ Store = (*RedisStore)(nil)
