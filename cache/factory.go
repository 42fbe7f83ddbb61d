package cache

import (
	"fmt"

	"github.com/kbukum/samuelizer/logger"
	"github.com/kbukum/samuelizer/observability"
	"github.com/kbukum/samuelizer/redis"
)

// Open builds the configured backend wrapped in Instrumented. The returned
// close function releases backend connections and is never nil.
func Open(cfg Config, metrics *observability.Metrics, log *logger.Logger) (Store, func() error, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	switch cfg.Backend {
	case BackendRedis:
		client, err := redis.New(cfg.Redis, log.WithComponent("redis"))
		if err != nil {
			return nil, nil, fmt.Errorf("cache: %w", err)
		}
		store := NewRedisStore(client, client.KeyPrefix(), cfg.TTL, log)
		return NewInstrumented(store, BackendRedis, metrics, log), client.Close, nil
	default:
		store, err := NewFileStore(cfg.Dir, log)
		if err != nil {
			return nil, nil, fmt.Errorf("cache: %w", err)
		}
		return NewInstrumented(store, BackendFile, metrics, log), func() error { return nil }, nil
	}
}
