package redis

import (
	"context"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/samuelizer/logger"
)

// Client is a go-redis connection pool with its configuration.
type Client struct {
	rdb  *goredis.Client
	cfg  Config
	log  *logger.Logger
	once sync.Once
}

// New validates cfg and opens a pool. No connection is made until the
// first command.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	log.Debug("redis pool opened", logger.Fields("addr", cfg.Addr, "db", cfg.DB))
	return &Client{rdb: goredis.NewClient(cfg.options()), cfg: cfg, log: log}, nil
}

// KeyPrefix is the namespace configured for this client.
func (c *Client) KeyPrefix() string { return c.cfg.KeyPrefix }

// Ping round-trips a PING.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis %s: %w", c.cfg.Addr, err)
	}
	return nil
}

// Close releases the pool. Later calls are no-ops.
func (c *Client) Close() error {
	var err error
	c.once.Do(func() {
		c.log.Debug("redis pool closed", logger.Fields("addr", c.cfg.Addr))
		err = c.rdb.Close()
	})
	return err
}
