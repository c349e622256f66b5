package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/factorflow/backend/pkg/config"
)

const (
	dialTimeout = 3 * time.Second
	ioTimeout   = 2 * time.Second
)

// Client wraps go-redis. A disabled client turns every cache call into a no-op.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New connects with a background context
func New(cfg *config.Config) (*Client, error) {
	return Connect(context.Background(), cfg)
}

// Connect returns Disabled() when REDIS_ENABLED is off, otherwise dials and
// pings the configured server.
func Connect(ctx context.Context, cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return Disabled(), nil
	}

	rdb := redis.NewClient(options(cfg.Redis))

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed (%s): %w", rdb.Options().Addr, err)
	}

	return &Client{rdb: rdb, enabled: true}, nil
}

func options(rc config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         net.JoinHostPort(rc.Host, rc.Port),
		Password:     rc.Password,
		DB:           rc.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	}
}

// Disabled returns a client with caching turned off
func Disabled() *Client {
	return &Client{}
}

// Close closes the connection if one was opened
func (c *Client) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// Enabled reports whether commands reach a server
func (c *Client) Enabled() bool {
	return c.enabled
}

// Ping checks the server; always nil when disabled
func (c *Client) Ping(ctx context.Context) error {
	if !c.enabled {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Redis exposes the go-redis client for commands Cache does not wrap
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
