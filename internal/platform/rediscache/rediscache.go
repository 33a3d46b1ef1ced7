package rediscache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

const keyPrefix = "planner:schema:"

// Cache keeps raw plan schema documents in Redis so every planner instance
// shares one copy per plan.
type Cache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func New(addr string, ttl time.Duration, log *logger.Logger) (*Cache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Cache{
		log: log.With("service", "RedisSchemaCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func Key(identifier string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(identifier))
}

func (c *Cache) Get(ctx context.Context, identifier string) ([]byte, bool, error) {
	if c == nil || c.rdb == nil {
		return nil, false, fmt.Errorf("redis schema cache not initialized")
	}
	raw, err := c.rdb.Get(ctx, Key(identifier)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *Cache) Set(ctx context.Context, identifier string, raw []byte) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis schema cache not initialized")
	}
	return c.rdb.Set(ctx, Key(identifier), raw, c.ttl).Err()
}

// Invalidate drops a cached schema, e.g. after the catalog was republished.
func (c *Cache) Invalidate(ctx context.Context, identifier string) error {
	if c == nil || c.rdb == nil {
		return fmt.Errorf("redis schema cache not initialized")
	}
	return c.rdb.Del(ctx, Key(identifier)).Err()
}

func (c *Cache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
