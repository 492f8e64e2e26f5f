// Package cache holds per-user unread message counts so the badge poll does
// not hit the messages table on every tick.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// UnreadCache stores the aggregate unread count per user.
type UnreadCache interface {
	// Get returns the cached count. ok is false on a miss.
	Get(ctx context.Context, userID uint) (count int64, ok bool, err error)
	Set(ctx context.Context, userID uint, count int64) error
	Invalidate(ctx context.Context, userID uint) error
}

const keyPrefix = "inbox:unread:"

func unreadKey(userID uint) string {
	return keyPrefix + strconv.FormatUint(uint64(userID), 10)
}

// RedisUnreadCache is an UnreadCache backed by redis string keys with a TTL.
type RedisUnreadCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisUnreadCache wraps an existing client.
func NewRedisUnreadCache(client *redis.Client, ttl time.Duration) *RedisUnreadCache {
	return &RedisUnreadCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL, pings the server and returns the client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (c *RedisUnreadCache) Get(ctx context.Context, userID uint) (int64, bool, error) {
	n, err := c.client.Get(ctx, unreadKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get unread count: %w", err)
	}
	return n, true, nil
}

func (c *RedisUnreadCache) Set(ctx context.Context, userID uint, count int64) error {
	if err := c.client.Set(ctx, unreadKey(userID), count, c.ttl).Err(); err != nil {
		return fmt.Errorf("set unread count: %w", err)
	}
	return nil
}

func (c *RedisUnreadCache) Invalidate(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, unreadKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidate unread count: %w", err)
	}
	return nil
}

// Noop never hits. Used when no redis is configured.
type Noop struct{}

func (Noop) Get(context.Context, uint) (int64, bool, error) { return 0, false, nil }
func (Noop) Set(context.Context, uint, int64) error         { return nil }
func (Noop) Invalidate(context.Context, uint) error         { return nil }
