package library

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const accessKeyPrefix = "access:v1:"

// Cache remembers positive access decisions in Redis. Grants are permanent, so
// a cached "yes" never goes stale; "no" is never cached.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache returns nil when client is nil so callers can treat the cache as optional.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{client: client, ttl: ttl}
}

func accessKey(readerID, contentID string) string {
	return accessKeyPrefix + readerID + ":" + contentID
}

// Remember records that the reader holds a grant for the content.
func (c *Cache) Remember(ctx context.Context, readerID, contentID string) error {
	if c == nil {
		return nil
	}
	return c.client.Set(ctx, accessKey(readerID, contentID), "1", c.ttl).Err()
}

// Known reports whether a grant was previously remembered.
func (c *Cache) Known(ctx context.Context, readerID, contentID string) (bool, error) {
	if c == nil {
		return false, nil
	}
	err := c.client.Get(ctx, accessKey(readerID, contentID)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}
