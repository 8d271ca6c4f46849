package cuotas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache keeps the per-building stats aggregate in Redis so the dashboard
// endpoint does not hit the fee table on every poll. Mutations invalidate by
// deleting the key.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func statsKey(edificioID int64) string {
	return fmt.Sprintf("cuotas:stats:%d", edificioID)
}

// FetchStats loads the cached stats or populates them using the loader.
// A cache outage degrades to the loader, never to a request failure.
func (c *Cache) FetchStats(ctx context.Context, edificioID int64, loader func(context.Context) (Stats, error)) (Stats, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	key := statsKey(edificioID)
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var stats Stats
		if err := json.Unmarshal(payload, &stats); err == nil {
			return stats, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}
	stats, err := loader(ctx)
	if err != nil {
		return Stats{}, err
	}
	if data, err := json.Marshal(stats); err == nil {
		_ = c.client.Set(ctx, key, data, c.ttl).Err()
	}
	return stats, nil
}

// Invalidate drops the cached stats after a mutation.
func (c *Cache) Invalidate(ctx context.Context, edificioID int64) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, statsKey(edificioID)).Err()
}
