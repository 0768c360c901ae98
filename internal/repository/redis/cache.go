package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Cache keeps catalog lists as JSON documents. Concurrent misses on the same
// key share one loader call.
type Cache struct {
	rdb *redis.Client
	sf  singleflight.Group
}

func New(client *redis.Client) *Cache {
	return &Cache{rdb: client}
}

// lookup decodes the document under key into dst. A missing, unreadable or
// undecodable document is reported as a miss.
func (c *Cache) lookup(ctx context.Context, key string, dst any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

// GetOrSetJSON returns the document under key or loads, stores and returns
// it. Redis failures degrade to calling loader; only loader errors fail the
// call.
func GetOrSetJSON[T any](
	ctx context.Context,
	c *Cache,
	key string,
	ttl time.Duration,
	loader func(ctx context.Context) (T, error),
) (T, error) {
	var zero, out T
	if c.lookup(ctx, key, &out) {
		return out, nil
	}

	v, err, _ := c.sf.Do(key, func() (any, error) {
		var fresh T
		if c.lookup(ctx, key, &fresh) {
			return fresh, nil
		}

		fresh, err := loader(ctx)
		if err != nil {
			return nil, err
		}

		if b, err := json.Marshal(fresh); err == nil {
			_ = c.rdb.Set(ctx, key, b, ttl).Err()
		}
		return fresh, nil
	})
	if err != nil {
		return zero, err
	}

	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("redis.GetOrSetJSON: %s holds %T", key, v)
	}

	return out, nil
}

// InvalidateCatalog drops the campus list and the sport lists of campusIDs.
func (c *Cache) InvalidateCatalog(ctx context.Context, campusIDs ...int64) error {
	keys := []string{KeyCampuses()}
	for _, id := range campusIDs {
		keys = append(keys, KeySports(id))
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis.Cache.InvalidateCatalog: %w", err)
	}
	return nil
}
