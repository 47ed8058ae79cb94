package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-box-office/internal/errs"
)

// Cache stores catalog reads in Redis as JSON.  A nil *Cache, or one
// without a client, misses on every Get and drops every Set.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewCache(rdb *redis.Client, ttl time.Duration, prefix string) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if prefix == "" {
		prefix = "catalog"
	}
	return &Cache{rdb: rdb, ttl: ttl, prefix: prefix}
}

func (c *Cache) enabled() bool { return c != nil && c.rdb != nil }

func (c *Cache) key(k string) string { return c.prefix + ":" + k }

// Get decodes the cached value of k into dst and reports a hit.
func (c *Cache) Get(ctx context.Context, k string, dst any) (bool, error) {
	if !c.enabled() {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, c.key(k)).Bytes()
	if errs.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrapf(err, "cache get %s", k)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// a corrupt entry is treated as a miss and overwritten later
		return false, nil
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, k string, v any) error {
	if !c.enabled() {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return errs.Wrapf(err, "cache encode %s", k)
	}
	return errs.Wrapf(c.rdb.Set(ctx, c.key(k), raw, c.ttl).Err(), "cache set %s", k)
}
