package config

import "time"

// CatalogCacheConfig controls the Redis cache for combos, menu items,
// events, discounts and ticket prices.  Seat layouts are never cached.
type CatalogCacheConfig struct {
	Enabled  bool          `envconfig:"CATALOG_CACHE_ENABLED" default:"true"`
	TTL      time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"60s"`
	Prefix   string        `envconfig:"CATALOG_CACHE_PREFIX" default:"catalog"`
	PageSize int           `envconfig:"CATALOG_PAGE_SIZE" default:"50"`
}
