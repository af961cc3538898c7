package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/store"
)

type Cache interface {
	GetCache(key string) ([]byte, error)
	SetCache(key string, data []byte, ttl time.Duration) error
	ClearCache() error
}

// CachedCatalog keeps the wanted list for cacheTTL so repeated runs and
// report requests don't page through the remote catalog every time.
type CachedCatalog struct {
	catalog  Catalog
	cache    Cache
	cacheTTL time.Duration
}

func NewCachedCatalog(catalog Catalog, cache Cache, cacheTTL time.Duration) *CachedCatalog {
	return &CachedCatalog{
		catalog:  catalog,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

func (c *CachedCatalog) WantedTracks(ctx context.Context, limit int) ([]domain.Track, error) {
	cacheKey := fmt.Sprintf("%s%d", constants.WantedCachePrefix, limit)

	data, err := c.cache.GetCache(cacheKey)
	if err != nil {
		return nil, err
	}
	if data != nil {
		var tracks []domain.Track
		if err := json.Unmarshal(data, &tracks); err == nil {
			return tracks, nil
		}
	}

	tracks, err := c.catalog.WantedTracks(ctx, limit)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tracks); err == nil {
		_ = c.cache.SetCache(cacheKey, data, c.cacheTTL)
	}

	return tracks, nil
}

func (c *CachedCatalog) ClearCache() error {
	return c.cache.ClearCache()
}

var _ Catalog = (*CachedCatalog)(nil)

// NewStoreCache adapts the store's cache table to Cache.
func NewStoreCache(db *store.DB) Cache {
	return &storeCache{store: db}
}

type storeCache struct {
	store *store.DB
}

func (s *storeCache) GetCache(key string) ([]byte, error) {
	return s.store.GetCache(key)
}

func (s *storeCache) SetCache(key string, data []byte, ttl time.Duration) error {
	return s.store.SetCache(key, data, ttl)
}

func (s *storeCache) ClearCache() error {
	_, err := s.store.ClearCache(constants.WantedCachePrefix)
	return err
}

var _ Cache = (*storeCache)(nil)
