package common

import (
	"context"
	"time"

	"forage-map/orchard/internal/models/entities"

	"github.com/patrickmn/go-cache"
)

// CacheService is the in-process snapshot cache. Every session served by the
// process shares it.
type CacheService struct {
	cache *cache.Cache
}

// Ensure CacheService implements CacheInterface
var _ CacheInterface = (*CacheService)(nil)

func NewCacheService(defaultExpiration, cleanUpInterval time.Duration) *CacheService {
	c := cache.New(defaultExpiration, cleanUpInterval)
	return &CacheService{cache: c}
}

func (cs *CacheService) SetSnapshot(_ context.Context, key string, snap *entities.TableSnapshot, duration time.Duration) {
	cs.cache.Set(key, snap, duration)
}

func (cs *CacheService) GetSnapshot(_ context.Context, key string) (*entities.TableSnapshot, bool) {
	val, found := cs.cache.Get(key)
	if !found {
		return nil, false
	}
	snap, ok := val.(*entities.TableSnapshot)
	return snap, ok
}

func (cs *CacheService) Delete(_ context.Context, key string) {
	cs.cache.Delete(key)
}

func (cs *CacheService) Name() string {
	return "memory"
}

// Close closes the cache (no-op for in-memory cache)
func (cs *CacheService) Close() error {
	return nil
}
