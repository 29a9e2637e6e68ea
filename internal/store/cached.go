package store

import (
	"context"
	"sync"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"go.uber.org/zap"
)

// Snapshot cache keys.
const (
	KeyProducts   = "storefront:products"
	KeyCategories = "storefront:categories"
	KeyOrders     = "storefront:orders"
	KeyUsers      = "storefront:users"
)

// CachedStore serves whole-collection reads from a Cache and invalidates the
// affected snapshot after every write. Cache failures fall back to the
// underlying repository.
//
// Each key carries a version bumped by Invalidate. A snapshot loaded on a
// miss is only stored if its key was not invalidated while it was loading.
type CachedStore struct {
	Repository
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger

	// fillMu serialises version checks with cache fills and deletes
	fillMu   sync.Mutex
	versions map[string]uint64
}

// NewCachedStore wraps repo with a read-through snapshot cache
func NewCachedStore(repo Repository, cache Cache, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Repository: repo,
		cache:      cache,
		ttl:        ttl,
		logger:     util.GetLogger(),
		versions:   make(map[string]uint64),
	}
}

func (s *CachedStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	return readThrough(ctx, s, KeyProducts, s.Repository.ListProducts)
}

func (s *CachedStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	return readThrough(ctx, s, KeyCategories, s.Repository.ListCategories)
}

func (s *CachedStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	return readThrough(ctx, s, KeyOrders, s.Repository.ListOrders)
}

func (s *CachedStore) ListUsers(ctx context.Context) ([]models.User, error) {
	return readThrough(ctx, s, KeyUsers, s.Repository.ListUsers)
}

func (s *CachedStore) CreateProduct(ctx context.Context, product *models.Product) error {
	if err := s.Repository.CreateProduct(ctx, product); err != nil {
		return err
	}
	s.Invalidate(ctx, KeyProducts)
	return nil
}

func (s *CachedStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := s.Repository.UpdateProduct(ctx, product); err != nil {
		return err
	}
	s.Invalidate(ctx, KeyProducts)
	return nil
}

func (s *CachedStore) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.Repository.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.Invalidate(ctx, KeyProducts)
	return nil
}

func (s *CachedStore) UpdateOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) (*models.Order, error) {
	order, err := s.Repository.UpdateOrderStatus(ctx, orderID, status)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, KeyOrders)
	return order, nil
}

// Invalidate drops cached snapshots. Errors are logged only.
func (s *CachedStore) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}

	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	for _, k := range keys {
		s.versions[k]++
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("Failed to invalidate cache", zap.Strings("keys", keys), zap.Error(err))
		return
	}
	util.CacheInvalidationsTotal.Add(float64(len(keys)))
}

func readThrough[T any](ctx context.Context, s *CachedStore, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	var cached []T
	hit, err := s.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Cache read failed, falling back to repository", zap.String("key", key), zap.Error(err))
	} else if hit {
		util.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return cached, nil
	}
	util.CacheLookupsTotal.WithLabelValues("miss").Inc()

	version := s.version(key)
	fresh, err := load(ctx)
	if err != nil {
		return nil, err
	}

	s.fill(ctx, key, version, fresh)
	return fresh, nil
}

func (s *CachedStore) version(key string) uint64 {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	return s.versions[key]
}

// fill stores value under key unless key was invalidated after version was read
func (s *CachedStore) fill(ctx context.Context, key string, version uint64, value interface{}) {
	s.fillMu.Lock()
	defer s.fillMu.Unlock()
	if s.versions[key] != version {
		s.logger.Debug("Snapshot invalidated while loading, not caching", zap.String("key", key))
		return
	}
	if err := s.cache.SetJSON(ctx, key, value, s.ttl); err != nil {
		s.logger.Warn("Failed to populate cache", zap.String("key", key), zap.Error(err))
	}
}
