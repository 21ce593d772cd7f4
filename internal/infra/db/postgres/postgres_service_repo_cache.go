package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"smm-reseller/internal/domain/model"
	"smm-reseller/internal/domain/ports/repository"
	"smm-reseller/internal/infra/metrics"
	red "smm-reseller/internal/infra/redis"
)

var _ repository.ServiceRepository = (*serviceRepoCacheDecorator)(nil)

// serviceRepoCacheDecorator caches catalog reads in Redis. The catalog
// is read on every redemption and changes only on admin sync, so hits
// dominate. All writes invalidate.
type serviceRepoCacheDecorator struct {
	inner repository.ServiceRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewServiceRepoCacheDecorator(inner repository.ServiceRepository, cache red.RedisClient, ttl time.Duration) repository.ServiceRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &serviceRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func (d *serviceRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Service, error) {
	key := fmt.Sprintf("service:%s", id)
	if val, err := d.cache.Get(ctx, key); err == nil {
		var s model.Service
		if json.Unmarshal([]byte(val), &s) == nil {
			metrics.IncCacheRequest("service", "hit")
			return &s, nil
		}
	}

	metrics.IncCacheRequest("service", "miss")
	s, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(s); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return s, nil
}

func (d *serviceRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Service, error) {
	const key = "services:all"
	if val, err := d.cache.Get(ctx, key); err == nil {
		var out []*model.Service
		if json.Unmarshal([]byte(val), &out) == nil {
			metrics.IncCacheRequest("service_list", "hit")
			return out, nil
		}
	}

	metrics.IncCacheRequest("service_list", "miss")
	out, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(out); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return out, nil
}

// ListByProvider is an admin-only path; not worth caching.
func (d *serviceRepoCacheDecorator) ListByProvider(ctx context.Context, tx repository.Tx, providerID string) ([]*model.Service, error) {
	return d.inner.ListByProvider(ctx, tx, providerID)
}

func (d *serviceRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, s *model.Service) error {
	d.invalidate(ctx, s.ID)
	return d.inner.Save(ctx, tx, s)
}

func (d *serviceRepoCacheDecorator) UpsertBatch(ctx context.Context, tx repository.Tx, services []*model.Service) (repository.UpsertResult, error) {
	for _, s := range services {
		if s.ID != "" {
			_ = d.cache.Del(ctx, fmt.Sprintf("service:%s", s.ID))
		}
	}
	_ = d.cache.Del(ctx, "services:all")
	return d.inner.UpsertBatch(ctx, tx, services)
}

func (d *serviceRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id string) error {
	d.invalidate(ctx, id)
	return d.inner.Delete(ctx, tx, id)
}

func (d *serviceRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	if id != "" {
		_ = d.cache.Del(ctx, fmt.Sprintf("service:%s", id))
	}
	_ = d.cache.Del(ctx, "services:all")
}
