package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gatepass/internal/domain/model"
	"gatepass/internal/domain/ports/repository"
	"gatepass/internal/infra/metrics"
	red "gatepass/internal/infra/redis"
)

var _ repository.PassRepository = (*passRepoCacheDecorator)(nil)

// passRepoCacheDecorator caches FindByCode lookups. Caching here is safe
// because the cached read is never authoritative for used-state: every grant
// is confirmed by the inner repo's conditional TryConsume, which also
// invalidates the entry. A stale "unused" entry can at worst cost one extra
// TryConsume round trip that loses and denies.
type passRepoCacheDecorator struct {
	inner repository.PassRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPassRepoCacheDecorator(inner repository.PassRepository, cache red.RedisClient, ttl time.Duration) repository.PassRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &passRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func passKey(code string) string {
	return fmt.Sprintf("pass:%s", code)
}

func (d *passRepoCacheDecorator) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Pass, error) {
	code = model.NormalizeCode(code)
	val, err := d.cache.Get(ctx, passKey(code))
	if err == nil {
		metrics.IncCacheRequest("pass", "hit")
		var pass model.Pass
		if json.Unmarshal([]byte(val), &pass) == nil {
			return &pass, nil
		}
	} else if err != redis.Nil {
		// Redis down degrades to the inner repo, never to an error.
		metrics.IncCacheRequest("pass", "error")
	} else {
		metrics.IncCacheRequest("pass", "miss")
	}

	pass, err := d.inner.FindByCode(ctx, tx, code)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(pass); err == nil {
		_ = d.cache.Set(ctx, passKey(code), bytes, d.ttl)
	}
	return pass, nil
}

func (d *passRepoCacheDecorator) Create(ctx context.Context, tx repository.Tx, pass *model.Pass) error {
	if err := d.inner.Create(ctx, tx, pass); err != nil {
		return err
	}
	if bytes, err := json.Marshal(pass); err == nil {
		_ = d.cache.Set(ctx, passKey(pass.Code), bytes, d.ttl)
	}
	return nil
}

// TryConsume always delegates; the cache entry is dropped afterwards so the
// next lookup observes the terminal state from the store.
func (d *passRepoCacheDecorator) TryConsume(ctx context.Context, tx repository.Tx, code string, redeemedAt time.Time, scannerID *string) error {
	code = model.NormalizeCode(code)
	err := d.inner.TryConsume(ctx, tx, code, redeemedAt, scannerID)
	_ = d.cache.Del(ctx, passKey(code))
	return err
}

func (d *passRepoCacheDecorator) PurgeExpiredBefore(ctx context.Context, tx repository.Tx, cutoff time.Time) (int64, error) {
	// Purged entries age out of the cache by TTL; a purge races nothing
	// because purged passes were expired and deny regardless.
	return d.inner.PurgeExpiredBefore(ctx, tx, cutoff)
}
