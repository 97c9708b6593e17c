package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ProductLoader fetches the authoritative product row on a cache miss.
type ProductLoader func(ctx context.Context, id uint) (*model.Product, error)

// ProductCache is a cache-aside view of products for display endpoints.
// Stock decisions never read from it; the coordinator invalidates entries
// after every committed invoice.
type ProductCache struct {
	rdb   *redis.Client
	load  ProductLoader
	ttl   time.Duration
	group singleflight.Group
}

func NewProductCache(rdb *redis.Client, load ProductLoader, ttl time.Duration) *ProductCache {
	return &ProductCache{rdb: rdb, load: load, ttl: ttl}
}

func productCacheKey(id uint) string { return fmt.Sprintf("product:%d", id) }

func (c *ProductCache) Get(ctx context.Context, id uint) (*model.Product, error) {
	if c.rdb == nil {
		return c.load(ctx, id)
	}
	key := productCacheKey(id)
	if p, ok := c.lookup(ctx, key); ok {
		return p, nil
	}

	// Concurrent misses for the same product share one database read.
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		p, err := c.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if b, jsonErr := json.Marshal(p); jsonErr == nil {
			if setErr := c.rdb.Set(ctx, key, b, c.ttl).Err(); setErr != nil {
				log.Warn().Err(setErr).Str("key", key).Msg("product cache: set failed")
			}
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Product), nil
}

func (c *ProductCache) lookup(ctx context.Context, key string) (*model.Product, bool) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Str("key", key).Msg("product cache: get failed")
		}
		return nil, false
	}
	var p model.Product
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, false
	}
	return &p, true
}

// Invalidate drops the cached entries for ids. Safe on a nil cache.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...uint) {
	if c == nil || c.rdb == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("product cache: invalidate failed")
	}
}
