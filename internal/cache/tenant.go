// Package cache keeps tenant lookups of the authentication path in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/bilemo/catalog-server/internal/models"
)

// DefaultPrefix namespaces tenant keys.
const DefaultPrefix = "catalog:tenant:"

// TenantSource loads a tenant by id.
type TenantSource interface {
	GetTenant(ctx context.Context, id int64) (*models.Tenant, error)
}

// TenantCache is a read-through TenantSource backed by Redis. Redis failures
// are logged and the lookup falls through to the source.
type TenantCache struct {
	client redis.Cmdable
	source TenantSource
	prefix string
	ttl    time.Duration
}

// NewTenantCache wraps source with a Redis cache.
func NewTenantCache(client redis.Cmdable, source TenantSource, prefix string, ttl time.Duration) *TenantCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &TenantCache{
		client: client,
		source: source,
		prefix: prefix,
		ttl:    ttl,
	}
}

// NewClient opens a Redis client and checks it answers.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (c *TenantCache) key(id int64) string {
	return c.prefix + strconv.FormatInt(id, 10)
}

// GetTenant returns the cached tenant or loads and caches it.
func (c *TenantCache) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	raw, err := c.client.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var t models.Tenant
		if err := json.Unmarshal(raw, &t); err == nil {
			return &t, nil
		}
		log.Warn().Int64("tenant_id", id).Msg("Discarding undecodable cached tenant")
	case !errors.Is(err, redis.Nil):
		log.Warn().Err(err).Int64("tenant_id", id).Msg("Tenant cache read failed")
	}

	t, err := c.source.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(t); err == nil {
		if err := c.client.Set(ctx, c.key(id), raw, c.ttl).Err(); err != nil {
			log.Warn().Err(err).Int64("tenant_id", id).Msg("Tenant cache write failed")
		}
	}
	return t, nil
}

// Invalidate drops the cached copy of a tenant.
func (c *TenantCache) Invalidate(ctx context.Context, id int64) error {
	return c.client.Del(ctx, c.key(id)).Err()
}
