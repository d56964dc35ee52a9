// Package cache provides Redis-backed caching and coordination helpers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stockreturn/internal/core/tenant"
	"stockreturn/pkg/logger"
)

const (
	companyKeyPrefix = "stockreturn:company:"

	// missingMarker caches a not-found lookup so unknown tenant ids do not
	// hit the database on every request.
	missingMarker = "-"
)

// CompanyCacheConfig controls entry lifetimes.
type CompanyCacheConfig struct {
	TTL        time.Duration
	MissingTTL time.Duration
}

// DefaultCompanyCacheConfig returns the default lifetimes.
func DefaultCompanyCacheConfig() CompanyCacheConfig {
	return CompanyCacheConfig{TTL: 10 * time.Minute, MissingTTL: 30 * time.Second}
}

// CompanyCache is a read-through tenant.Registry. Redis failures degrade to
// direct lookups against the wrapped registry.
type CompanyCache struct {
	client *redis.Client
	source tenant.Registry
	cfg    CompanyCacheConfig
}

// NewCompanyCache wraps source with a Redis cache.
func NewCompanyCache(client *redis.Client, source tenant.Registry, cfg CompanyCacheConfig) *CompanyCache {
	def := DefaultCompanyCacheConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.MissingTTL <= 0 {
		cfg.MissingTTL = def.MissingTTL
	}
	return &CompanyCache{client: client, source: source, cfg: cfg}
}

func companyKey(companyID string) string {
	return companyKeyPrefix + companyID
}

// GetByID implements tenant.Registry.
func (c *CompanyCache) GetByID(ctx context.Context, companyID string) (*tenant.Tenant, error) {
	key := companyKey(companyID)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == missingMarker {
			return nil, tenant.ErrTenantNotFound
		}
		var t tenant.Tenant
		if jsonErr := json.Unmarshal(data, &t); jsonErr == nil {
			return &t, nil
		}
		logger.Warn(ctx, "dropping undecodable company cache entry", "company_id", companyID)
		c.client.Del(ctx, key)
	case errors.Is(err, redis.Nil):
	default:
		logger.Warn(ctx, "company cache unavailable", "company_id", companyID, "error", err)
		return c.source.GetByID(ctx, companyID)
	}

	t, err := c.source.GetByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			c.store(ctx, key, []byte(missingMarker), c.cfg.MissingTTL)
		}
		return nil, err
	}

	data, err = json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode company: %w", err)
	}
	c.store(ctx, key, data, c.cfg.TTL)
	return t, nil
}

func (c *CompanyCache) store(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.Warn(ctx, "company cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops the cached entry for a company.
func (c *CompanyCache) Invalidate(ctx context.Context, companyID string) error {
	if err := c.client.Del(ctx, companyKey(companyID)).Err(); err != nil {
		return fmt.Errorf("invalidate company %s: %w", companyID, err)
	}
	return nil
}

var _ tenant.Registry = (*CompanyCache)(nil)
