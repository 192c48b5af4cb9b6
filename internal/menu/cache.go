package menu

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	nodesCacheKey  = "menu:nodes"
	grantsCacheKey = "menu:module_grants"
)

// Cache keeps the static menu configuration in Redis so projection does not
// re-read it per request. Resolved permission sets are never cached.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// FetchNodes loads the cached node list or populates it using the loader.
func (c *Cache) FetchNodes(ctx context.Context, loader func(context.Context) ([]Node, error)) ([]Node, error) {
	var nodes []Node
	if err := fetchJSON(ctx, c, nodesCacheKey, &nodes, loader); err != nil {
		return nil, err
	}
	return nodes, nil
}

// FetchModuleGrants loads the cached module grant list or populates it.
func (c *Cache) FetchModuleGrants(ctx context.Context, loader func(context.Context) ([]ModuleGrant, error)) ([]ModuleGrant, error) {
	var grants []ModuleGrant
	if err := fetchJSON(ctx, c, grantsCacheKey, &grants, loader); err != nil {
		return nil, err
	}
	return grants, nil
}

// Invalidate drops both cached entries, for use after reseeding menu data.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, nodesCacheKey, grantsCacheKey).Err()
}

func fetchJSON[T any](ctx context.Context, c *Cache, key string, dest *[]T, loader func(context.Context) ([]T, error)) error {
	if c == nil || c.client == nil {
		loaded, err := loader(ctx)
		if err != nil {
			return err
		}
		*dest = loaded
		return nil
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(raw, dest)
	}
	if err != redis.Nil {
		return err
	}

	loaded, err := loader(ctx)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(loaded)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		return err
	}
	*dest = loaded
	return nil
}
