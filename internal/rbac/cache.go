package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const permissionCachePrefix = "rbac:perms:"

// cachedGrants is the value stored per user.
type cachedGrants struct {
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
}

// PermissionCache keeps effective permission names in Redis.
type PermissionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPermissionCache instantiates the cache helper. A nil client disables caching.
func NewPermissionCache(client *redis.Client, ttl time.Duration) *PermissionCache {
	return &PermissionCache{client: client, ttl: ttl}
}

func cacheKey(id UserID) string {
	return permissionCachePrefix + strconv.FormatInt(int64(id), 10)
}

// Get returns the cached grants. ok is false on a miss.
func (c *PermissionCache) Get(ctx context.Context, id UserID) (cachedGrants, bool, error) {
	if c == nil || c.client == nil {
		return cachedGrants{}, false, nil
	}
	raw, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cachedGrants{}, false, nil
	}
	if err != nil {
		return cachedGrants{}, false, err
	}
	var grants cachedGrants
	if err := json.Unmarshal(raw, &grants); err != nil {
		// Corrupt entries are treated as a miss and overwritten on the next load.
		return cachedGrants{}, false, nil
	}
	return grants, true, nil
}

// Set stores grants for the configured TTL.
func (c *PermissionCache) Set(ctx context.Context, id UserID, grants cachedGrants) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(grants)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(id), raw, c.ttl).Err()
}

// Invalidate drops the cached grants of a user.
func (c *PermissionCache) Invalidate(ctx context.Context, id UserID) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey(id)).Err()
}
