// Package rediscache repurposes the teacher's go-redis dependency as a
// short-lived memoization cache for the Notification Router's
// descendant-of-folder lookups (§4.6, §4.7) — sub-request-scoped speed
// matters there and GCS-backed durability doesn't, which is why this data
// lives in Redis rather than the Watch State Store.
package rediscache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DescendantCache memoizes file_id -> parent_id lookups made while
// walking up Drive's folder tree to decide whether a changed file
// descends from a tenant's root folder.
type DescendantCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New wraps an already-connected client. ttl bounds how long a parent
// lookup is trusted before being re-fetched from Drive.
func New(client *redis.Client, ttl time.Duration) *DescendantCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &DescendantCache{client: client, ttl: ttl}
}

func parentKey(fileID string) string {
	return fmt.Sprintf("drivesync:parent:%s", fileID)
}

// GetParent returns the cached parent id for fileID, or ("", false) on a
// cache miss.
func (c *DescendantCache) GetParent(ctx context.Context, fileID string) (string, bool) {
	val, err := c.client.Get(ctx, parentKey(fileID)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

// SetParent caches fileID's parent for the cache's configured TTL.
func (c *DescendantCache) SetParent(ctx context.Context, fileID, parentID string) {
	c.client.Set(ctx, parentKey(fileID), parentID, c.ttl)
}
