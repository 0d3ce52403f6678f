package campaigns

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"estateleads_backend/internal/leads/ports"
	"estateleads_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "campaign:"

// cachedSnapshot is the stored cache value. Known misses are cached too so a
// burst of leads against a deleted campaign does not hammer the database.
type cachedSnapshot struct {
	Found    bool                   `json:"found"`
	Snapshot ports.CampaignSnapshot `json:"snapshot"`
}

// CachedDirectory wraps a CampaignDirectory with a Redis read-through cache.
// Cache failures degrade to the inner directory, never to an error.
type CachedDirectory struct {
	inner ports.CampaignDirectory
	rdb   *redis.Client
	ttl   time.Duration
	log   *logger.Logger
}

func NewCachedDirectory(inner ports.CampaignDirectory, rdb *redis.Client, ttl time.Duration, log *logger.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedDirectory{inner: inner, rdb: rdb, ttl: ttl, log: log}
}

func (c *CachedDirectory) Get(ctx context.Context, id uuid.UUID) (ports.CampaignSnapshot, bool, error) {
	key := cacheKeyPrefix + id.String()

	if raw, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached cachedSnapshot
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached.Snapshot, cached.Found, nil
		}
		c.log.Warn("discarding malformed campaign cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("campaign cache read failed", "key", key, "error", err)
	}

	snap, found, err := c.inner.Get(ctx, id)
	if err != nil {
		return ports.CampaignSnapshot{}, false, err
	}

	if raw, err := json.Marshal(cachedSnapshot{Found: found, Snapshot: snap}); err == nil {
		if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.log.Warn("campaign cache write failed", "key", key, "error", err)
		}
	}

	return snap, found, nil
}

var _ ports.CampaignDirectory = (*CachedDirectory)(nil)
