package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Hettieboo/AuctionDimensionProcessor/internal/infrastructure/monitoring/logging"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/errors"
	"github.com/Hettieboo/AuctionDimensionProcessor/pkg/types/lot"
)

// ResultCache caches processing results keyed by a digest of the description
// text.  Identical descriptions across catalogs resolve to the same entry;
// the stored LotID is irrelevant because callers re-attach their own.
type ResultCache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
}

// NewResultCache builds a cache with the given key prefix and TTL.  Zero
// values fall back to "lotproc" and 24h.
func NewResultCache(client *Client, log logging.Logger, prefix string, ttl time.Duration) *ResultCache {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if prefix == "" {
		prefix = "lotproc"
	}
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &ResultCache{client: client, logger: log.Named("result_cache"), prefix: prefix, defaultTTL: ttl}
}

// Key derives the cache key for a description text.  The digest keeps keys
// bounded regardless of description length.
func (c *ResultCache) Key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.prefix + ":result:" + hex.EncodeToString(sum[:])
}

// Get returns the cached result for text, reporting a miss without error.
func (c *ResultCache) Get(ctx context.Context, text string) (*lot.LotResult, bool, error) {
	data, err := c.client.Raw().Get(ctx, c.Key(text)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.CodeCacheError, "cache lookup failed")
	}

	var res lot.LotResult
	if err := json.Unmarshal(data, &res); err != nil {
		// A corrupt entry behaves like a miss; the pipeline recomputes and
		// overwrites it.
		c.logger.Warn("discarding undecodable cache entry", logging.Err(err))
		return nil, false, nil
	}
	return &res, true, nil
}

// Set stores res under the digest of text with a jittered TTL so entries
// written by the same batch do not all expire at once.
func (c *ResultCache) Set(ctx context.Context, text string, res lot.LotResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encoding cache entry")
	}
	if err := c.client.Raw().Set(ctx, c.Key(text), data, jitterTTL(c.defaultTTL)).Err(); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "cache store failed")
	}
	return nil
}

// Invalidate drops the entry for text.
func (c *ResultCache) Invalidate(ctx context.Context, text string) error {
	if err := c.client.Raw().Del(ctx, c.Key(text)).Err(); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "cache invalidation failed")
	}
	return nil
}

// jitterTTL spreads expiry by +/-10%.
func jitterTTL(ttl time.Duration) time.Duration {
	if ttl == 0 {
		return 0
	}
	jitter := float64(ttl) * 0.1 * (rand.Float64()*2 - 1)
	return ttl + time.Duration(jitter)
}
