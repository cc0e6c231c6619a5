package ghsource

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
)

// CacheVersion is bumped whenever the cached payload layout changes.
const CacheVersion = 1

// KeyedSource is a RecordSource that can name what it reads.
type KeyedSource interface {
	contract.RecordSource
	Key() string
}

// CachedSource serves record sets from a CacheStore and falls back to the
// wrapped source on a miss, a stale entry or a version mismatch.
type CachedSource struct {
	source KeyedSource
	store  contract.CacheStore
	now    func() time.Time
}

var _ contract.RecordSource = &CachedSource{}

// NewCachedSource wraps source with store. A nil store disables caching.
func NewCachedSource(source KeyedSource, store contract.CacheStore) *CachedSource {
	return &CachedSource{source: source, store: store, now: time.Now}
}

// FetchRecords implements contract.RecordSource.
func (c *CachedSource) FetchRecords(ctx context.Context, window schema.Window) (schema.RecordSet, error) {
	if c.store == nil {
		return c.source.FetchRecords(ctx, window)
	}
	key := c.cacheKey(window)
	now := c.now()

	if data, version, ts, err := c.store.Get(key); err == nil {
		if version == CacheVersion && now.Sub(time.Unix(ts, 0)) < ttl(window, now) {
			var records schema.RecordSet
			decodeErr := json.Unmarshal(data, &records)
			if decodeErr == nil {
				contract.Logger().Debug().Str("key", key).Msg("Record cache hit")
				return records, nil
			}
			contract.LogWarn("Discarding unreadable record cache entry", decodeErr)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		contract.LogWarn("Record cache lookup failed", err)
	}

	records, err := c.source.FetchRecords(ctx, window)
	if err != nil {
		return records, err
	}
	if data, err := json.Marshal(records); err != nil {
		contract.LogWarn("Failed to encode records for cache", err)
	} else if err := c.store.Set(key, data, CacheVersion, now.Unix()); err != nil {
		contract.LogWarn("Failed to cache records", err)
	}
	return records, nil
}

func (c *CachedSource) cacheKey(window schema.Window) string {
	if window.IsZero() {
		return "github:" + c.source.Key() + ":all"
	}
	return "github:" + c.source.Key() + ":" + schema.FormatTimestamp(window.Start) + ":" + schema.FormatTimestamp(window.End)
}

// ttl keeps historical windows for a day and recent ones for an hour.
func ttl(window schema.Window, now time.Time) time.Duration {
	if !window.IsZero() && now.Sub(window.End) > 7*24*time.Hour {
		return 24 * time.Hour
	}
	return time.Hour
}
