// Package resultcache stores search results keyed by normalized criteria.
package resultcache

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/db"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
)

// Defaults applied when Config leaves a value at zero.
const (
	DefaultTTL     = time.Hour
	DefaultTimeout = 200 * time.Millisecond
)

const keyNamespace = "courses:"

// store is the consumer interface for the cache backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Config tunes the cache.
type Config struct {
	Prefix  string
	TTL     time.Duration
	Timeout time.Duration
}

// Cache is a best-effort result cache. Backend failures degrade to misses
// and are never returned to callers.
type Cache struct {
	store      store
	prefix     string
	ttl        time.Duration
	timeout    time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache. A nil store disables caching.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(s store, cfg Config, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Cache{
		store:      s,
		prefix:     cfg.Prefix,
		ttl:        cfg.TTL,
		timeout:    cfg.Timeout,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Enabled reports whether a backend is configured.
func (c *Cache) Enabled() bool { return c != nil && c.store != nil }

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Key derives the cache key for criteria. Equal criteria give equal keys and
// distinct criteria give distinct keys.
func (c *Cache) Key(cr criteria.Criteria) string {
	return c.prefix + Key(cr)
}

// Key derives the un-prefixed cache key:
// courses:{keyword}-{institution}-{level}-{priceMin}-{priceMax}.
func Key(cr criteria.Criteria) string {
	parts := []string{
		cr.Keyword(),
		cr.Institution(),
		cr.Level(),
		criteria.FormatPrice(cr.PriceMin()),
		criteria.FormatPrice(cr.PriceMax()),
	}
	for i, p := range parts {
		parts[i] = escapePart(p)
	}
	return keyNamespace + strings.Join(parts, "-")
}

// escapePart query-escapes a key part so it can never contain the separator.
func escapePart(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "-", "%2D")
}

// Lookup returns cached documents. Absent, expired, undecodable entries and
// backend errors all report a miss.
func (c *Cache) Lookup(ctx context.Context, cr criteria.Criteria) ([]domdoc.Document, bool) {
	if !c.Enabled() {
		return nil, false
	}
	key := c.Key(cr)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.inc("miss")
			return nil, false
		}
		c.inc("error")
		c.logger.Warn("Failed to read cached results", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var docs []domdoc.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		c.inc("error")
		c.logger.Warn("Failed to decode cached results", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if docs == nil {
		docs = []domdoc.Document{}
	}

	c.inc("hit")
	return docs, true
}

// Store writes docs under the criteria key with the configured TTL,
// replacing any previous entry. Failures are logged and dropped.
func (c *Cache) Store(ctx context.Context, cr criteria.Criteria, docs []domdoc.Document) {
	if !c.Enabled() {
		return
	}
	key := c.Key(cr)

	if docs == nil {
		docs = []domdoc.Document{}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Warn("Failed to encode results for cache", zap.String("key", key), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache results", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
