package coursedex

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/coursedex/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	esAddrs    []string
	esUser     string
	esPassword string
	esAPIKey   string
	index      string

	cacheDriver     string // "redis", "valkey", "memory"; empty disables the cache
	cacheAddrs      []string
	cachePassword   string
	cacheTTL        time.Duration
	cacheMaxEntries int

	recordsDriver string
	mongoURI      string
	mongoDatabase string
	postgresDSN   string

	fallback  *bool
	batchSize int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithElasticsearch sets the search engine addresses.
func WithElasticsearch(addrs ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esAddrs = addrs
	})
}

// WithBasicAuth sets search engine basic auth credentials.
func WithBasicAuth(username, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esUser = username
		c.esPassword = password
	})
}

// WithAPIKey sets a search engine API key. Takes precedence over basic auth.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.esAPIKey = key
	})
}

// WithIndex overrides the index name. Defaults to "courses".
func WithIndex(name string) Option {
	return optionFunc(func(c *clientConfig) {
		c.index = name
	})
}

// WithRedis caches search results in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = config.CacheDriverRedis
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithValkey caches search results in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = config.CacheDriverValkey
		c.cacheAddrs = []string{addr}
		c.cachePassword = password
	})
}

// WithMemoryCache caches search results in process. maxEntries <= 0 means
// unbounded.
func WithMemoryCache(maxEntries int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheDriver = config.CacheDriverMemory
		c.cacheAddrs = nil
		c.cacheMaxEntries = maxEntries
	})
}

// WithCacheTTL sets how long cached results are served. Defaults to one hour.
// Sub-second values are rounded up to one second.
func WithCacheTTL(ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheTTL = ttl
	})
}

// WithMongo reads course records from MongoDB.
func WithMongo(uri, database string) Option {
	return optionFunc(func(c *clientConfig) {
		c.recordsDriver = config.RecordsDriverMongo
		c.mongoURI = uri
		c.mongoDatabase = database
	})
}

// WithPostgres reads course records from Postgres.
func WithPostgres(dsn string) Option {
	return optionFunc(func(c *clientConfig) {
		c.recordsDriver = config.RecordsDriverPostgres
		c.postgresDSN = dsn
	})
}

// WithFallback enables or disables scanning the record store when the engine
// is unreachable. Enabled by default.
func WithFallback(enabled bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.fallback = &enabled
	})
}

// WithBatchSize sets how many documents a reindex sends per bulk request.
func WithBatchSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.batchSize = n
	})
}

// WithLogger sets a structured logger for SDK operations.
// By default, the SDK does not log.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics with the given registerer.
// By default, no metrics are collected.
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// serviceConfig translates options into the service configuration.
func (c *clientConfig) serviceConfig() config.Config {
	cfg := config.Config{
		Engine: config.EngineConfig{
			Addrs:    c.esAddrs,
			Username: c.esUser,
			Password: c.esPassword,
			APIKey:   c.esAPIKey,
			Index:    c.index,
		},
		Cache: config.CacheConfig{
			Driver:     c.cacheDriver,
			Addrs:      c.cacheAddrs,
			Password:   c.cachePassword,
			MaxEntries: c.cacheMaxEntries,
		},
		Records: config.RecordsConfig{
			Driver:   c.recordsDriver,
			URI:      c.mongoURI,
			DSN:      c.postgresDSN,
			Database: c.mongoDatabase,
		},
		Search: config.SearchConfig{FallbackEnabled: c.fallback},
		Index:  config.IndexConfig{BatchSize: c.batchSize},
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = config.CacheDriverNone
	}
	if c.cacheTTL > 0 {
		cfg.Cache.TTLSec = int((c.cacheTTL + time.Second - 1) / time.Second)
	}
	cfg.ApplyDefaults()
	return cfg
}
