// Package app wires the coursedex components from configuration. It is the
// composition root shared by the server and the operator CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/config"
	"github.com/kailas-cloud/coursedex/internal/db"
	dbElastic "github.com/kailas-cloud/coursedex/internal/db/elastic"
	dbMemory "github.com/kailas-cloud/coursedex/internal/db/memory"
	dbRedis "github.com/kailas-cloud/coursedex/internal/db/redis"
	"github.com/kailas-cloud/coursedex/internal/domain/institution"
	"github.com/kailas-cloud/coursedex/internal/metrics"
	documentrepo "github.com/kailas-cloud/coursedex/internal/repository/document"
	recordrepo "github.com/kailas-cloud/coursedex/internal/repository/record"
	"github.com/kailas-cloud/coursedex/internal/repository/resultcache"
	cataloguc "github.com/kailas-cloud/coursedex/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/coursedex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/coursedex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/coursedex/internal/usecase/search"
)

// RecordStore is a record store driver.
type RecordStore interface {
	indexuc.RecordReader
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// App holds the wired services and the clients they share.
type App struct {
	// Degraded is set when the engine was unreachable at startup and
	// searches are served by the record store scan until it recovers.
	Degraded bool

	Engine      db.Engine
	Records     RecordStore
	Directories *institution.Registry
	Cache       *resultcache.Cache
	Indexer     *indexuc.Service
	Search      *searchuc.Service
	Catalog     *cataloguc.Service
	Health      *healthuc.Service

	cacheStore db.Cache
	logger     *zap.Logger
}

// Build connects to the engine, record store and cache and assembles the
// services. The cache is optional at runtime: an unreachable cache is logged
// and searches run uncached until it recovers.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	// Register search metrics explicitly (no init())
	metrics.RegisterSearchMetrics()

	es, err := dbElastic.NewStore(dbElastic.Config{
		Addresses: cfg.Engine.Addrs,
		Username:  cfg.Engine.Username,
		Password:  cfg.Engine.Password,
		APIKey:    cfg.Engine.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create engine client: %w", err)
	}
	readyErr := es.WaitForReady(ctx, time.Duration(cfg.Engine.ReadinessTimeout)*time.Second)
	degraded, err := startupMode(readyErr, cfg.Search.Fallback(), logger)
	if err != nil {
		return nil, err
	}
	engine := db.NewInstrumentedEngine(es, logger)
	if !degraded {
		logger.Info("Connected to search engine", zap.Strings("addrs", cfg.Engine.Addrs))
	}

	records, err := openRecords(ctx, cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to record store", zap.String("driver", cfg.Records.Driver))

	cacheStore, err := newCacheStore(cfg)
	if err != nil {
		_ = records.Close(context.Background())
		return nil, err
	}
	if cacheStore != nil {
		if err := cacheStore.Ping(ctx); err != nil {
			logger.Warn("Result cache unreachable, continuing uncached", zap.Error(err))
		}
	}

	a := &App{
		Degraded:    degraded,
		Engine:      engine,
		Records:     records,
		Directories: institution.NewRegistry(loadDirectory(ctx, records, logger)),
		cacheStore:  cacheStore,
		logger:      logger,
	}

	// Pass a nil interface, not a typed nil pointer, when caching is off.
	var kv db.KVStore
	if cacheStore != nil {
		kv = cacheStore
	}
	a.Cache = resultcache.New(kv, resultcache.Config{
		Prefix:  cfg.Cache.Prefix,
		TTL:     cfg.CacheTTL(),
		Timeout: cfg.CacheTimeout(),
	}, metrics.ResultCacheTotal, logger)

	docs := documentrepo.New(engine, cfg.Engine.Index, cfg.EngineTimeout()).
		WithSharding(cfg.Engine.Shards, cfg.Engine.Replicas)

	a.Indexer = indexuc.New(records, docs, a.Directories, logger).
		WithBatchSize(cfg.Index.BatchSize)
	a.Search = searchuc.New(docs, a.Cache, records, a.Directories).
		WithFallback(cfg.Search.Fallback())
	a.Catalog = cataloguc.New(records)

	var cachePinger healthuc.Pinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	a.Health = healthuc.New(engine, cachePinger, records)

	logger.Info("Services ready",
		zap.String("index", docs.Index()),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Duration("cache_ttl", a.Cache.TTL()),
		zap.Bool("fallback", cfg.Search.Fallback()),
		zap.Bool("degraded", degraded),
		zap.Int("universities", a.Directories.Current().Len()),
	)
	return a, nil
}

// startupMode decides whether an engine readiness failure is fatal. With the
// fallback scan enabled the service starts degraded instead.
func startupMode(readyErr error, fallback bool, logger *zap.Logger) (degraded bool, err error) {
	if readyErr == nil {
		return false, nil
	}
	if !fallback {
		return false, fmt.Errorf("engine not ready: %w", readyErr)
	}
	logger.Warn("Search engine not ready, starting degraded with fallback scan", zap.Error(readyErr))
	return true, nil
}

// Close releases the cache and record store clients.
func (a *App) Close(ctx context.Context) {
	if a.cacheStore != nil {
		a.cacheStore.Close()
	}
	if err := a.Records.Close(ctx); err != nil {
		a.logger.Warn("Failed to close record store", zap.Error(err))
	}
}

func openRecords(ctx context.Context, cfg *config.Config) (RecordStore, error) {
	switch cfg.Records.Driver {
	case config.RecordsDriverMongo:
		client, err := recordrepo.OpenMongo(ctx, cfg.Records.URI)
		if err != nil {
			return nil, fmt.Errorf("open record store: %w", err)
		}
		return recordrepo.NewMongo(client, cfg.Records.Database, cfg.RecordsTimeout()), nil
	case config.RecordsDriverPostgres:
		sqlDB, err := recordrepo.OpenPostgres(ctx, cfg.Records.DSN)
		if err != nil {
			return nil, fmt.Errorf("open record store: %w", err)
		}
		return recordrepo.NewPostgres(sqlDB, cfg.RecordsTimeout()), nil
	default:
		return nil, fmt.Errorf("unknown records driver %q", cfg.Records.Driver)
	}
}

// newCacheStore returns nil for the "none" driver.
func newCacheStore(cfg *config.Config) (db.Cache, error) {
	switch cfg.Cache.Driver {
	case config.CacheDriverRedis, config.CacheDriverValkey:
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			Timeout:  cfg.CacheTimeout(),
		})
		if err != nil {
			return nil, fmt.Errorf("create cache client: %w", err)
		}
		return s, nil
	case config.CacheDriverMemory:
		opts := []dbMemory.Option{dbMemory.WithMaxTTL(cfg.CacheTTL())}
		if cfg.Cache.MaxEntries > 0 {
			opts = append(opts, dbMemory.WithMaxEntries(cfg.Cache.MaxEntries))
		}
		return dbMemory.NewStore(opts...), nil
	case config.CacheDriverNone:
		return nil, nil
	default:
		return nil, errors.New("unknown cache driver " + cfg.Cache.Driver)
	}
}

// loadDirectory reads the university list once at startup so name selectors
// resolve before the first reindex. Failure leaves the directory empty.
func loadDirectory(ctx context.Context, records RecordStore, logger *zap.Logger) *institution.Directory {
	universities, invalid, err := records.ListUniversities(ctx)
	if err != nil {
		logger.Warn("Failed to preload institution directory", zap.Error(err))
		return institution.NewDirectory(nil)
	}
	for _, e := range invalid {
		logger.Warn("University record skipped", zap.Error(e))
	}
	return institution.NewDirectory(universities)
}
