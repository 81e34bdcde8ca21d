package coursedex

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/app"
	dombatch "github.com/kailas-cloud/coursedex/internal/domain/batch"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
	searchuc "github.com/kailas-cloud/coursedex/internal/usecase/search"
)

// searchUseCase is the internal interface for search.
type searchUseCase interface {
	Search(ctx context.Context, c criteria.Criteria, limit int) (searchuc.Result, error)
}

// indexUseCase is the internal interface for indexing.
type indexUseCase interface {
	ReindexAll(ctx context.Context) (dombatch.Report, error)
	UpsertOne(ctx context.Context, id string) (dombatch.Report, error)
}

// catalogUseCase is the internal interface for record store reads.
type catalogUseCase interface {
	List(ctx context.Context) ([]domrec.Course, error)
	Get(ctx context.Context, id string) (domrec.Course, error)
}

// closer releases connections held by the client.
type closer interface {
	Close(ctx context.Context)
}

// Client is the coursedex SDK entry point.
type Client struct {
	conn       closer
	searchSvc  searchUseCase
	indexSvc   indexUseCase
	catalogSvc catalogUseCase
	healthSvc  healthUseCase
	obs        *observer
}

// New connects to the configured backends and returns a ready client.
// An engine address and a record store are required; the result cache is
// optional.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.esAddrs) == 0 {
		return nil, errors.New("coursedex: engine address required (use WithElasticsearch)")
	}
	if cfg.recordsDriver == "" {
		return nil, errors.New("coursedex: record store required (use WithMongo or WithPostgres)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	svcCfg := cfg.serviceConfig()
	a, err := app.Build(ctx, &svcCfg, zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("coursedex: %w", err)
	}

	return &Client{
		conn:       a,
		searchSvc:  a.Search,
		indexSvc:   a.Indexer,
		catalogSvc: a.Catalog,
		healthSvc:  a.Health,
		obs:        obs,
	}, nil
}

// Close releases the record store and cache connections.
func (c *Client) Close(ctx context.Context) {
	if c.conn != nil {
		c.conn.Close(ctx)
	}
}
