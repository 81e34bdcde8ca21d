package chi

import (
	"context"

	dombatch "github.com/kailas-cloud/coursedex/internal/domain/batch"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
	healthuc "github.com/kailas-cloud/coursedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/coursedex/internal/usecase/search"
)

// Searcher answers course searches.
type Searcher interface {
	Search(ctx context.Context, c criteria.Criteria, limit int) (searchuc.Result, error)
}

// Indexer synchronizes the search index with the record store.
type Indexer interface {
	ReindexAll(ctx context.Context) (dombatch.Report, error)
	UpsertOne(ctx context.Context, id string) (dombatch.Report, error)
}

// Catalog reads course records from the record store.
type Catalog interface {
	List(ctx context.Context) ([]domrec.Course, error)
	Get(ctx context.Context, id string) (domrec.Course, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
