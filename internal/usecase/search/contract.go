package search

import (
	"context"

	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	"github.com/kailas-cloud/coursedex/internal/domain/institution"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
	"github.com/kailas-cloud/coursedex/internal/domain/search/query"
)

// Executor runs compiled queries against the engine.
type Executor interface {
	Search(ctx context.Context, req query.Request) ([]domdoc.Document, error)
}

// ResultCache is a best-effort cache of search results.
type ResultCache interface {
	Key(c criteria.Criteria) string
	Lookup(ctx context.Context, c criteria.Criteria) ([]domdoc.Document, bool)
	Store(ctx context.Context, c criteria.Criteria, docs []domdoc.Document)
}

// RecordLister lists courses for the degraded scan. Records that failed to
// decode are returned separately.
type RecordLister interface {
	ListCourses(ctx context.Context) ([]domrec.Course, []error, error)
}

// DirectoryReader exposes the current institution directory.
type DirectoryReader interface {
	Current() *institution.Directory
}
