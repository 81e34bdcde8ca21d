package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/coursedex/internal/domain"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
	"github.com/kailas-cloud/coursedex/internal/domain/search/query"
	"github.com/kailas-cloud/coursedex/internal/logger"
	"github.com/kailas-cloud/coursedex/internal/metrics"
)

// Result is the outcome of a search.
type Result struct {
	Documents []domdoc.Document
	FromCache bool
	// Degraded marks results produced by scanning the record store because
	// the engine was unavailable.
	Degraded bool
}

// Service answers course searches: cache first, then the engine, then an
// optional scan of the record store.
type Service struct {
	exec     Executor
	cache    ResultCache
	records  RecordLister
	dirs     DirectoryReader
	fallback bool
	group    singleflight.Group
}

// New creates a search service. records may be nil when fallback is disabled.
func New(exec Executor, cache ResultCache, records RecordLister, dirs DirectoryReader) *Service {
	return &Service{
		exec:     exec,
		cache:    cache,
		records:  records,
		dirs:     dirs,
		fallback: records != nil,
	}
}

// WithFallback toggles the record-store scan on engine failure.
func (s *Service) WithFallback(enabled bool) *Service {
	s.fallback = enabled && s.records != nil
	return s
}

// Search returns at most limit documents matching c (limit <= 0 selects the
// default). Zero matches is a successful, empty result.
func (s *Service) Search(ctx context.Context, c criteria.Criteria, limit int) (Result, error) {
	c = s.resolveInstitution(ctx, c)
	size := query.ClampSize(limit)

	if docs, ok := s.cache.Lookup(ctx, c); ok {
		return Result{Documents: truncate(docs, size), FromCache: true}, nil
	}

	// Identical concurrent misses share one engine call. The shared call is
	// detached from any single caller's cancellation; the executor bounds it.
	v, err, _ := s.group.Do(s.cache.Key(c), func() (any, error) {
		return s.execute(context.WithoutCancel(ctx), c)
	})
	if err != nil {
		return Result{}, err
	}

	res := v.(Result)
	res.Documents = truncate(res.Documents, size)
	return res, nil
}

// execute runs the full-size query so cached entries serve any limit.
func (s *Service) execute(ctx context.Context, c criteria.Criteria) (Result, error) {
	docs, err := s.exec.Search(ctx, query.Compile(c, query.MaxSize))
	if err == nil {
		s.cache.Store(ctx, c, docs)
		return Result{Documents: docs}, nil
	}

	if !s.fallback {
		return Result{}, err
	}

	log := logger.FromContext(ctx)
	log.Warn("Engine search failed, scanning record store", zap.Stringer("criteria", c), zap.Error(err))

	docs, ferr := s.scan(ctx, c)
	if ferr != nil {
		metrics.FallbackSearchesTotal.WithLabelValues("error").Inc()
		log.Error("Fallback search failed", zap.Error(ferr))
		return Result{}, fmt.Errorf("%w: engine: %v; fallback: %v", domain.ErrSearchUnavailable, err, ferr)
	}
	metrics.FallbackSearchesTotal.WithLabelValues("ok").Inc()
	return Result{Documents: docs, Degraded: true}, nil
}

// scan maps every course and keeps those matching c, in record order.
// Records that do not decode or map are ignored.
func (s *Service) scan(ctx context.Context, c criteria.Criteria) ([]domdoc.Document, error) {
	courses, invalid, err := s.records.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if len(invalid) > 0 {
		logger.FromContext(ctx).Debug("Fallback scan ignored undecodable records", zap.Int("count", len(invalid)))
	}

	all, _ := domdoc.MapAll(courses, s.dirs.Current())
	out := make([]domdoc.Document, 0, min(len(all), query.MaxSize))
	for i := range all {
		if len(out) == query.MaxSize {
			break
		}
		if c.Matches(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

// resolveInstitution rewrites a name or code selector to the canonical code.
// Unknown selectors drop the constraint. Before any directory is loaded the
// selector is passed through as a code.
func (s *Service) resolveInstitution(ctx context.Context, c criteria.Criteria) criteria.Criteria {
	sel := c.Institution()
	if sel == "" {
		return c
	}
	dir := s.dirs.Current()
	if dir.Len() == 0 {
		return c
	}
	code, ok := dir.Resolve(sel)
	if !ok {
		logger.FromContext(ctx).Warn("Unknown institution selector, ignoring", zap.String("institution", sel))
		return c.WithInstitution("")
	}
	return c.WithInstitution(code)
}

func truncate(docs []domdoc.Document, n int) []domdoc.Document {
	if docs == nil {
		return []domdoc.Document{}
	}
	if len(docs) > n {
		return docs[:n]
	}
	return docs
}
