package coursedex

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	dombatch "github.com/kailas-cloud/coursedex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
	healthuc "github.com/kailas-cloud/coursedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/coursedex/internal/usecase/search"
)

// --- Search ---

func TestClient_Search(t *testing.T) {
	var got criteria.Criteria
	var gotLimit int
	mock := &mockSearchUC{
		searchFn: func(_ context.Context, c criteria.Criteria, limit int) (searchuc.Result, error) {
			got, gotLimit = c, limit
			return searchuc.Result{
				Documents: []domdoc.Document{{UniqueID: "ds", Name: "Data Science MSc"}},
				FromCache: true,
			}, nil
		},
	}

	c := &Client{searchSvc: mock}
	res, err := c.Courses().
		Keyword("  Data ").
		University("MIT").
		Level("all").
		MaxTuition(50000).
		Limit(5).
		Do(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Courses) != 1 || res.Courses[0].UniqueID != "ds" {
		t.Errorf("courses = %+v", res.Courses)
	}
	if !res.FromCache || res.Degraded {
		t.Errorf("flags = (%v, %v), want (true, false)", res.FromCache, res.Degraded)
	}
	if got.Keyword() != "data" || got.Institution() != "MIT" || got.Level() != "" {
		t.Errorf("criteria = %s", got)
	}
	if got.PriceMin() != nil || got.PriceMax() == nil || *got.PriceMax() != 50000 {
		t.Errorf("price bounds = %s", got)
	}
	if gotLimit != 5 {
		t.Errorf("limit = %d, want 5", gotLimit)
	}
}

func TestClient_Search_InvalidCriteria(t *testing.T) {
	mock := &mockSearchUC{
		searchFn: func(context.Context, criteria.Criteria, int) (searchuc.Result, error) {
			t.Fatal("search must not run for invalid criteria")
			return searchuc.Result{}, nil
		},
	}

	c := &Client{searchSvc: mock}
	_, err := c.Courses().Tuition(500, 100).Do(context.Background())
	if !errors.Is(err, ErrInvalidCriteria) {
		t.Fatalf("expected ErrInvalidCriteria, got %v", err)
	}
}

func TestClient_Search_NoMatches(t *testing.T) {
	mock := &mockSearchUC{
		searchFn: func(context.Context, criteria.Criteria, int) (searchuc.Result, error) {
			return searchuc.Result{}, nil
		},
	}

	c := &Client{searchSvc: mock}
	res, err := c.Search(context.Background(), Query{Keyword: "xyzzy"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Courses == nil || len(res.Courses) != 0 {
		t.Errorf("courses = %#v, want empty non-nil slice", res.Courses)
	}
}

func TestClient_Search_Unavailable(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	mock := &mockSearchUC{
		searchFn: func(context.Context, criteria.Criteria, int) (searchuc.Result, error) {
			return searchuc.Result{}, fmt.Errorf("%w: engine down", ErrSearchUnavailable)
		},
	}

	c := &Client{searchSvc: mock, obs: obs}
	_, err = c.Search(context.Background(), Query{})
	if !errors.Is(err, ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if v := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("search", "error")); v != 1 {
		t.Errorf("search errors = %v, want 1", v)
	}
}

func TestSearchBuilder_Query(t *testing.T) {
	q := (&Client{}).Courses().Keyword("art").Tuition(0, 9000).Limit(3).Query()
	if q.Keyword != "art" || q.Limit != 3 {
		t.Errorf("query = %+v", q)
	}
	if q.MinTuition == nil || *q.MinTuition != 0 || q.MaxTuition == nil || *q.MaxTuition != 9000 {
		t.Errorf("tuition = (%v, %v)", q.MinTuition, q.MaxTuition)
	}
}

// --- Indexing ---

func TestClient_Reindex(t *testing.T) {
	var report dombatch.Report
	report.Add(dombatch.NewOK("a"))
	report.Add(dombatch.NewRejected("b", errors.New("mapper_parsing_exception")))
	report.Add(dombatch.NewUnindexed("c", ErrIndexUnavailable))

	mock := &mockIndexUC{
		reindexFn: func(context.Context) (dombatch.Report, error) {
			return report, ErrIndexUnavailable
		},
	}

	c := &Client{indexSvc: mock}
	rep, err := c.Reindex(context.Background())
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
	if rep.Processed != 3 || rep.Indexed != 1 || rep.Failed != 1 || rep.Unindexed != 1 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Complete() {
		t.Error("expected incomplete report")
	}
	if len(rep.Failures) != 2 {
		t.Fatalf("failures = %d, want 2", len(rep.Failures))
	}
	if rep.Failures[0].ID != "b" || rep.Failures[0].Status != "rejected" || rep.Failures[0].Reason == "" {
		t.Errorf("failure[0] = %+v", rep.Failures[0])
	}
	if rep.Failures[1].Status != "unindexed" {
		t.Errorf("failure[1] status = %q, want unindexed", rep.Failures[1].Status)
	}
}

func TestClient_IndexCourse(t *testing.T) {
	mock := &mockIndexUC{
		upsertFn: func(_ context.Context, id string) (dombatch.Report, error) {
			if id != "ds" {
				return dombatch.Report{}, ErrNotFound
			}
			var r dombatch.Report
			r.Add(dombatch.NewOK(id))
			return r, nil
		},
	}

	c := &Client{indexSvc: mock}
	rep, err := c.IndexCourse(context.Background(), "ds")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rep.Complete() || rep.Indexed != 1 || rep.Failures != nil {
		t.Errorf("report = %+v", rep)
	}

	_, err = c.IndexCourse(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// --- Catalog ---

func TestClient_Course(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	mock := &mockCatalogUC{
		getFn: func(_ context.Context, id string) (domrec.Course, error) {
			if id != "C-42" {
				return domrec.Course{}, fmt.Errorf("course %s: %w", id, ErrNotFound)
			}
			return domrec.Course{UniqueID: "C-42", Name: "Physics BSc"}, nil
		},
	}

	c := &Client{catalogSvc: mock, obs: obs}
	rec, err := c.Course(context.Background(), "C-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.UniqueID != "C-42" || rec.Name != "Physics BSc" {
		t.Errorf("record = %+v", rec)
	}

	if _, err := c.Course(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if v := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("get_course", "ok")); v != 1 {
		t.Errorf("get_course ok = %v, want 1", v)
	}
	if v := testutil.ToFloat64(obs.metrics.operations.WithLabelValues("get_course", "error")); v != 1 {
		t.Errorf("get_course error = %v, want 1", v)
	}
}

func TestClient_AllCourses(t *testing.T) {
	mock := &mockCatalogUC{
		listFn: func(context.Context) ([]domrec.Course, error) {
			return []domrec.Course{{UniqueID: "c-1"}, {UniqueID: "c-3"}}, nil
		},
	}

	c := &Client{catalogSvc: mock}
	recs, err := c.AllCourses(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 2 || recs[1].UniqueID != "c-3" {
		t.Errorf("records = %+v", recs)
	}
}

// --- Health ---

func TestClient_Health(t *testing.T) {
	mock := &mockHealthUC{
		checkFn: func(context.Context) healthuc.Report {
			return healthuc.Report{
				Status: healthuc.Degraded,
				Checks: map[string]healthuc.CheckResult{
					healthuc.ComponentEngine: healthuc.CheckOK,
					healthuc.ComponentCache:  healthuc.CheckError,
				},
			}
		},
	}

	c := &Client{healthSvc: mock}
	h := c.Health(context.Background())
	if h.Status != "degraded" {
		t.Errorf("Status = %q, want degraded", h.Status)
	}
	if !h.Healthy() {
		t.Error("degraded must still count as healthy")
	}
	if h.Checks["cache"] != "error" || h.Checks["engine"] != "ok" {
		t.Errorf("Checks = %v", h.Checks)
	}
}

func TestHealthStatus_Unhealthy(t *testing.T) {
	if (HealthStatus{Status: "error"}).Healthy() {
		t.Error("error status must be unhealthy")
	}
}

func TestClient_Search_RecordsSource(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs, err := newObserver(nil, reg)
	if err != nil {
		t.Fatalf("newObserver: %v", err)
	}
	results := []searchuc.Result{
		{},
		{FromCache: true},
		{Degraded: true},
		{FromCache: true},
	}
	i := 0
	mock := &mockSearchUC{
		searchFn: func(context.Context, criteria.Criteria, int) (searchuc.Result, error) {
			r := results[i]
			i++
			return r, nil
		},
	}

	c := &Client{searchSvc: mock, obs: obs}
	for range results {
		if _, err := c.Search(context.Background(), Query{Keyword: "data"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	for source, want := range map[string]float64{
		sourceEngine:   1,
		sourceCache:    2,
		sourceFallback: 1,
	} {
		if v := testutil.ToFloat64(obs.metrics.searches.WithLabelValues(source)); v != want {
			t.Errorf("searches{source=%q} = %v, want %v", source, v, want)
		}
	}
}
