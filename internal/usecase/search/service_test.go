package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	"unicode"

	"github.com/hbollon/go-edlib"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/db/memory"
	"github.com/kailas-cloud/coursedex/internal/domain"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	"github.com/kailas-cloud/coursedex/internal/domain/institution"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
	"github.com/kailas-cloud/coursedex/internal/domain/search/query"
	"github.com/kailas-cloud/coursedex/internal/repository/resultcache"
)

// --- Fakes ---

// fakeEngine answers compiled requests over a fixed document set. It reads
// only the request clauses and applies engine semantics on its own: a
// standard-analyzer tokenization, AUTO edit budgets and exact keyword terms.
// It shares no matching code with the fallback scan, so agreement between the
// two is a real check.
type fakeEngine struct {
	docs  []domdoc.Document
	err   error
	calls atomic.Int32
	gate  chan struct{}
	last  query.Request
	mu    sync.Mutex
}

func (e *fakeEngine) Search(_ context.Context, req query.Request) ([]domdoc.Document, error) {
	e.calls.Add(1)
	if e.gate != nil {
		<-e.gate
	}
	e.mu.Lock()
	e.last = req
	e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}

	out := []domdoc.Document{}
	for i := range e.docs {
		if len(out) == req.Size {
			break
		}
		if engineMatches(req.Query.Bool, &e.docs[i]) {
			out = append(out, e.docs[i])
		}
	}
	return out, nil
}

func engineMatches(b query.Bool, d *domdoc.Document) bool {
	for _, m := range b.Must {
		if m.MultiMatch != nil && !engineMultiMatch(m.MultiMatch, d) {
			return false
		}
	}
	for _, f := range b.Filter {
		for field, want := range f.Term {
			if engineKeyword(field, d) != want {
				return false
			}
		}
		for field, r := range f.Range {
			if field != query.FieldPrice {
				return false
			}
			v := d.TuitionFees.Amount
			if (r.GTE != nil && v < *r.GTE) || (r.LTE != nil && v > *r.LTE) {
				return false
			}
		}
	}
	return true
}

func engineKeyword(field string, d *domdoc.Document) string {
	switch field {
	case query.FieldInstitution:
		return d.UniversityCode
	case query.FieldLevel:
		return d.Level
	}
	return ""
}

func engineText(field string, d *domdoc.Document) []string {
	switch field {
	case "name":
		return []string{d.Name}
	case "overview":
		return []string{d.Overview}
	case "specialization":
		return []string{d.Specialization}
	case "universityName":
		return []string{d.UniversityName}
	case "discipline":
		return []string{d.Discipline}
	case "department":
		return []string{d.Department}
	case "keywords":
		return d.Keywords
	}
	return nil
}

func engineAnalyze(s string) []string {
	var out []string
	var cur []rune
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur = append(cur, r)
			continue
		}
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	if len(cur) > 0 {
		out = append(out, string(cur))
	}
	return out
}

// engineMultiMatch treats the query as an OR of fuzzy terms, so a query
// that analyzes to nothing matches nothing.
func engineMultiMatch(m *query.MultiMatch, d *domdoc.Document) bool {
	var tokens []string
	for _, f := range m.Fields {
		for _, text := range engineText(f, d) {
			tokens = append(tokens, engineAnalyze(text)...)
		}
	}
	for _, term := range engineAnalyze(m.Query) {
		edits := 2
		switch n := len([]rune(term)); {
		case m.Fuzziness != query.Fuzziness, n <= 2:
			edits = 0
		case n <= 5:
			edits = 1
		}
		for _, tok := range tokens {
			if edlib.OSADamerauLevenshteinDistance(term, tok) <= edits {
				return true
			}
		}
	}
	return false
}

type fakeRecords struct {
	courses []domrec.Course
	invalid []error
	err     error
	calls   int
}

func (r *fakeRecords) ListCourses(context.Context) ([]domrec.Course, []error, error) {
	r.calls++
	return r.courses, r.invalid, r.err
}

func f64(v float64) *float64 { return &v }

func catalog() ([]domrec.Course, []domrec.University) {
	courses := []domrec.Course{
		{
			UniqueID: "ds", Name: "Data Science MSc", UniversityCode: "MIT", Level: "Postgraduate",
			Keywords: []string{"machine learning"}, TuitionFees: &domrec.TuitionFees{FirstYear: f64(12000), Currency: "USD"},
		},
		{
			UniqueID: "art", Name: "Art History BA", UniversityCode: "OXF", Level: "Undergraduate",
			TuitionFees: &domrec.TuitionFees{Total: f64(8000), Currency: "GBP"},
		},
		{
			UniqueID: "free", Name: "Open Statistics", UniversityCode: "MIT", Level: "Certificate",
		},
		{
			UniqueID: "dat", Name: "Database Systems", UniversityCode: "OXF", Level: "Postgraduate",
			TuitionFees: &domrec.TuitionFees{FirstYear: f64(60000)},
		},
	}
	universities := []domrec.University{
		{UniqueCode: "MIT", Name: "Massachusetts Institute of Technology"},
		{UniqueCode: "OXF", Name: "University of Oxford"},
	}
	return courses, universities
}

type harness struct {
	svc     *Service
	engine  *fakeEngine
	records *fakeRecords
	clock   *time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	courses, universities := catalog()
	reg := institution.NewRegistry(institution.NewDirectory(universities))
	docs, errs := domdoc.MapAll(courses, reg.Current())
	if len(errs) != 0 {
		t.Fatalf("catalog mapping: %v", errs)
	}

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := memory.NewStore(memory.WithClock(func() time.Time { return now }))
	cache := resultcache.New(store, resultcache.Config{TTL: time.Hour}, nil, zap.NewNop())

	h := &harness{
		engine:  &fakeEngine{docs: docs},
		records: &fakeRecords{courses: courses},
		clock:   &now,
	}
	h.svc = New(h.engine, cache, h.records, reg)
	return h
}

func mustCriteria(t *testing.T, kw, inst, level string, lo, hi *float64) criteria.Criteria {
	t.Helper()
	c, err := criteria.New(kw, inst, level, lo, hi)
	if err != nil {
		t.Fatalf("criteria.New: %v", err)
	}
	return c
}

func ids(docs []domdoc.Document) string {
	out := ""
	for i, d := range docs {
		if i > 0 {
			out += ","
		}
		out += d.UniqueID
	}
	return out
}

// --- Tests ---

func TestSearch_KeywordWithCeiling(t *testing.T) {
	h := newHarness(t)
	res, err := h.svc.Search(context.Background(), mustCriteria(t, "data", "all", "all", nil, f64(50000)), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res.Documents); got != "ds" {
		t.Fatalf("got %q, want ds", got)
	}
	if res.FromCache || res.Degraded {
		t.Errorf("unexpected flags: %+v", res)
	}
}

func TestSearch_SecondCallFromCache(t *testing.T) {
	h := newHarness(t)
	c := mustCriteria(t, "data", "all", "all", nil, f64(50000))

	first, err := h.svc.Search(context.Background(), c, 0)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	*h.clock = h.clock.Add(59 * time.Minute)
	second, err := h.svc.Search(context.Background(), c, 0)
	if err != nil {
		t.Fatalf("second: %v", err)
	}

	if first.FromCache || !second.FromCache {
		t.Fatalf("fromCache flags: first=%v second=%v", first.FromCache, second.FromCache)
	}
	a, _ := json.Marshal(first.Documents)
	b, _ := json.Marshal(second.Documents)
	if string(a) != string(b) {
		t.Errorf("cached data differs:\n%s\n%s", a, b)
	}
	if n := h.engine.calls.Load(); n != 1 {
		t.Errorf("engine called %d times, want 1", n)
	}
}

func TestSearch_ExpiredEntryRequeriesEngine(t *testing.T) {
	h := newHarness(t)
	c := mustCriteria(t, "data", "", "", nil, nil)

	_, _ = h.svc.Search(context.Background(), c, 0)
	*h.clock = h.clock.Add(time.Hour)
	res, err := h.svc.Search(context.Background(), c, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FromCache || h.engine.calls.Load() != 2 {
		t.Fatalf("expired entry served: fromCache=%v calls=%d", res.FromCache, h.engine.calls.Load())
	}
}

func TestSearch_FallbackMatchesEngine(t *testing.T) {
	cases := []criteria.Criteria{
		mustCriteria(t, "data", "all", "all", nil, f64(50000)),
		mustCriteria(t, "", "", "Postgraduate", nil, nil),
		mustCriteria(t, "hsitory", "", "", nil, nil),
		mustCriteria(t, "statstcs", "", "", nil, nil),
		mustCriteria(t, "hstry", "", "", nil, nil),
		mustCriteria(t, "!!!", "", "", nil, nil),
		mustCriteria(t, "ba", "", "", nil, nil),
		mustCriteria(t, "", "OXF", "", f64(1), nil),
		mustCriteria(t, "", "", "", nil, f64(0)),
		mustCriteria(t, "", "", "", nil, nil),
	}
	for _, c := range cases {
		t.Run(c.String(), func(t *testing.T) {
			healthy := newHarness(t)
			want, err := healthy.svc.Search(context.Background(), c, 0)
			if err != nil {
				t.Fatalf("engine search: %v", err)
			}

			down := newHarness(t)
			down.engine.err = fmt.Errorf("%w: connection refused", domain.ErrSearchUnavailable)
			got, err := down.svc.Search(context.Background(), c, 0)
			if err != nil {
				t.Fatalf("fallback search: %v", err)
			}
			if !got.Degraded {
				t.Error("fallback result must be marked degraded")
			}
			if ids(got.Documents) != ids(want.Documents) {
				t.Errorf("fallback %q != engine %q", ids(got.Documents), ids(want.Documents))
			}
		})
	}
}

func TestSearch_EngineRequestWireShape(t *testing.T) {
	h := newHarness(t)
	c := mustCriteria(t, "Data", "University of Oxford", "Postgraduate", f64(1000), f64(50000))
	if _, err := h.svc.Search(context.Background(), c, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := json.Marshal(h.engine.last)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"size":100,"query":{"bool":{` +
		`"must":[{"multi_match":{"query":"data","fields":["name","overview","specialization",` +
		`"universityName","discipline","department","keywords"],"fuzziness":"AUTO"}}],` +
		`"filter":[{"term":{"universityCode.keyword":"OXF"}},` +
		`{"term":{"level.keyword":"Postgraduate"}},` +
		`{"range":{"tuitionFees.amount":{"gte":1000,"lte":50000}}}]}}}`
	if string(got) != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestSearch_FallbackIgnoresUndecodableRecords(t *testing.T) {
	h := newHarness(t)
	h.engine.err = errors.New("engine down")
	h.records.invalid = []error{domain.NewMappingError("broken", "decode: bad credits")}

	res, err := h.svc.Search(context.Background(), mustCriteria(t, "", "", "", nil, nil), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Degraded || ids(res.Documents) != "ds,art,free,dat" {
		t.Fatalf("unexpected result: %q degraded=%v", ids(res.Documents), res.Degraded)
	}
}

func TestSearch_MissingPriceUnderZeroCeiling(t *testing.T) {
	h := newHarness(t)
	res, err := h.svc.Search(context.Background(), mustCriteria(t, "", "", "", nil, f64(0)), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res.Documents); got != "free" {
		t.Fatalf("got %q, want free", got)
	}
}

func TestSearch_DegradedNotCached(t *testing.T) {
	h := newHarness(t)
	h.engine.err = errors.New("down")
	c := mustCriteria(t, "data", "", "", nil, nil)

	if _, err := h.svc.Search(context.Background(), c, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h.engine.err = nil
	res, err := h.svc.Search(context.Background(), c, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FromCache || res.Degraded {
		t.Fatalf("degraded result leaked into cache: %+v", res)
	}
}

func TestSearch_NoFallback(t *testing.T) {
	h := newHarness(t)
	h.svc.WithFallback(false)
	h.engine.err = fmt.Errorf("%w: timeout", domain.ErrSearchUnavailable)

	_, err := h.svc.Search(context.Background(), mustCriteria(t, "x", "", "", nil, nil), 0)
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
	if h.records.calls != 0 {
		t.Error("record store must not be scanned when fallback is disabled")
	}
}

func TestSearch_FallbackFails(t *testing.T) {
	h := newHarness(t)
	h.engine.err = errors.New("engine down")
	h.records.err = errors.New("mongo down")

	_, err := h.svc.Search(context.Background(), mustCriteria(t, "x", "", "", nil, nil), 0)
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		t.Fatalf("expected ErrSearchUnavailable, got %v", err)
	}
}

func TestSearch_ZeroMatchesIsNotAnError(t *testing.T) {
	h := newHarness(t)
	res, err := h.svc.Search(context.Background(), mustCriteria(t, "zzzzzzzz", "", "", nil, nil), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Documents == nil || len(res.Documents) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", res.Documents)
	}
}

func TestSearch_InstitutionByName(t *testing.T) {
	h := newHarness(t)
	res, err := h.svc.Search(context.Background(), mustCriteria(t, "", "University of Oxford", "", nil, nil), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res.Documents); got != "art,dat" {
		t.Fatalf("got %q, want art,dat", got)
	}
	if v := h.engine.last.Query.Bool.Filter[0].Term[query.FieldInstitution]; v != "OXF" {
		t.Errorf("engine filtered on %q, want OXF", v)
	}
}

func TestSearch_UnknownInstitutionDropsConstraint(t *testing.T) {
	h := newHarness(t)
	res, err := h.svc.Search(context.Background(), mustCriteria(t, "", "Hogwarts", "", nil, nil), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Documents) != 4 {
		t.Fatalf("expected unconstrained result, got %q", ids(res.Documents))
	}
}

func TestSearch_Limit(t *testing.T) {
	h := newHarness(t)
	c := mustCriteria(t, "", "", "", nil, nil)

	res, err := h.svc.Search(context.Background(), c, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(res.Documents))
	}
	if h.engine.last.Size != query.MaxSize {
		t.Errorf("engine must be asked for the full page, got size %d", h.engine.last.Size)
	}

	// A wider request served from cache still sees the full page.
	res, err = h.svc.Search(context.Background(), c, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FromCache || len(res.Documents) != 4 {
		t.Fatalf("expected 4 cached documents, got %d (fromCache=%v)", len(res.Documents), res.FromCache)
	}
}

func TestSearch_CacheOutageDoesNotFail(t *testing.T) {
	courses, universities := catalog()
	reg := institution.NewRegistry(institution.NewDirectory(universities))
	docs, _ := domdoc.MapAll(courses, reg.Current())

	broken := resultcache.New(brokenStore{}, resultcache.Config{}, nil, zap.NewNop())
	svc := New(&fakeEngine{docs: docs}, broken, &fakeRecords{courses: courses}, reg)

	res, err := svc.Search(context.Background(), mustCriteria(t, "data", "", "", nil, f64(50000)), 0)
	if err != nil {
		t.Fatalf("cache outage surfaced: %v", err)
	}
	if ids(res.Documents) != "ds" || res.FromCache {
		t.Fatalf("unexpected result: %+v", res)
	}
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestSearch_ConcurrentMissesCoalesced(t *testing.T) {
	h := newHarness(t)
	h.engine.gate = make(chan struct{})
	c := mustCriteria(t, "data", "", "", nil, nil)

	const n = 8
	var wg sync.WaitGroup
	results := make([]Result, n)
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = h.svc.Search(context.Background(), c, 0)
		}()
	}

	// Let callers pile up behind the first engine call, then release it.
	time.Sleep(50 * time.Millisecond)
	close(h.engine.gate)
	wg.Wait()

	for i := range n {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if ids(results[i].Documents) != "ds" {
			t.Errorf("caller %d got %q", i, ids(results[i].Documents))
		}
	}
	if calls := h.engine.calls.Load(); calls != 1 {
		t.Errorf("engine called %d times, want 1", calls)
	}
}
