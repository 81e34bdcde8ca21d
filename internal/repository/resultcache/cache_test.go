package resultcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/db/memory"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
)

func TestKey_Format(t *testing.T) {
	tests := []struct {
		name string
		kw   string
		inst string
		lvl  string
		lo   *float64
		hi   *float64
		want string
	}{
		{"all absent", "", "all", "all", nil, nil, "courses:----"},
		{"ceiling", "data", "", "", nil, f64(50000), "courses:data----50000"},
		{"full", "data science", "MIT", "Postgraduate", f64(0), f64(12.5),
			"courses:data+science-MIT-Postgraduate-0-12.5"},
		{"separator escaped", "e-learning", "a-b", "", nil, nil, "courses:e%2Dlearning-a%2Db---"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Key(mustCriteria(t, tc.kw, tc.inst, tc.lvl, tc.lo, tc.hi))
			if got != tc.want {
				t.Errorf("Key = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestKey_StableUnderNormalization(t *testing.T) {
	a := Key(mustCriteria(t, "  Data   Science ", "ALL", "", nil, f64(50000)))
	b := Key(mustCriteria(t, "data science", "", "all", nil, f64(50000.0)))
	if a != b {
		t.Errorf("equivalent criteria produced %q and %q", a, b)
	}
}

func TestKey_DistinctCriteria(t *testing.T) {
	cases := [][3]string{
		{"a-b", "", ""},
		{"a", "b", ""},
		{"", "a-b", ""},
		{"", "", "a-b"},
		{"a", "", "b"},
		{"", "a", "b"},
		{"a b", "", ""},
		{"a+b", "", ""},
	}
	seen := map[string][3]string{}
	for _, c := range cases {
		k := Key(mustCriteria(t, c[0], c[1], c[2], nil, nil))
		if other, dup := seen[k]; dup {
			t.Fatalf("%q and %q share key %q", c, other, k)
		}
		seen[k] = c
	}

	lo := Key(mustCriteria(t, "", "", "", f64(100), nil))
	hi := Key(mustCriteria(t, "", "", "", nil, f64(100)))
	if lo == hi {
		t.Errorf("floor and ceiling share key %q", lo)
	}
}

func TestCache_Prefix(t *testing.T) {
	c := New(&mockKVStore{}, Config{Prefix: "coursedex:"}, nil, zap.NewNop())
	if got := c.Key(mustCriteria(t, "x", "", "", nil, nil)); got != "coursedex:courses:x----" {
		t.Errorf("Key = %q", got)
	}
}

func TestLookup_Miss(t *testing.T) {
	c, _, counter := newTestCache(t)
	if _, ok := c.Lookup(context.Background(), mustCriteria(t, "x", "", "", nil, nil)); ok {
		t.Fatal("expected miss")
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("miss")); v != 1 {
		t.Errorf("miss counter = %v", v)
	}
}

func TestLookup_Hit(t *testing.T) {
	c, ms, counter := newTestCache(t)
	cr := mustCriteria(t, "data", "", "", nil, nil)
	ms.getFn = func(_ context.Context, key string) ([]byte, error) {
		if key != "courses:data----" {
			t.Errorf("key = %q", key)
		}
		return []byte(`[{"uniqueId":"c1","name":"Data Science MSc","keywords":[]}]`), nil
	}

	docs, ok := c.Lookup(context.Background(), cr)
	if !ok {
		t.Fatal("expected hit")
	}
	if len(docs) != 1 || docs[0].UniqueID != "c1" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("hit")); v != 1 {
		t.Errorf("hit counter = %v", v)
	}
}

func TestLookup_EmptyResultIsHit(t *testing.T) {
	c, ms, _ := newTestCache(t)
	ms.getFn = func(context.Context, string) ([]byte, error) { return []byte(`[]`), nil }

	docs, ok := c.Lookup(context.Background(), mustCriteria(t, "zzz", "", "", nil, nil))
	if !ok || docs == nil || len(docs) != 0 {
		t.Fatalf("expected cached empty result, got %v %v", docs, ok)
	}
}

func TestLookup_BackendErrorIsMiss(t *testing.T) {
	c, ms, counter := newTestCache(t)
	ms.getFn = func(context.Context, string) ([]byte, error) { return nil, errors.New("connection refused") }

	if _, ok := c.Lookup(context.Background(), mustCriteria(t, "x", "", "", nil, nil)); ok {
		t.Fatal("expected miss on backend error")
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("error")); v != 1 {
		t.Errorf("error counter = %v", v)
	}
}

func TestLookup_CorruptEntryIsMiss(t *testing.T) {
	c, ms, counter := newTestCache(t)
	ms.getFn = func(context.Context, string) ([]byte, error) { return []byte(`{not json`), nil }

	if _, ok := c.Lookup(context.Background(), mustCriteria(t, "x", "", "", nil, nil)); ok {
		t.Fatal("expected miss on corrupt entry")
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("error")); v != 1 {
		t.Errorf("error counter = %v", v)
	}
}

func TestLookup_Timeout(t *testing.T) {
	ms := &mockKVStore{getFn: func(ctx context.Context, _ string) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	c := New(ms, Config{Timeout: 10 * time.Millisecond}, nil, zap.NewNop())

	start := time.Now()
	if _, ok := c.Lookup(context.Background(), mustCriteria(t, "x", "", "", nil, nil)); ok {
		t.Fatal("expected miss on timeout")
	}
	if time.Since(start) > time.Second {
		t.Error("lookup did not honor its timeout")
	}
}

func TestStore_WritesWithTTL(t *testing.T) {
	c, ms, _ := newTestCache(t)
	var (
		gotKey string
		gotVal string
		gotTTL time.Duration
	)
	ms.setFn = func(_ context.Context, key string, value []byte, ttl time.Duration) error {
		gotKey, gotVal, gotTTL = key, string(value), ttl
		return nil
	}

	c.Store(context.Background(), mustCriteria(t, "x", "", "", nil, nil), nil)
	if gotKey != "courses:x----" || gotVal != "[]" || gotTTL != DefaultTTL {
		t.Errorf("SetWithTTL(%q, %q, %s)", gotKey, gotVal, gotTTL)
	}
}

func TestStore_ErrorSwallowed(t *testing.T) {
	c, ms, _ := newTestCache(t)
	ms.setFn = func(context.Context, string, []byte, time.Duration) error { return errors.New("OOM") }
	// must not panic or block
	c.Store(context.Background(), mustCriteria(t, "x", "", "", nil, nil), []domdoc.Document{{UniqueID: "a"}})
}

func TestDisabled(t *testing.T) {
	c := New(nil, Config{}, nil, zap.NewNop())
	if c.Enabled() {
		t.Fatal("nil store must disable the cache")
	}
	cr := mustCriteria(t, "x", "", "", nil, nil)
	c.Store(context.Background(), cr, []domdoc.Document{{UniqueID: "a"}})
	if _, ok := c.Lookup(context.Background(), cr); ok {
		t.Fatal("disabled cache must always miss")
	}
}

func TestCache_RoundTripAndExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := memory.NewStore(memory.WithClock(func() time.Time { return now }))
	c := New(s, Config{TTL: time.Hour}, nil, zap.NewNop())
	ctx := context.Background()
	cr := mustCriteria(t, "data", "all", "all", nil, f64(50000))

	docs := []domdoc.Document{{
		UniqueID: "ds", Name: "Data Science MSc", Keywords: []string{},
		TuitionFees: domdoc.Price{Amount: 12000, Currency: "USD"},
	}}
	c.Store(ctx, cr, docs)

	now = now.Add(30 * time.Minute)
	got, ok := c.Lookup(ctx, cr)
	if !ok || len(got) != 1 || got[0].UniqueID != "ds" || got[0].TuitionFees.Amount != 12000 {
		t.Fatalf("expected hit with stored docs, got %+v %v", got, ok)
	}

	now = now.Add(30 * time.Minute)
	if _, ok := c.Lookup(ctx, cr); ok {
		t.Fatal("entry must be absent once its age reaches the ttl")
	}
}
