package coursedex

import (
	"context"
	"time"

	dombatch "github.com/kailas-cloud/coursedex/internal/domain/batch"
)

// IndexFailure describes one course that was not indexed.
type IndexFailure struct {
	ID     string
	Status string // "skipped", "rejected", "unindexed"
	Reason string
}

// IndexReport summarizes an indexing run.
type IndexReport struct {
	Processed int
	Indexed   int
	Failed    int
	Unindexed int
	Failures  []IndexFailure
}

// Complete reports whether every processed course was indexed.
func (r IndexReport) Complete() bool { return r.Indexed == r.Processed }

// Reindex rebuilds the index from every course in the record store. The
// report is returned even when err is non-nil.
func (c *Client) Reindex(ctx context.Context) (rep IndexReport, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("reindex", start, err, "indexed", rep.Indexed, "processed", rep.Processed)
	}()

	r, err := c.indexSvc.ReindexAll(ctx)
	return toIndexReport(&r), err
}

// IndexCourse indexes a single course by id.
func (c *Client) IndexCourse(ctx context.Context, id string) (rep IndexReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("index_course", start, err, "id", id) }()

	r, err := c.indexSvc.UpsertOne(ctx, id)
	return toIndexReport(&r), err
}

func toIndexReport(r *dombatch.Report) IndexReport {
	out := IndexReport{
		Processed: r.Processed,
		Indexed:   r.Indexed,
		Failed:    r.Failed,
		Unindexed: r.Unindexed,
	}
	for _, f := range r.Failures {
		fail := IndexFailure{ID: f.ID(), Status: string(f.Status())}
		if f.Err() != nil {
			fail.Reason = f.Err().Error()
		}
		out.Failures = append(out.Failures, fail)
	}
	return out
}
