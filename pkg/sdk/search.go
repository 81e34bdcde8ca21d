package coursedex

import (
	"context"
	"time"

	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
)

// Course is a searchable course document.
type Course = domdoc.Document

// Query describes a course search. Zero values leave a field unconstrained.
// University accepts a code or a full name.
type Query struct {
	Keyword    string
	University string
	Level      string
	MinTuition *float64
	MaxTuition *float64
	Limit      int
}

// Results is the outcome of a search.
type Results struct {
	Courses   []Course
	FromCache bool
	// Degraded is set when the engine was unreachable and the courses come
	// from a scan of the record store.
	Degraded bool
}

// Search runs a course search.
func (c *Client) Search(ctx context.Context, q Query) (res Results, err error) {
	start := time.Now()
	defer func() {
		c.obs.observe("search", start, err, "courses", len(res.Courses), "cached", res.FromCache)
	}()

	cr, err := criteria.New(q.Keyword, q.University, q.Level, q.MinTuition, q.MaxTuition)
	if err != nil {
		return Results{}, err
	}

	r, err := c.searchSvc.Search(ctx, cr, q.Limit)
	if err != nil {
		return Results{}, err
	}
	courses := r.Documents
	if courses == nil {
		courses = []Course{}
	}
	res = Results{Courses: courses, FromCache: r.FromCache, Degraded: r.Degraded}
	c.obs.searched(&res)
	return res, nil
}

// Courses starts a fluent search.
func (c *Client) Courses() *SearchBuilder {
	return &SearchBuilder{client: c}
}

// SearchBuilder assembles a Query step by step.
type SearchBuilder struct {
	client *Client
	q      Query
}

// Keyword sets the full-text keyword.
func (b *SearchBuilder) Keyword(kw string) *SearchBuilder {
	b.q.Keyword = kw
	return b
}

// University restricts results to one university, by code or name.
func (b *SearchBuilder) University(u string) *SearchBuilder {
	b.q.University = u
	return b
}

// Level restricts results to one study level.
func (b *SearchBuilder) Level(level string) *SearchBuilder {
	b.q.Level = level
	return b
}

// MaxTuition sets an inclusive tuition ceiling.
func (b *SearchBuilder) MaxTuition(ceiling float64) *SearchBuilder {
	b.q.MaxTuition = &ceiling
	return b
}

// Tuition sets an inclusive tuition range.
func (b *SearchBuilder) Tuition(floor, ceiling float64) *SearchBuilder {
	b.q.MinTuition = &floor
	b.q.MaxTuition = &ceiling
	return b
}

// Limit caps the number of results.
func (b *SearchBuilder) Limit(n int) *SearchBuilder {
	b.q.Limit = n
	return b
}

// Query returns the assembled query.
func (b *SearchBuilder) Query() Query { return b.q }

// Do executes the search.
func (b *SearchBuilder) Do(ctx context.Context) (Results, error) {
	return b.client.Search(ctx, b.q)
}
