package coursedex

import (
	"context"
	"time"

	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
)

// Record is a canonical course record as kept in the record store.
type Record = domrec.Course

// Course returns one course record by uniqueId, read from the record store.
// A missing course yields ErrNotFound.
func (c *Client) Course(ctx context.Context, id string) (rec Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe("get_course", start, err, "id", id) }()

	return c.catalogSvc.Get(ctx, id) //nolint:wrapcheck // sentinel errors are part of the API
}

// AllCourses returns every course record that decodes.
func (c *Client) AllCourses(ctx context.Context) (recs []Record, err error) {
	start := time.Now()
	defer func() { c.obs.observe("list_courses", start, err, "courses", len(recs)) }()

	return c.catalogSvc.List(ctx) //nolint:wrapcheck // sentinel errors are part of the API
}
