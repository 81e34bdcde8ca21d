package catalog

import (
	"context"

	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
)

// RecordReader reads canonical course records from the record store.
type RecordReader interface {
	ListCourses(ctx context.Context) ([]domrec.Course, []error, error)
	GetCourse(ctx context.Context, id string) (domrec.Course, error)
}
