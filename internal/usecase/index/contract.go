package index

import (
	"context"

	dombatch "github.com/kailas-cloud/coursedex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	"github.com/kailas-cloud/coursedex/internal/domain/institution"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
)

// RecordReader reads canonical records from the record store. List calls
// return records that failed to decode separately, as *domain.MappingError.
type RecordReader interface {
	ListCourses(ctx context.Context) ([]domrec.Course, []error, error)
	GetCourse(ctx context.Context, id string) (domrec.Course, error)
	ListUniversities(ctx context.Context) ([]domrec.University, []error, error)
}

// DocumentWriter writes search documents to the engine.
type DocumentWriter interface {
	EnsureIndex(ctx context.Context) error
	Upsert(ctx context.Context, docs []domdoc.Document) ([]dombatch.Result, error)
}

// DirectoryRegistry holds the current institution directory.
type DirectoryRegistry interface {
	Current() *institution.Directory
	Replace(d *institution.Directory)
}
