// Package catalog serves canonical course records straight from the record
// store, bypassing the search engine.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/domain"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
	"github.com/kailas-cloud/coursedex/internal/logger"
)

// Service reads courses from the record store.
type Service struct {
	records RecordReader
}

// New creates a catalog service.
func New(records RecordReader) *Service {
	return &Service{records: records}
}

// List returns every course that decodes. Undecodable records are logged and
// left out.
func (s *Service) List(ctx context.Context) ([]domrec.Course, error) {
	courses, invalid, err := s.records.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	if len(invalid) > 0 {
		log := logger.FromContext(ctx)
		for _, e := range invalid {
			log.Warn("Course record skipped", zap.Error(e))
		}
	}
	if courses == nil {
		courses = []domrec.Course{}
	}
	return courses, nil
}

// Get returns the course with the given uniqueId.
func (s *Service) Get(ctx context.Context, id string) (domrec.Course, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domrec.Course{}, fmt.Errorf("course id is empty: %w", domain.ErrNotFound)
	}
	c, err := s.records.GetCourse(ctx, id)
	if err != nil {
		return domrec.Course{}, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}
