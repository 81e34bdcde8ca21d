package index

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/coursedex/internal/domain"
	dombatch "github.com/kailas-cloud/coursedex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	"github.com/kailas-cloud/coursedex/internal/domain/institution"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
	"github.com/kailas-cloud/coursedex/internal/metrics"
)

// DefaultBatchSize is the number of documents per bulk request.
const DefaultBatchSize = 500

// Service keeps the engine index in sync with the record store.
type Service struct {
	records   RecordReader
	docs      DocumentWriter
	dirs      DirectoryRegistry
	logger    *zap.Logger
	batchSize int

	mu sync.Mutex // serializes full reindex runs
}

// New creates an indexing service.
func New(records RecordReader, docs DocumentWriter, dirs DirectoryRegistry, logger *zap.Logger) *Service {
	return &Service{
		records:   records,
		docs:      docs,
		dirs:      dirs,
		logger:    logger,
		batchSize: DefaultBatchSize,
	}
}

// WithBatchSize configures the bulk request size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.batchSize = size
	}
	return s
}

// ReindexAll maps every course and writes it to the engine in batches.
// Records the store cannot decode, records that fail mapping and records the
// engine rejects are reported and skipped. An engine outage stops the run: the failing batch and everything
// after it are reported as unindexed and ErrIndexUnavailable is returned
// together with the partial report. Only one run may be active at a time.
func (s *Service) ReindexAll(ctx context.Context) (dombatch.Report, error) {
	if !s.mu.TryLock() {
		return dombatch.Report{}, domain.ErrReindexInProgress
	}
	defer s.mu.Unlock()

	start := time.Now()

	universities, badUniversities, err := s.records.ListUniversities(ctx)
	if err != nil {
		return dombatch.Report{}, fmt.Errorf("list universities: %w", err)
	}
	for _, e := range badUniversities {
		s.logger.Warn("University record skipped", zap.Error(e))
	}
	dir := institution.NewDirectory(universities)

	courses, badCourses, err := s.records.ListCourses(ctx)
	if err != nil {
		return dombatch.Report{}, fmt.Errorf("list courses: %w", err)
	}

	report := undecodable(badCourses)
	for _, f := range report.Failures {
		s.logger.Warn("Course record skipped", zap.String("id", f.ID()), zap.Error(f.Err()))
	}

	if err := s.docs.EnsureIndex(ctx); err != nil {
		report.Merge(unindexed(courses, err))
		s.record(&report)
		return report, err
	}

	for offset := 0; offset < len(courses); offset += s.batchSize {
		end := min(offset+s.batchSize, len(courses))

		chunk, err := s.indexBatch(ctx, courses[offset:end], dir)
		report.Merge(chunk)
		if err != nil {
			rest := unindexed(courses[end:], err)
			report.Merge(rest)
			s.record(&report)
			s.logger.Error("Reindex aborted",
				zap.Int("processed", report.Processed),
				zap.Int("indexed", report.Indexed),
				zap.Int("unindexed", report.Unindexed),
				zap.Error(err),
			)
			return report, err
		}
	}

	s.dirs.Replace(dir)
	s.record(&report)

	s.logger.Info("Reindex completed",
		zap.Int("processed", report.Processed),
		zap.Int("indexed", report.Indexed),
		zap.Int("failed", report.Failed),
		zap.Int("universities", dir.Len()),
		zap.Duration("duration", time.Since(start)),
	)
	return report, nil
}

// UpsertOne indexes a single course by id. Re-running it is harmless.
func (s *Service) UpsertOne(ctx context.Context, id string) (dombatch.Report, error) {
	c, err := s.records.GetCourse(ctx, id)
	if err != nil {
		return dombatch.Report{}, fmt.Errorf("get course: %w", err)
	}

	if err := s.docs.EnsureIndex(ctx); err != nil {
		report := unindexed([]domrec.Course{c}, err)
		s.record(&report)
		return report, err
	}

	report, err := s.indexBatch(ctx, []domrec.Course{c}, s.dirs.Current())
	s.record(&report)
	if err != nil {
		return report, err
	}
	if len(report.Failures) > 0 {
		return report, fmt.Errorf("%w: %w", domain.ErrMapping, report.Failures[0].Err())
	}
	return report, nil
}

// undecodable reports records the store could not decode as skipped.
func undecodable(errs []error) dombatch.Report {
	var report dombatch.Report
	for _, err := range errs {
		var (
			id string
			me *domain.MappingError
		)
		if errors.As(err, &me) {
			id = me.ID
		}
		report.Add(dombatch.NewSkipped(id, err))
	}
	return report
}

// indexBatch maps courses and writes the valid ones in one bulk request.
// On engine failure the valid documents are reported as unindexed.
func (s *Service) indexBatch(
	ctx context.Context, courses []domrec.Course, dir *institution.Directory,
) (dombatch.Report, error) {
	var report dombatch.Report

	docs := make([]domdoc.Document, 0, len(courses))
	for i := range courses {
		d := domdoc.Map(&courses[i], dir)
		if err := domdoc.Validate(&d); err != nil {
			report.Add(dombatch.NewSkipped(courses[i].UniqueID, err))
			s.logger.Warn("Skipping unmappable record",
				zap.String("id", courses[i].UniqueID), zap.Error(err))
			continue
		}
		docs = append(docs, d)
	}
	if len(docs) == 0 {
		return report, nil
	}

	rejected, err := s.docs.Upsert(ctx, docs)
	if err != nil {
		for i := range docs {
			report.Add(dombatch.NewUnindexed(docs[i].ID(), err))
		}
		return report, err
	}

	refused := make(map[string]dombatch.Result, len(rejected))
	for _, r := range rejected {
		refused[r.ID()] = r
	}
	for i := range docs {
		if r, ok := refused[docs[i].ID()]; ok {
			report.Add(r)
			s.logger.Warn("Engine rejected document", zap.String("id", r.ID()), zap.Error(r.Err()))
			continue
		}
		report.Add(dombatch.NewOK(docs[i].ID()))
	}
	return report, nil
}

func unindexed(courses []domrec.Course, cause error) dombatch.Report {
	var report dombatch.Report
	for i := range courses {
		report.Add(dombatch.NewUnindexed(courses[i].UniqueID, cause))
	}
	return report
}

func (s *Service) record(r *dombatch.Report) {
	counts := map[dombatch.ItemStatus]int{dombatch.StatusOK: r.Indexed}
	for _, f := range r.Failures {
		counts[f.Status()]++
	}
	for status, n := range counts {
		if n > 0 {
			metrics.IndexedDocumentsTotal.WithLabelValues(string(status)).Add(float64(n))
		}
	}
}
