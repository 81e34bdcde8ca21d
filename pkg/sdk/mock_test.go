package coursedex

import (
	"context"

	dombatch "github.com/kailas-cloud/coursedex/internal/domain/batch"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
	healthuc "github.com/kailas-cloud/coursedex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/coursedex/internal/usecase/search"
)

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, c criteria.Criteria, limit int) (searchuc.Result, error)
}

func (m *mockSearchUC) Search(ctx context.Context, c criteria.Criteria, limit int) (searchuc.Result, error) {
	return m.searchFn(ctx, c, limit)
}

// --- indexUseCase mock ---

type mockIndexUC struct {
	reindexFn func(ctx context.Context) (dombatch.Report, error)
	upsertFn  func(ctx context.Context, id string) (dombatch.Report, error)
}

func (m *mockIndexUC) ReindexAll(ctx context.Context) (dombatch.Report, error) {
	return m.reindexFn(ctx)
}

func (m *mockIndexUC) UpsertOne(ctx context.Context, id string) (dombatch.Report, error) {
	return m.upsertFn(ctx, id)
}

// --- catalogUseCase mock ---

type mockCatalogUC struct {
	listFn func(ctx context.Context) ([]domrec.Course, error)
	getFn  func(ctx context.Context, id string) (domrec.Course, error)
}

func (m *mockCatalogUC) List(ctx context.Context) ([]domrec.Course, error) {
	return m.listFn(ctx)
}

func (m *mockCatalogUC) Get(ctx context.Context, id string) (domrec.Course, error) {
	return m.getFn(ctx, id)
}

// --- healthUseCase mock ---

type mockHealthUC struct {
	checkFn func(ctx context.Context) healthuc.Report
}

func (m *mockHealthUC) Check(ctx context.Context) healthuc.Report {
	return m.checkFn(ctx)
}

// --- closer mock ---

type mockConn struct {
	closed int
}

func (m *mockConn) Close(context.Context) { m.closed++ }
