package document

import (
	"context"
	"testing"

	"github.com/kailas-cloud/coursedex/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	existsFn func(ctx context.Context, name string) (bool, error)
	createFn func(ctx context.Context, def *db.IndexDefinition) error
	bulkFn   func(ctx context.Context, index string, items []db.BulkItem) ([]db.BulkItemError, error)
	searchFn func(ctx context.Context, index string, body []byte) (*db.SearchResult, error)
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, name)
	}
	return true, nil
}

func (m *mockStore) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if m.createFn != nil {
		return m.createFn(ctx, def)
	}
	return nil
}

func (m *mockStore) Bulk(ctx context.Context, index string, items []db.BulkItem) ([]db.BulkItemError, error) {
	if m.bulkFn != nil {
		return m.bulkFn(ctx, index, items)
	}
	return nil, nil
}

func (m *mockStore) Search(ctx context.Context, index string, body []byte) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, index, body)
	}
	return &db.SearchResult{}, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "", 0), ms
}
