package document

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kailas-cloud/coursedex/internal/db"
	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	"github.com/kailas-cloud/coursedex/internal/domain/search/query"
)

// store is the consumer interface for the search engine (ISP).
type store interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	Bulk(ctx context.Context, index string, items []db.BulkItem) ([]db.BulkItemError, error)
	Search(ctx context.Context, index string, body []byte) (*db.SearchResult, error)
}

// Repo writes and queries course documents in the engine.
type Repo struct {
	store    store
	index    string
	timeout  time.Duration
	shards   int
	replicas int
	sharding bool
}

// New creates a document repository over the given index.
// timeout bounds each engine call; zero disables it.
func New(s store, index string, timeout time.Duration) *Repo {
	if index == "" {
		index = IndexName
	}
	return &Repo{store: s, index: index, timeout: timeout}
}

// WithSharding overrides the shard and replica counts used when the index is
// created. Existing indices are left untouched.
func (r *Repo) WithSharding(shards, replicas int) *Repo {
	r.shards, r.replicas, r.sharding = shards, replicas, true
	return r
}

// Index returns the index name.
func (r *Repo) Index() string { return r.index }

// EnsureIndex creates the index with its explicit mapping when missing.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	def := Definition(r.index)
	if r.sharding {
		def.Shards, def.Replicas = r.shards, r.replicas
	}
	if err := db.EnsureIndex(ctx, r.store, def); err != nil {
		return fmt.Errorf("%w: ensure index %s: %v", domain.ErrIndexUnavailable, r.index, err)
	}
	return nil
}

// Upsert writes docs under their ids. Documents the engine refused come back
// as rejected results; a failed request as a whole yields ErrIndexUnavailable.
func (r *Repo) Upsert(ctx context.Context, docs []domdoc.Document) ([]batch.Result, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	items := make([]db.BulkItem, 0, len(docs))
	for i := range docs {
		data, err := json.Marshal(&docs[i])
		if err != nil {
			return nil, fmt.Errorf("marshal document %s: %w", docs[i].ID(), err)
		}
		items = append(items, db.BulkItem{ID: docs[i].ID(), Body: data})
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	failed, err := r.store.Bulk(ctx, r.index, items)
	if err != nil {
		return nil, fmt.Errorf("%w: bulk %d documents: %v", domain.ErrIndexUnavailable, len(items), err)
	}

	rejected := make([]batch.Result, 0, len(failed))
	for _, f := range failed {
		rejected = append(rejected, batch.NewRejected(f.ID,
			fmt.Errorf("engine rejected document (status %d): %s", f.Status, f.Reason)))
	}
	return rejected, nil
}

// Search runs a compiled request and returns hit sources in engine order,
// never more than the request size.
func (r *Repo) Search(ctx context.Context, req query.Request) ([]domdoc.Document, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.store.Search(ctx, r.index, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	n := len(res.Hits)
	if req.Size > 0 && n > req.Size {
		n = req.Size
	}
	docs := make([]domdoc.Document, 0, n)
	for _, h := range res.Hits[:n] {
		var d domdoc.Document
		if err := json.Unmarshal(h.Source, &d); err != nil {
			return nil, fmt.Errorf("%w: decode hit %s: %v", domain.ErrSearchUnavailable, h.ID, err)
		}
		if d.Keywords == nil {
			d.Keywords = []string{}
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func (r *Repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}
