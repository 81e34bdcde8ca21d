package db

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is the result-cache backend facade.
type Cache interface {
	Pinger
	KVStore
	Close()
}

// Engine is the search engine facade combining all sub-interfaces.
type Engine interface {
	Pinger
	IndexManager
	Indexer
	Searcher
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations with expiry.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// IndexManager provides index lifecycle operations.
type IndexManager interface {
	IndexExists(ctx context.Context, name string) (bool, error)
	CreateIndex(ctx context.Context, def *IndexDefinition) error
}

// BulkItem is a single document write in a bulk request.
type BulkItem struct {
	ID   string
	Body []byte
}

// BulkItemError describes a document the engine refused.
type BulkItemError struct {
	ID     string
	Status int
	Reason string
}

// Indexer writes documents.
type Indexer interface {
	// Bulk upserts items by ID and refreshes the index so they are
	// immediately searchable. Per-item rejections are returned as the first
	// value; the error is set only when the request as a whole failed.
	Bulk(ctx context.Context, index string, items []BulkItem) ([]BulkItemError, error)
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total int
	Hits  []SearchHit
}

// SearchHit is a single document hit from a search.
type SearchHit struct {
	ID     string
	Score  float64
	Source json.RawMessage
}

// Searcher runs queries.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte) (*SearchResult, error)
}
