package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/kailas-cloud/coursedex/internal/db"
)

type bulkAction struct {
	Index bulkMeta `json:"index"`
}

type bulkMeta struct {
	ID string `json:"_id"`
}

type bulkResponse struct {
	Errors bool                        `json:"errors"`
	Items  []map[string]bulkItemResult `json:"items"`
}

type bulkItemResult struct {
	ID     string `json:"_id"`
	Status int    `json:"status"`
	Error  *struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error,omitempty"`
}

// Bulk upserts items with the index action and refresh=true.
func (s *Store) Bulk(ctx context.Context, index string, items []db.BulkItem) ([]db.BulkItemError, error) {
	if len(items) == 0 {
		return nil, nil
	}

	body, err := encodeBulk(items)
	if err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: err}
	}

	res, err := s.es.Bulk(bytes.NewReader(body),
		s.es.Bulk.WithIndex(index),
		s.es.Bulk.WithRefresh("true"),
		s.es.Bulk.WithContext(ctx),
	)
	if err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: err}
	}
	defer drain(res)

	if res.IsError() {
		return nil, responseError(db.OpBulk, res)
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, &db.Error{Op: db.OpBulk, Err: fmt.Errorf("decode response: %w", err)}
	}
	if !parsed.Errors {
		return nil, nil
	}

	var failed []db.BulkItemError
	for _, entry := range parsed.Items {
		for _, r := range entry {
			if r.Error == nil {
				continue
			}
			failed = append(failed, db.BulkItemError{
				ID:     r.ID,
				Status: r.Status,
				Reason: r.Error.Type + ": " + r.Error.Reason,
			})
		}
	}
	return failed, nil
}

// encodeBulk renders the NDJSON body: an action line then the source line per item.
func encodeBulk(items []db.BulkItem) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range items {
		if items[i].ID == "" {
			return nil, fmt.Errorf("item %d: id is required", i)
		}
		if err := enc.Encode(bulkAction{Index: bulkMeta{ID: items[i].ID}}); err != nil {
			return nil, err
		}
		src := bytes.TrimSpace(items[i].Body)
		if len(src) == 0 || bytes.ContainsRune(src, '\n') {
			return nil, fmt.Errorf("item %q: body must be single-line json", items[i].ID)
		}
		buf.Write(src)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}
