package elastic

import (
	"bytes"
	"context"
	"net/http"

	"github.com/kailas-cloud/coursedex/internal/db"
)

// IndexExists reports whether the named index exists.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	res, err := s.es.Indices.Exists([]string{name}, s.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, &db.Error{Op: db.OpIndexExists, Err: err}
	}
	defer drain(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, responseError(db.OpIndexExists, res)
}

// CreateIndex creates an index with the definition's mapping.
// Returns db.ErrIndexExists if it is already there.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	body, err := def.Mapping()
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}

	res, err := s.es.Indices.Create(def.Name,
		s.es.Indices.Create.WithBody(bytes.NewReader(body)),
		s.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	defer drain(res)

	if res.IsError() {
		return responseError(db.OpCreateIndex, res)
	}
	return nil
}
