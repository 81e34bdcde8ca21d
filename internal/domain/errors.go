package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing record.
	ErrNotFound = errors.New("not found")
	// ErrMapping signals a record that cannot be projected into a search document.
	ErrMapping = errors.New("mapping failed")
	// ErrInvalidCriteria signals malformed search input, rejected before compilation.
	ErrInvalidCriteria = errors.New("invalid criteria")
	// ErrIndexUnavailable signals the search engine is unreachable during indexing.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrSearchUnavailable signals the search engine (and fallback, if any) failed a query.
	ErrSearchUnavailable = errors.New("search unavailable")
	// ErrCacheUnavailable signals the result cache is unreachable. Never surfaced to clients.
	ErrCacheUnavailable = errors.New("cache unavailable")
	// ErrReindexInProgress signals that another full reindex is already running.
	ErrReindexInProgress = errors.New("reindex already in progress")
)

// MappingError reports a single record that could not be decoded or projected.
type MappingError struct {
	ID     string
	Reason string
}

func (e *MappingError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %s", ErrMapping.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: record %q: %s", ErrMapping.Error(), e.ID, e.Reason)
}

func (e *MappingError) Unwrap() error { return ErrMapping }

// NewMappingError creates a mapping error for the given record id.
func NewMappingError(id, reason string) error {
	return &MappingError{ID: id, Reason: reason}
}
