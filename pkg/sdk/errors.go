package coursedex

import "github.com/kailas-cloud/coursedex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound          = domain.ErrNotFound
	ErrMapping           = domain.ErrMapping
	ErrInvalidCriteria   = domain.ErrInvalidCriteria
	ErrIndexUnavailable  = domain.ErrIndexUnavailable
	ErrSearchUnavailable = domain.ErrSearchUnavailable
	ErrReindexInProgress = domain.ErrReindexInProgress
)
