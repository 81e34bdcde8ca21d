package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/coursedex/internal/domain"
	dombatch "github.com/kailas-cloud/coursedex/internal/domain/batch"
	domdoc "github.com/kailas-cloud/coursedex/internal/domain/document"
	domrec "github.com/kailas-cloud/coursedex/internal/domain/record"
	"github.com/kailas-cloud/coursedex/internal/domain/search/criteria"
)

type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeUnauthorized      errorCode = "unauthorized"
	codeInvalidCriteria   errorCode = "invalid_criteria"
	codeNotFound          errorCode = "not_found"
	codeMethodNotAllowed  errorCode = "method_not_allowed"
	codeReindexInProgress errorCode = "reindex_in_progress"
	codeMappingFailed     errorCode = "mapping_failed"
	codeSearchUnavailable errorCode = "search_unavailable"
	codeIndexUnavailable  errorCode = "index_unavailable"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// searchRequest is the body of POST /api/course/search.
type searchRequest struct {
	Keyword      string       `json:"keyword"`
	University   string       `json:"university"`
	Level        string       `json:"level"`
	TuitionRange []priceValue `json:"tuitionRange"`
	MaxTuition   *priceValue  `json:"maxTuition"`
	Limit        int          `json:"limit"`
}

// priceValue accepts a JSON number or a numeric string. null and "" leave
// it unset.
type priceValue struct {
	set   bool
	value float64
}

func (p *priceValue) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if bytes.Equal(raw, []byte("null")) {
		return nil
	}

	text := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return fmt.Errorf("%w: malformed price", domain.ErrInvalidCriteria)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("%w: price %s is not a number", domain.ErrInvalidCriteria, shorten(text, 32))
	}
	p.set, p.value = true, v
	return nil
}

func (p *priceValue) ptr() *float64 {
	if p == nil || !p.set {
		return nil
	}
	v := p.value
	return &v
}

// criteria validates the request and builds search criteria.
func (r *searchRequest) criteria() (criteria.Criteria, error) {
	var lo, hi *float64
	switch {
	case r.TuitionRange != nil && r.MaxTuition != nil:
		return criteria.Criteria{}, fmt.Errorf("%w: tuitionRange and maxTuition are mutually exclusive",
			domain.ErrInvalidCriteria)
	case r.TuitionRange != nil:
		if len(r.TuitionRange) != 2 {
			return criteria.Criteria{}, fmt.Errorf("%w: tuitionRange must have exactly two elements",
				domain.ErrInvalidCriteria)
		}
		lo, hi = r.TuitionRange[0].ptr(), r.TuitionRange[1].ptr()
	case r.MaxTuition != nil:
		hi = r.MaxTuition.ptr()
	}
	return criteria.New(r.Keyword, r.University, r.Level, lo, hi)
}

type searchResponse struct {
	FromCache bool              `json:"fromCache"`
	Degraded  bool              `json:"degraded,omitempty"`
	Data      []domdoc.Document `json:"data"`
}

type courseListResponse struct {
	Success bool            `json:"success"`
	Data    []domrec.Course `json:"data"`
}

type courseResponse struct {
	Success bool          `json:"success"`
	Data    domrec.Course `json:"data"`
}

type itemFailure struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type indexResponse struct {
	Message   string        `json:"message"`
	Items     int           `json:"items"`
	Indexed   int           `json:"indexed"`
	Failed    int           `json:"failed"`
	Unindexed int           `json:"unindexed"`
	Failures  []itemFailure `json:"failures"`
}

func reportToResponse(message string, r *dombatch.Report) indexResponse {
	failures := make([]itemFailure, 0, len(r.Failures))
	for _, f := range r.Failures {
		failures = append(failures, itemFailure{
			ID:     f.ID(),
			Status: string(f.Status()),
			Reason: failureReason(f),
		})
	}
	return indexResponse{
		Message:   message,
		Items:     r.Processed,
		Indexed:   r.Indexed,
		Failed:    r.Failed,
		Unindexed: r.Unindexed,
		Failures:  failures,
	}
}

// failureReason exposes mapping and engine rejection reasons. Outage causes
// are reduced to the sentinel text.
func failureReason(f dombatch.Result) string {
	if f.Err() == nil {
		return ""
	}
	if f.Status() == dombatch.StatusUnindexed {
		return domain.ErrIndexUnavailable.Error()
	}
	return f.Err().Error()
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
