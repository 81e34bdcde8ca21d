// Package query compiles search criteria into the engine's bool query.
package query

import "github.com/kailas-cloud/coursedex/internal/domain/search/criteria"

// Result size limits.
const (
	MaxSize     = 100
	DefaultSize = MaxSize
)

// Engine field names the compiled query refers to.
const (
	FieldInstitution = "universityCode.keyword"
	FieldLevel       = "level.keyword"
	FieldPrice       = "tuitionFees.amount"
	Fuzziness        = "AUTO"
)

// KeywordFields are the fields searched by the keyword clause.
var KeywordFields = []string{
	"name",
	"overview",
	"specialization",
	"universityName",
	"discipline",
	"department",
	"keywords",
}

// Request is the search body sent to the engine.
type Request struct {
	Size  int   `json:"size"`
	Query Query `json:"query"`
}

// Query wraps the top-level bool query.
type Query struct {
	Bool Bool `json:"bool"`
}

// Bool holds scoring (must) and non-scoring (filter) clauses. Both encode as
// arrays, and a bool with no clauses matches every document.
type Bool struct {
	Must   []Clause `json:"must"`
	Filter []Clause `json:"filter"`
}

// Clause is one leaf query. Exactly one field is set.
type Clause struct {
	MultiMatch *MultiMatch       `json:"multi_match,omitempty"`
	Term       map[string]string `json:"term,omitempty"`
	Range      map[string]Bounds `json:"range,omitempty"`
}

// MultiMatch is a fuzzy full-text match across several fields.
type MultiMatch struct {
	Query     string   `json:"query"`
	Fields    []string `json:"fields"`
	Fuzziness string   `json:"fuzziness"`
}

// Bounds is an inclusive numeric range.
type Bounds struct {
	GTE *float64 `json:"gte,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// Compile translates criteria into an engine request. Clauses are ANDed:
// keyword (must), institution, level and price (filter). Size is clamped to
// [1, MaxSize]; size <= 0 selects DefaultSize.
func Compile(c criteria.Criteria, size int) Request {
	b := Bool{Must: []Clause{}, Filter: []Clause{}}

	if kw := c.Keyword(); kw != "" {
		fields := make([]string, len(KeywordFields))
		copy(fields, KeywordFields)
		b.Must = append(b.Must, Clause{MultiMatch: &MultiMatch{
			Query:     kw,
			Fields:    fields,
			Fuzziness: Fuzziness,
		}})
	}

	if inst := c.Institution(); inst != "" {
		b.Filter = append(b.Filter, Clause{Term: map[string]string{FieldInstitution: inst}})
	}

	if level := c.Level(); level != "" {
		b.Filter = append(b.Filter, Clause{Term: map[string]string{FieldLevel: level}})
	}

	if lo, hi := c.PriceMin(), c.PriceMax(); lo != nil || hi != nil {
		b.Filter = append(b.Filter, Clause{Range: map[string]Bounds{FieldPrice: {GTE: lo, LTE: hi}}})
	}

	return Request{Size: ClampSize(size), Query: Query{Bool: b}}
}

// ClampSize bounds a requested result count.
func ClampSize(size int) int {
	if size <= 0 {
		return DefaultSize
	}
	if size > MaxSize {
		return MaxSize
	}
	return size
}

// IsMatchAll reports whether the request has no clauses.
func (r *Request) IsMatchAll() bool {
	return len(r.Query.Bool.Must) == 0 && len(r.Query.Bool.Filter) == 0
}
