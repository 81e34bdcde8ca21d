// Package criteria holds the validated, normalized form of a course search.
package criteria

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/document"
)

// All is the selector sentinel meaning "no constraint on this field".
const All = "all"

// MaxKeywordLength is the maximum keyword length in bytes.
const MaxKeywordLength = 256

// Criteria is an immutable search intent. Absent selectors are stored as "".
type Criteria struct {
	keyword     string
	institution string
	level       string
	priceMin    *float64
	priceMax    *float64
}

// New validates and normalizes search input.
// Empty and "all" selectors collapse to the same absent form, the keyword is
// lower-cased with whitespace collapsed. Prices must be finite and
// non-negative, with min <= max.
func New(keyword, institution, level string, priceMin, priceMax *float64) (Criteria, error) {
	kw := normalizeKeyword(keyword)
	if len(kw) > MaxKeywordLength {
		return Criteria{}, fmt.Errorf("%w: keyword too long (max %d)", domain.ErrInvalidCriteria, MaxKeywordLength)
	}
	if err := checkPrice("price floor", priceMin); err != nil {
		return Criteria{}, err
	}
	if err := checkPrice("price ceiling", priceMax); err != nil {
		return Criteria{}, err
	}
	if priceMin != nil && priceMax != nil && *priceMin > *priceMax {
		return Criteria{}, fmt.Errorf("%w: price floor %v exceeds ceiling %v",
			domain.ErrInvalidCriteria, *priceMin, *priceMax)
	}

	return Criteria{
		keyword:     kw,
		institution: normalizeSelector(institution),
		level:       normalizeSelector(level),
		priceMin:    clonePtr(priceMin),
		priceMax:    clonePtr(priceMax),
	}, nil
}

// Keyword returns the normalized keyword ("" when absent).
func (c Criteria) Keyword() string { return c.keyword }

// Institution returns the institution selector ("" when absent).
func (c Criteria) Institution() string { return c.institution }

// Level returns the level selector ("" when absent).
func (c Criteria) Level() string { return c.level }

// PriceMin returns the inclusive price floor, or nil.
func (c Criteria) PriceMin() *float64 { return clonePtr(c.priceMin) }

// PriceMax returns the inclusive price ceiling, or nil.
func (c Criteria) PriceMax() *float64 { return clonePtr(c.priceMax) }

// IsEmpty reports whether no constraint is set.
func (c Criteria) IsEmpty() bool {
	return c.keyword == "" && c.institution == "" && c.level == "" &&
		c.priceMin == nil && c.priceMax == nil
}

// WithInstitution returns a copy with the institution selector replaced.
// Used after resolving a name or code to the canonical university code.
func (c Criteria) WithInstitution(code string) Criteria {
	c.institution = normalizeSelector(code)
	return c
}

// Matches applies the same semantics as the compiled engine query to a
// document: every present constraint must hold.
func (c Criteria) Matches(d *document.Document) bool {
	if c.institution != "" && d.UniversityCode != c.institution {
		return false
	}
	if c.level != "" && d.Level != c.level {
		return false
	}
	if c.priceMin != nil && d.TuitionFees.Amount < *c.priceMin {
		return false
	}
	if c.priceMax != nil && d.TuitionFees.Amount > *c.priceMax {
		return false
	}
	if c.keyword != "" && !matchKeyword(c.keyword, d) {
		return false
	}
	return true
}

// String renders the criteria for logs.
func (c Criteria) String() string {
	return fmt.Sprintf("keyword=%q institution=%q level=%q min=%s max=%s",
		c.keyword, c.institution, c.level, FormatPrice(c.priceMin), FormatPrice(c.priceMax))
}

// FormatPrice renders a price bound in its shortest form, "" when absent.
func FormatPrice(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

func normalizeKeyword(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizeSelector(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, All) {
		return ""
	}
	return s
}

func checkPrice(name string, p *float64) error {
	if p == nil {
		return nil
	}
	if math.IsNaN(*p) || math.IsInf(*p, 0) {
		return fmt.Errorf("%w: %s is not a finite number", domain.ErrInvalidCriteria, name)
	}
	if *p < 0 {
		return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidCriteria, name)
	}
	return nil
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
