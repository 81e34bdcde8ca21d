// Package document projects canonical course records into the flat search
// documents stored in the engine index.
package document

import (
	"math"
	"strings"

	"github.com/kailas-cloud/coursedex/internal/domain"
	"github.com/kailas-cloud/coursedex/internal/domain/institution"
	"github.com/kailas-cloud/coursedex/internal/domain/record"
)

// DefaultCurrency is used when a course does not state its tuition currency.
const DefaultCurrency = "USD"

// Price is the single numeric tuition figure used for range filtering.
type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Deadlines mirrors the course deadlines for display.
type Deadlines struct {
	Domestic      string `json:"domestic,omitempty"`
	International string `json:"international,omitempty"`
}

// Document is the flattened projection of a course stored in the search index.
// Field names are the index contract and must not change without a reindex.
type Document struct {
	UniqueID       string     `json:"uniqueId"`
	Name           string     `json:"name"`
	Overview       string     `json:"overview"`
	Specialization string     `json:"specialization"`
	UniversityCode string     `json:"universityCode"`
	UniversityName string     `json:"universityName"`
	Department     string     `json:"department"`
	Discipline     string     `json:"discipline"`
	Level          string     `json:"level"`
	Keywords       []string   `json:"keywords"`
	TuitionFees    Price      `json:"tuitionFees"`
	DurationMonths *float64   `json:"durationMonths,omitempty"`
	Language       string     `json:"language,omitempty"`
	Deadlines      *Deadlines `json:"deadlines,omitempty"`
}

// ID returns the document identifier, equal to the source record id.
func (d *Document) ID() string { return d.UniqueID }

// Map projects a course into a search document. It never fails: missing
// optional fields get defaults (amount 0, currency USD, empty keyword list).
// dir fills in the university name when the course lacks it; it may be nil.
func Map(c *record.Course, dir *institution.Directory) Document {
	doc := Document{
		UniqueID:       c.UniqueID,
		Name:           strings.TrimSpace(c.Name),
		Overview:       strings.TrimSpace(c.Overview),
		Specialization: strings.TrimSpace(c.Specialization),
		UniversityCode: strings.TrimSpace(c.UniversityCode),
		UniversityName: strings.TrimSpace(c.UniversityName),
		Department:     strings.TrimSpace(c.Department),
		Discipline:     strings.TrimSpace(c.Discipline),
		Level:          strings.TrimSpace(c.Level),
		Keywords:       cleanKeywords(c.Keywords),
		TuitionFees:    price(c.TuitionFees),
		DurationMonths: c.DurationMonths,
		Language:       strings.TrimSpace(c.Language),
	}

	if doc.UniversityName == "" && doc.UniversityCode != "" {
		if name, ok := dir.Name(doc.UniversityCode); ok {
			doc.UniversityName = name
		}
	}

	if c.Deadlines != nil && (c.Deadlines.Domestic != "" || c.Deadlines.International != "") {
		doc.Deadlines = &Deadlines{
			Domestic:      c.Deadlines.Domestic,
			International: c.Deadlines.International,
		}
	}

	return doc
}

// Validate reports whether the document can be written to the index.
// A document without an id cannot be addressed, and a non-finite or negative
// price would break range filtering.
func Validate(d *Document) error {
	if strings.TrimSpace(d.UniqueID) == "" {
		return domain.NewMappingError(d.UniqueID, "record has no uniqueId")
	}
	a := d.TuitionFees.Amount
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return domain.NewMappingError(d.UniqueID, "tuition amount is not a finite number")
	}
	if a < 0 {
		return domain.NewMappingError(d.UniqueID, "tuition amount is negative")
	}
	return nil
}

// MapAll maps and validates a batch of courses. Documents come back in input
// order; records that fail validation are left out and reported as
// *domain.MappingError values instead.
func MapAll(courses []record.Course, dir *institution.Directory) ([]Document, []error) {
	docs := make([]Document, 0, len(courses))
	var errs []error
	for i := range courses {
		d := Map(&courses[i], dir)
		if err := Validate(&d); err != nil {
			errs = append(errs, err)
			continue
		}
		docs = append(docs, d)
	}
	return docs, errs
}

// price picks the first-year figure, then the total, then zero.
func price(f *record.TuitionFees) Price {
	p := Price{Currency: DefaultCurrency}
	if f == nil {
		return p
	}
	switch {
	case f.FirstYear != nil:
		p.Amount = *f.FirstYear
	case f.Total != nil:
		p.Amount = *f.Total
	}
	if c := strings.TrimSpace(f.Currency); c != "" {
		p.Currency = c
	}
	return p
}

func cleanKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if k = strings.TrimSpace(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}
