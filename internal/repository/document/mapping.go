package document

import "github.com/kailas-cloud/coursedex/internal/db"

// IndexName is the engine index holding course documents.
const IndexName = "courses"

// Definition returns the explicit index mapping. Selector fields carry a
// ".keyword" sub-field for exact term filters. Numbers are doubles so engine
// range filters compare exactly like float64.
func Definition(name string) *db.IndexDefinition {
	return db.NewIndex(name).
		Keyword("uniqueId").
		Text("name").
		Text("overview").
		Text("specialization").
		TextWithKeyword("universityCode").
		TextWithKeyword("universityName").
		Text("department").
		Text("discipline").
		TextWithKeyword("level").
		Text("keywords").
		Double("tuitionFees.amount").
		Keyword("tuitionFees.currency").
		Double("durationMonths").
		Keyword("language").
		Keyword("deadlines.domestic").
		Keyword("deadlines.international").
		MustBuild()
}
