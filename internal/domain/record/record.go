// Package record holds the canonical catalog entities owned by the record store.
// They are read-only to the search pipeline.
package record

// TuitionFees is the tuition block of a course. Every figure is optional.
type TuitionFees struct {
	FirstYear *float64 `bson:"firstYear,omitempty" json:"firstYear,omitempty"`
	Total     *float64 `bson:"total,omitempty" json:"total,omitempty"`
	Currency  string   `bson:"currency,omitempty" json:"currency,omitempty"`
}

// ApplicationFee describes the course application fee.
type ApplicationFee struct {
	Amount   *float64 `bson:"amount,omitempty" json:"amount,omitempty"`
	Currency string   `bson:"currency,omitempty" json:"currency,omitempty"`
	Waived   bool     `bson:"waived,omitempty" json:"waived,omitempty"`
}

// Deadlines holds free-form application deadline strings.
type Deadlines struct {
	Domestic      string `bson:"domestic,omitempty" json:"domestic,omitempty"`
	International string `bson:"international,omitempty" json:"international,omitempty"`
}

// Course is a canonical course record, keyed by UniqueID.
type Course struct {
	UniqueID       string          `bson:"uniqueId" json:"uniqueId"`
	CourseCode     string          `bson:"courseCode,omitempty" json:"courseCode,omitempty"`
	Name           string          `bson:"name" json:"name"`
	UniversityCode string          `bson:"universityCode,omitempty" json:"universityCode,omitempty"`
	UniversityName string          `bson:"universityName,omitempty" json:"universityName,omitempty"`
	Department     string          `bson:"department,omitempty" json:"department,omitempty"`
	Discipline     string          `bson:"discipline,omitempty" json:"discipline,omitempty"`
	Specialization string          `bson:"specialization,omitempty" json:"specialization,omitempty"`
	Level          string          `bson:"level,omitempty" json:"level,omitempty"`
	Overview       string          `bson:"overview,omitempty" json:"overview,omitempty"`
	Summary        string          `bson:"summary,omitempty" json:"summary,omitempty"`
	Keywords       []string        `bson:"keywords,omitempty" json:"keywords,omitempty"`
	Language       string          `bson:"language,omitempty" json:"language,omitempty"`
	Credits        *float64        `bson:"credits,omitempty" json:"credits,omitempty"`
	DurationMonths *float64        `bson:"durationMonths,omitempty" json:"durationMonths,omitempty"`
	AttendanceType string          `bson:"attendanceType,omitempty" json:"attendanceType,omitempty"`
	TuitionFees    *TuitionFees    `bson:"tuitionFees,omitempty" json:"tuitionFees,omitempty"`
	ApplicationFee *ApplicationFee `bson:"applicationFee,omitempty" json:"applicationFee,omitempty"`
	Deadlines      *Deadlines      `bson:"deadlines,omitempty" json:"deadlines,omitempty"`
	PartnerCourse  bool            `bson:"partnerCourse,omitempty" json:"partnerCourse,omitempty"`
	CourseURL      string          `bson:"courseUrl,omitempty" json:"courseUrl,omitempty"`
}

// Location is the city/country pair of a university.
type Location struct {
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	Country string `bson:"country,omitempty" json:"country,omitempty"`
}

// FeeBand is the tuition range a university advertises.
type FeeBand struct {
	Min      *float64 `bson:"min,omitempty" json:"min,omitempty"`
	Max      *float64 `bson:"max,omitempty" json:"max,omitempty"`
	Currency string   `bson:"currency,omitempty" json:"currency,omitempty"`
	Notes    string   `bson:"notes,omitempty" json:"notes,omitempty"`
}

// University is a canonical university record, keyed by UniqueCode.
type University struct {
	UniqueCode        string    `bson:"uniqueCode" json:"uniqueCode"`
	Name              string    `bson:"name" json:"name"`
	Location          *Location `bson:"location,omitempty" json:"location,omitempty"`
	Type              string    `bson:"type,omitempty" json:"type,omitempty"`
	PartnerUniversity bool      `bson:"partnerUniversity,omitempty" json:"partnerUniversity,omitempty"`
	Description       string    `bson:"description,omitempty" json:"description,omitempty"`
	Website           string    `bson:"website,omitempty" json:"website,omitempty"`
	FieldsOfStudy     []string  `bson:"fieldsOfStudy,omitempty" json:"fieldsOfStudy,omitempty"`
	TuitionFees       *FeeBand  `bson:"tuitionFees,omitempty" json:"tuitionFees,omitempty"`
}
