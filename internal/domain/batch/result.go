package batch

// ItemStatus is the indexing outcome of a single record.
type ItemStatus string

// Item status values.
const (
	StatusOK ItemStatus = "ok"
	// StatusSkipped marks a record that could not be mapped to a document.
	StatusSkipped ItemStatus = "skipped"
	// StatusRejected marks a document the engine refused.
	StatusRejected ItemStatus = "rejected"
	// StatusUnindexed marks a document never sent because the engine went away.
	StatusUnindexed ItemStatus = "unindexed"
)

// Result is the outcome of indexing one record.
type Result struct {
	id     string
	status ItemStatus
	err    error
}

// NewOK creates a successful result.
func NewOK(id string) Result { return Result{id: id, status: StatusOK} }

// NewSkipped creates a mapping-failure result.
func NewSkipped(id string, err error) Result { return Result{id: id, status: StatusSkipped, err: err} }

// NewRejected creates an engine-rejection result.
func NewRejected(id string, err error) Result { return Result{id: id, status: StatusRejected, err: err} }

// NewUnindexed creates a not-attempted result.
func NewUnindexed(id string, err error) Result {
	return Result{id: id, status: StatusUnindexed, err: err}
}

// ID returns the record identifier.
func (r Result) ID() string { return r.id }

// Status returns the outcome.
func (r Result) Status() ItemStatus { return r.status }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Report aggregates the outcome of an indexing run.
type Report struct {
	Processed int
	Indexed   int
	Failed    int
	Unindexed int
	Failures  []Result
}

// Add records one item outcome.
func (r *Report) Add(res Result) {
	r.Processed++
	switch res.status {
	case StatusOK:
		r.Indexed++
		return
	case StatusUnindexed:
		r.Unindexed++
	default:
		r.Failed++
	}
	r.Failures = append(r.Failures, res)
}

// Merge folds another report into r.
func (r *Report) Merge(o Report) {
	r.Processed += o.Processed
	r.Indexed += o.Indexed
	r.Failed += o.Failed
	r.Unindexed += o.Unindexed
	r.Failures = append(r.Failures, o.Failures...)
}

// Complete reports whether every processed record was indexed.
func (r *Report) Complete() bool { return r.Indexed == r.Processed }
