package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the search engine is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentEngine  = "engine"
	ComponentCache   = "cache"
	ComponentRecords = "records"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	engine  Pinger
	cache   Pinger
	records Pinger
}

// New creates a Service. cache and records can be nil.
func New(engine, cache, records Pinger) *Service {
	return &Service{engine: engine, cache: cache, records: records}
}

// Check runs health checks against all components. A failing engine makes the
// service unhealthy. A failing cache or record store only degrades it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[ComponentEngine] = probe(ctx, s.engine)
	if s.cache != nil {
		checks[ComponentCache] = probe(ctx, s.cache)
	}
	if s.records != nil {
		checks[ComponentRecords] = probe(ctx, s.records)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks[ComponentEngine] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func probe(ctx context.Context, p Pinger) CheckResult {
	if err := p.Ping(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
