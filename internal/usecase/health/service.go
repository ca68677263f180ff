// Package health aggregates component checks into a single report.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results. IndexChunks is informative,
// not a pass/fail signal: an empty index is a valid state.
type Report struct {
	Status      Status
	Checks      map[string]CheckResult
	IndexReady  bool
	IndexChunks int
}

// Service coordinates health checks.
type Service struct {
	provider ProviderChecker
	db       DBPinger
	index    IndexReader
}

// New creates a Service. db can be nil when no Redis backend is configured.
func New(provider ProviderChecker, db DBPinger, index IndexReader) *Service {
	return &Service{provider: provider, db: db, index: index}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.provider.HealthCheck(ctx); err != nil {
		checks["provider"] = CheckError
	} else {
		checks["provider"] = CheckOK
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = CheckError
		} else {
			checks["database"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{
		Status:      status,
		Checks:      checks,
		IndexReady:  s.index.Ready(),
		IndexChunks: s.index.Len(),
	}
}
