package health

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component failed; scoring may still work.
	Degraded Status = "degraded"
	// Unhealthy indicates a component scoring cannot run without has failed.
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

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type check struct {
	name     string
	checker  Checker
	critical bool
}

// Service coordinates health checks.
type Service struct {
	checks  []check
	timeout time.Duration
}

// New creates a Service. Each check gets at most timeout (default 2s).
func New(timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{timeout: timeout}
}

// Register adds a named check. A failing critical check makes the report Unhealthy.
// A nil checker is ignored.
func (s *Service) Register(name string, c Checker, critical bool) *Service {
	if c != nil {
		s.checks = append(s.checks, check{name: name, checker: c, critical: critical})
	}
	return s
}

// Names lists registered checks in sorted order.
func (s *Service) Names() []string {
	names := make([]string, 0, len(s.checks))
	for _, c := range s.checks {
		names = append(names, c.name)
	}
	sort.Strings(names)
	return names
}

// Check runs all checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	results := make([]CheckResult, len(s.checks))

	// Plain group: a failing check must not cancel the others.
	var g errgroup.Group
	for i, c := range s.checks {
		i, c := i, c
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()
			results[i] = CheckOK
			if err := c.checker.HealthCheck(cctx); err != nil {
				results[i] = CheckError
			}
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	checks := make(map[string]CheckResult, len(s.checks))
	for i, c := range s.checks {
		checks[c.name] = results[i]
		if results[i] != CheckError {
			continue
		}
		if c.critical {
			status = Unhealthy
		} else if status == Healthy {
			status = Degraded
		}
	}

	return Report{Status: status, Checks: checks}
}
