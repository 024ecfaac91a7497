package usage

import (
	"context"
	"time"

	"github.com/kailas-cloud/autoeval/internal/domain"
)

// Service handles embedding usage reporting.
type Service struct {
	br  BudgetReader
	now func() time.Time
}

// New creates a Service. br can be nil (unlimited mode without tracking).
func New(br BudgetReader) *Service {
	return &Service{br: br, now: func() time.Time { return time.Now().UTC() }}
}

// GetReport builds a usage report for the given period.
func (s *Service) GetReport(_ context.Context, period domain.Period) domain.UsageReport {
	if s.br != nil {
		return s.br.Usage(period)
	}

	r := domain.UsageReport{Period: period, TokensLimit: -1, TokensRemaining: -1}
	now := s.now()
	switch period {
	case domain.PeriodDay:
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		r.PeriodStart, r.PeriodEnd = start.UnixMilli(), start.Add(24*time.Hour).UnixMilli()
	case domain.PeriodMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.PeriodStart, r.PeriodEnd = start.UnixMilli(), start.AddDate(0, 1, 0).UnixMilli()
	}
	return r
}
