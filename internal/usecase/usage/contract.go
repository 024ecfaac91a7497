package usage

import "github.com/kailas-cloud/autoeval/internal/domain"

// BudgetReader provides read-only access to token budget state.
type BudgetReader interface {
	Usage(period domain.Period) domain.UsageReport
}
