package domain

// Period selects the window of a usage report.
type Period string

// Usage report periods.
const (
	PeriodDay   Period = "day"
	PeriodMonth Period = "month"
	PeriodTotal Period = "total"
)

// ParsePeriod validates a period name. An empty string means PeriodMonth.
func ParsePeriod(s string) (Period, bool) {
	switch Period(s) {
	case "":
		return PeriodMonth, true
	case PeriodDay, PeriodMonth, PeriodTotal:
		return Period(s), true
	default:
		return "", false
	}
}

// UsageReport describes embedding token consumption for one period.
// Limits and remaining values of -1 mean unlimited.
type UsageReport struct {
	Period          Period
	PeriodStart     int64 // unix ms, 0 for PeriodTotal
	PeriodEnd       int64
	TokensUsed      int64
	TokensLimit     int64
	TokensRemaining int64
	Exhausted       bool
}
