package autoeval

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
	PeriodTotal UsagePeriod = "total"
)

// UsageReport contains embedding token usage for a time period.
// Limit and remaining values of -1 mean unlimited.
type UsageReport struct {
	Period          UsagePeriod `json:"period"`
	PeriodStart     *time.Time  `json:"period_start_at,omitempty"`
	PeriodEnd       *time.Time  `json:"period_end_at,omitempty"`
	TokensUsed      int64       `json:"tokens_used"`
	TokensLimit     int64       `json:"tokens_limit"`
	TokensRemaining int64       `json:"tokens_remaining"`
	IsExhausted     bool        `json:"is_exhausted"`
}

// Usage returns the embedding budget report. An empty period means month.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) (r UsageReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("usage", start, err) }()

	path := "/api/usage"
	if period != "" {
		path += "?" + url.Values{"period": {string(period)}}.Encode()
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, http.NoBody)
	if err != nil {
		return UsageReport{}, err
	}
	if _, err = c.do(req, &r); err != nil {
		return UsageReport{}, err
	}
	return r, nil
}
