package autoeval

import (
	"context"
	"net/http"
	"time"
)

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            `json:"status"` // "ok", "degraded", "error"
	Checks map[string]string `json:"checks"` // component → "ok"/"error"
}

// Health fetches the server's health report. An unhealthy server (503) still yields a
// report, not an error.
func (c *Client) Health(ctx context.Context) (hs HealthStatus, err error) {
	start := time.Now()
	defer func() { c.obs.observe("health", start, err) }()

	req, err := c.newRequest(ctx, http.MethodGet, "/health", http.NoBody)
	if err != nil {
		return HealthStatus{}, err
	}
	if _, err = c.do(req, &hs, http.StatusOK, http.StatusServiceUnavailable); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}
