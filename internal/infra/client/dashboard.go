package client

import (
	"context"
	"net/http"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

// GetDashboard fetches the plan statistics of the current user.
func (c *BackendClient) GetDashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	var out domain.DashboardSummary
	if err := c.do(ctx, call{
		op:     "GetDashboard",
		method: http.MethodGet,
		path:   "/api/dashboard",
		out:    &out,
		cfg:    c.cfg,
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping checks that the backend answers at all. Any HTTP response counts.
func (c *BackendClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/dashboard", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.ErrExternalService{Service: serviceName, Err: err}
	}
	resp.Body.Close()
	return nil
}
