package client

import (
	"context"
	"net/http"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

// SubmitPlan posts a finished draft. It is never retried so the backend
// cannot receive the same plan twice.
func (c *BackendClient) SubmitPlan(ctx context.Context, draft domain.PlanDraft) error {
	return c.do(ctx, call{
		op:         "SubmitPlan",
		method:     http.MethodPost,
		path:       "/api/budget/plans",
		body:       draft,
		cfg:        c.cfg.WithoutRetries(),
		rawMessage: true,
	})
}
