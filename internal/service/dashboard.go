package service

import (
	"context"
	"fmt"
	"math"

	"github.com/boddenberg/budget-planner-bff/internal/budget"
	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// DraftReporter reports a user's open wizard draft.
type DraftReporter interface {
	DraftStatus(userID string) *domain.DraftStatus
}

// DashboardService combines the backend plan statistics with the open draft.
type DashboardService struct {
	backend port.DashboardFetcher
	drafts  DraftReporter
	logger  *zap.Logger
}

// NewDashboardService creates a new DashboardService. drafts may be nil.
func NewDashboardService(backend port.DashboardFetcher, drafts DraftReporter, logger *zap.Logger) *DashboardService {
	return &DashboardService{backend: backend, drafts: drafts, logger: logger}
}

func (s *DashboardService) Get(ctx context.Context) (*domain.DashboardView, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Get")
	defer span.End()

	summary, err := s.backend.GetDashboard(ctx)
	if err != nil {
		return nil, fmt.Errorf("get dashboard: %w", err)
	}

	v := DeriveDashboard(*summary)
	if sess, ok := domain.SessionFromContext(ctx); ok && s.drafts != nil {
		v.Draft = s.drafts.DraftStatus(sess.UserID)
	}
	return &v, nil
}

// DeriveDashboard computes the current month figures from a backend summary.
func DeriveDashboard(summary domain.DashboardSummary) domain.DashboardView {
	v := domain.DashboardView{
		DashboardSummary: summary,
		Empty:            summary.TotalPlans == 0,
	}
	if summary.CurrentMonth == nil {
		return v
	}

	planned, spent := summary.CurrentMonth.Planned, summary.CurrentMonth.Spent
	if planned > 0 {
		pct := spent / planned * 100
		v.Percent = int(math.Round(math.Max(0, math.Min(100, pct))))
	}
	v.Done = budget.RoundCents(math.Min(spent, planned))
	v.Remaining = budget.RoundCents(math.Max(planned-spent, 0))
	v.Over = budget.RoundCents(math.Max(spent-planned, 0))
	return v
}
