package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/infra/observability"

	"go.uber.org/zap"
)

// Pinger is a dependency that can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

const healthTimeout = 2 * time.Second

func probe(ctx context.Context, checks map[string]Pinger) []domain.ServiceHealth {
	now := time.Now().Format(time.RFC3339)
	services := []domain.ServiceHealth{
		{Name: "budget-planner-bff", Status: "healthy", LastChecked: now},
	}

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(ctx, healthTimeout)
		start := time.Now()
		err := checks[name].Ping(ctx)
		cancel()

		status := "healthy"
		if err != nil {
			status = "degraded"
		}
		services = append(services, domain.ServiceHealth{
			Name:        name,
			Status:      status,
			LatencyMs:   time.Since(start).Milliseconds(),
			LastChecked: now,
		})
	}
	return services
}

func healthzHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		services := probe(r.Context(), checks)

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler(checks map[string]Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, s := range probe(r.Context(), checks) {
			if s.Status != "healthy" {
				logger.Warn("not ready", zap.String("dependency", s.Name))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "dependency": s.Name})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func plannerMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
