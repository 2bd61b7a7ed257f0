package handler

import (
	"net/http"

	"github.com/boddenberg/budget-planner-bff/internal/service"

	"go.uber.org/zap"
)

func dashboardHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/dashboard")
		defer span.End()

		v, err := svc.Get(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}
