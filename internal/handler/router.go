package handler

import (
	"net/http"

	"github.com/boddenberg/budget-planner-bff/internal/infra/observability"
	"github.com/boddenberg/budget-planner-bff/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles what the router exposes. Nil services leave their routes
// unmounted; without Auth no /api route is mounted at all.
type Services struct {
	Planner    *service.PlannerService
	Categories *service.CategoryService
	Auth       *service.AuthService
	Dashboard  *service.DashboardService
	// Checks are probed by /healthz and /readyz, keyed by dependency name.
	Checks map[string]Pinger
	// CookieSecure marks the access_token cookie Secure.
	CookieSecure bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Checks))
	r.Get("/readyz", readyzHandler(svc.Checks, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/metrics/planner", plannerMetricsHandler(metrics))

	if svc.Auth == nil {
		return r
	}

	guard := AuthGuard(svc.Auth, logger)

	// --- Public auth endpoints ---
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authLoginHandler(svc.Auth, svc.CookieSecure, logger))
		r.Post("/register", authRegisterHandler(svc.Auth, logger))
		r.Post("/logout", authLogoutHandler(svc.CookieSecure))
		r.Post("/password-strength", passwordStrengthHandler())
	})

	// --- Protected API ---
	r.Group(func(r chi.Router) {
		r.Use(guard)

		if p := svc.Planner; p != nil {
			r.Route("/api/budget/draft", func(r chi.Router) {
				r.Get("/", getDraftHandler(p, logger))
				r.Put("/income", setIncomeHandler(p, logger))
				r.Put("/month", setMonthHandler(p, logger))
				r.Put("/shares/{bucket}", setShareHandler(p, logger))
				r.Post("/items", addItemHandler(p, logger))
				r.Patch("/items/{id}", updateItemHandler(p, logger))
				r.Delete("/items/{id}", removeItemHandler(p, logger))
				r.Post("/presets/{bucket}", addPresetHandler(p, logger))
				r.Post("/reset", resetDraftHandler(p, logger))
				r.Post("/step/next", nextStepHandler(p, logger))
				r.Post("/step/prev", prevStepHandler(p, logger))
				r.Put("/step", goToStepHandler(p, logger))
				r.Post("/submit", submitDraftHandler(p, logger))
			})
			r.Get("/api/budget/presets/{bucket}", presetsHandler(p, logger))
		}

		if c := svc.Categories; c != nil {
			r.Route("/api/categories", func(r chi.Router) {
				r.Get("/", listCategoriesHandler(c, logger))
				r.Post("/", createCategoryHandler(c, logger))
				r.Get("/{id}/with-subs", categoryWithSubsHandler(c, logger))
				r.Put("/{id}", updateCategoryHandler(c, logger))
				r.Delete("/{id}", deleteCategoryHandler(c, logger))
				r.Post("/{id}/subcategories", createSubcategoryHandler(c, logger))
				r.Put("/{id}/subcategories/{subId}", updateSubcategoryHandler(c, logger))
				r.Delete("/{id}/subcategories/{subId}", deleteSubcategoryHandler(c, logger))
			})
		}

		if d := svc.Dashboard; d != nil {
			r.Get("/api/dashboard", dashboardHandler(d, logger))
		}
	})

	// Unknown pages still go through the guard so anonymous visitors land on
	// the login page.
	r.NotFound(guard(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})).ServeHTTP)

	return r
}
