package observability

import (
	"time"

	"github.com/boddenberg/budget-planner-bff/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Submission outcomes used as label values.
const (
	SubmitSucceeded = "success"
	SubmitRejected  = "rejected"
	SubmitBlocked   = "blocked"
	SubmitInFlight  = "in_flight"
	SubmitFailed    = "error"
)

// Metrics holds all Prometheus metrics for the BFF.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration  *prometheus.HistogramVec
	externalErrors   *prometheus.CounterVec
	cacheHits        *prometheus.CounterVec
	cacheMisses      *prometheus.CounterVec
	submissions      *prometheus.CounterVec
	draftStoreErrors *prometheus.CounterVec
	activeSessions   prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "budget_bff_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_bff_backend_errors_total",
				Help: "Total failed calls to the budgeting backend.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_bff_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_bff_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_bff_plan_submissions_total",
				Help: "Plan submission attempts by outcome.",
			},
			[]string{"outcome"},
		),
		draftStoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "budget_bff_draft_store_errors_total",
				Help: "Failed draft store operations. Drafts stay usable in memory.",
			},
			[]string{"op"},
		),
		activeSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "budget_bff_wizard_sessions",
				Help: "Wizard sessions currently held in memory.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the backend error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSubmission counts a plan submission attempt with its outcome.
func (m *Metrics) IncrSubmission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

// IncrDraftStoreError counts a failed draft store operation.
func (m *Metrics) IncrDraftStoreError(op string) {
	m.draftStoreErrors.WithLabelValues(op).Inc()
}

// SetActiveSessions reports how many wizard sessions are cached.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// Snapshot returns the planner counters for GET /metrics/planner.
func (m *Metrics) Snapshot() *domain.PlannerMetrics {
	succeeded := getCounterValue(m.submissions, SubmitSucceeded)
	rejected := getCounterValue(m.submissions, SubmitRejected)
	blocked := getCounterValue(m.submissions, SubmitBlocked)
	inFlight := getCounterValue(m.submissions, SubmitInFlight)
	failed := getCounterValue(m.submissions, SubmitFailed)
	total := succeeded + rejected + blocked + inFlight + failed

	storeErrors := getCounterValue(m.draftStoreErrors, "save") +
		getCounterValue(m.draftStoreErrors, "load") +
		getCounterValue(m.draftStoreErrors, "clear")

	hits := getCounterValue(m.cacheHits, "categories")
	misses := getCounterValue(m.cacheMisses, "categories")

	snap := &domain.PlannerMetrics{
		Submissions:      int64(total),
		Succeeded:        int64(succeeded),
		Rejected:         int64(rejected),
		Blocked:          int64(blocked),
		InFlightRejected: int64(inFlight),
		Failed:           int64(failed),
		DraftStoreErrors: int64(storeErrors),
	}
	if total > 0 {
		snap.SuccessRate = succeeded / total
	}
	if hits+misses > 0 {
		snap.CategoryCacheRate = hits / (hits + misses)
	}
	return snap
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
