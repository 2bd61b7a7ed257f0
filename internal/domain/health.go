package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// PlannerMetrics is returned by GET /metrics/planner.
type PlannerMetrics struct {
	Submissions       int64   `json:"submissions"`
	Succeeded         int64   `json:"succeeded"`
	Rejected          int64   `json:"rejected"`
	Blocked           int64   `json:"blocked"`
	InFlightRejected  int64   `json:"inFlightRejected"`
	Failed            int64   `json:"failed"`
	SuccessRate       float64 `json:"successRate"`
	DraftStoreErrors  int64   `json:"draftStoreErrors"`
	CategoryCacheRate float64 `json:"categoryCacheHitRate"`
}
