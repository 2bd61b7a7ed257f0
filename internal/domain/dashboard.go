package domain

// MonthProgress is the planned vs spent figure of the current month.
type MonthProgress struct {
	Planned float64 `json:"planned"`
	Spent   float64 `json:"spent"`
}

// DashboardSummary is returned by the backend's GET /api/dashboard.
type DashboardSummary struct {
	TotalPlans        int            `json:"totalPlans"`
	PlansLast12Months int            `json:"plansLast12Months"`
	CurrentMonth      *MonthProgress `json:"currentMonth"`
}

// DraftStatus describes the user's open wizard draft.
type DraftStatus struct {
	YearMonth string `json:"yearMonth"`
	Progress  int    `json:"progress"`
	Items     int    `json:"items"`
}

// DashboardView is the dashboard payload served to the browser.
type DashboardView struct {
	DashboardSummary
	Percent   int          `json:"percent"`
	Done      float64      `json:"done"`
	Remaining float64      `json:"remaining"`
	Over      float64      `json:"over"`
	Empty     bool         `json:"empty"`
	Draft     *DraftStatus `json:"draft,omitempty"`
}
