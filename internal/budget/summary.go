package budget

import (
	"math"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

// BalanceStatus labels how the allocation relates to net income.
type BalanceStatus string

const (
	StatusRemaining BalanceStatus = "remaining"
	StatusOver      BalanceStatus = "over"
	StatusBalanced  BalanceStatus = "balanced"
)

// LegendRow is one bucket line of the progress legend.
type LegendRow struct {
	Bucket  domain.BucketKey `json:"bucket"`
	Value   float64          `json:"value"`
	Cap     float64          `json:"cap"`
	Percent int              `json:"percent"`
	Over    bool             `json:"over"`
}

// Summary is the always-visible recap of a draft.
type Summary struct {
	YearMonth    string               `json:"yearMonth"`
	NetIncome    float64              `json:"netIncome"`
	Shares       domain.ShareSet      `json:"shares"`
	SharePercent map[string]int       `json:"sharePercent"`
	Caps         domain.BucketAmounts `json:"caps"`
	Totals       domain.BucketAmounts `json:"totals"`
	Remaining    domain.BucketAmounts `json:"remaining"`
	Allocated    float64              `json:"allocated"`
	Left         float64              `json:"left"`
	Over         float64              `json:"over"`
	Progress     int                  `json:"progress"`
	Status       BalanceStatus        `json:"status"`
	CanSubmit    bool                 `json:"canSubmit"`
	Legend       []LegendRow          `json:"legend"`
}

// Summarize derives every displayed figure from d.
func Summarize(d domain.PlanDraft) Summary {
	totals := Totals(d.Items)
	caps := Caps(d.NetIncome, d.BucketsShare)
	shares := Normalized(d.BucketsShare)
	allocated := Allocated(totals)
	left, over := balance(d.NetIncome, allocated)

	s := Summary{
		YearMonth:    d.YearMonth,
		NetIncome:    d.NetIncome,
		Shares:       shares,
		SharePercent: make(map[string]int, len(domain.Buckets)),
		Caps:         caps,
		Totals:       totals,
		Remaining:    Remaining(totals, caps),
		Allocated:    allocated,
		Left:         left,
		Over:         over,
		Progress:     OverallProgress(totals, d.NetIncome),
		CanSubmit:    canSubmit(d.NetIncome, allocated),
		Legend:       make([]LegendRow, 0, len(domain.Buckets)),
	}

	switch {
	case left > 0:
		s.Status = StatusRemaining
	case over > 0:
		s.Status = StatusOver
	default:
		s.Status = StatusBalanced
	}

	for _, k := range domain.Buckets {
		s.SharePercent[string(k)] = int(math.Round(shares.Get(k) * 100))
		pct, isOver := BucketProgress(totals.Get(k), caps.Get(k))
		s.Legend = append(s.Legend, LegendRow{
			Bucket:  k,
			Value:   totals.Get(k),
			Cap:     caps.Get(k),
			Percent: pct,
			Over:    isOver,
		})
	}
	return s
}

// CanSubmit is the submission gate: income is set and nothing is over-allocated.
// An exact balance passes.
func CanSubmit(d domain.PlanDraft) bool {
	return canSubmit(d.NetIncome, Allocated(Totals(d.Items)))
}

func canSubmit(netIncome, allocated float64) bool {
	return netIncome > 0 && dec(allocated).LessThanOrEqual(dec(netIncome))
}

// balance returns max(0, income-allocated) and max(0, allocated-income).
func balance(netIncome, allocated float64) (left, over float64) {
	diff := dec(netIncome).Sub(dec(allocated))
	if diff.IsPositive() {
		return diff.InexactFloat64(), 0
	}
	return 0, diff.Neg().InexactFloat64()
}
