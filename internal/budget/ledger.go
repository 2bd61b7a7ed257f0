package budget

import (
	"math"

	"github.com/boddenberg/budget-planner-bff/internal/domain"

	"github.com/shopspring/decimal"
)

// The ledger functions are pure: they derive every value from their inputs
// and are safe to call on each read.

// dec converts an amount to a decimal. Non-finite values count as 0.
func dec(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// Totals sums item amounts per bucket. Buckets without items are 0.
func Totals(items []domain.LineItem) domain.BucketAmounts {
	sums := make(map[domain.BucketKey]decimal.Decimal, len(domain.Buckets))
	for _, it := range items {
		if !it.Bucket.Valid() {
			continue
		}
		sums[it.Bucket] = sums[it.Bucket].Add(dec(it.Amount))
	}
	var out domain.BucketAmounts
	for _, k := range domain.Buckets {
		out = out.With(k, sums[k].InexactFloat64())
	}
	return out
}

// Caps computes netIncome × share for every bucket.
func Caps(netIncome float64, shares domain.ShareSet) domain.BucketAmounts {
	income := dec(netIncome)
	var out domain.BucketAmounts
	for _, k := range domain.Buckets {
		out = out.With(k, income.Mul(dec(shares.Get(k))).InexactFloat64())
	}
	return out
}

// Remaining is caps minus totals per bucket. Negative values are overage.
func Remaining(totals, caps domain.BucketAmounts) domain.BucketAmounts {
	var out domain.BucketAmounts
	for _, k := range domain.Buckets {
		v := dec(caps.Get(k)).Sub(dec(totals.Get(k)))
		out = out.With(k, v.InexactFloat64())
	}
	return out
}

// Allocated is the sum of all bucket totals.
func Allocated(totals domain.BucketAmounts) float64 {
	sum := decimal.Zero
	for _, k := range domain.Buckets {
		sum = sum.Add(dec(totals.Get(k)))
	}
	return sum.InexactFloat64()
}

// OverallProgress is min(allocated, netIncome) / max(netIncome, 1) as a
// rounded percentage. The floor of 1 keeps an unset income at 0%.
func OverallProgress(totals domain.BucketAmounts, netIncome float64) int {
	pct := math.Min(Allocated(totals), netIncome) / math.Max(netIncome, 1) * 100
	return clampPercent(math.Round(pct))
}

// BucketProgress reports how much of a bucket cap is used, capped at 100%,
// and whether the bucket is over its cap.
func BucketProgress(value, cap float64) (int, bool) {
	over := value > cap
	if cap <= 0 {
		return 0, over
	}
	return clampPercent(math.Round(value / cap * 100)), over
}

func clampPercent(v float64) int {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}
