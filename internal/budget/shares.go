package budget

import (
	"math"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

// SetShare applies proportional re-normalization: the share of key is
// replaced by value clamped to [0,1], the other two keep their current
// magnitudes, and all three are divided by their new sum. The relative ratio
// of the untouched buckets is therefore preserved.
//
// When the new sum is zero the input is returned unchanged and the second
// result is false.
func SetShare(shares domain.ShareSet, key domain.BucketKey, value float64) (domain.ShareSet, bool) {
	if !key.Valid() {
		return shares, false
	}
	next := shares.With(key, clamp01(value))
	total := next.Sum()
	if total <= 0 || math.IsNaN(total) {
		return shares, false
	}
	return divide(next, total), true
}

// Normalized returns each share divided by the current sum without touching
// the input. Used for display so percentages add up even when the stored
// shares drift from exactly 1.0.
func Normalized(shares domain.ShareSet) domain.ShareSet {
	total := shares.Sum()
	if total <= 0 || math.IsNaN(total) {
		return shares
	}
	return divide(shares, total)
}

func divide(s domain.ShareSet, total float64) domain.ShareSet {
	return domain.ShareSet{
		Essentials:    s.Essentials / total,
		Savings:       s.Savings / total,
		Discretionary: s.Discretionary / total,
	}
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Min(1, math.Max(0, x))
}

// validShares reports whether s can be used as stored shares.
func validShares(s domain.ShareSet) bool {
	for _, k := range domain.Buckets {
		v := s.Get(k)
		if v < 0 || v > 1 || math.IsNaN(v) {
			return false
		}
	}
	return s.Sum() > 0
}
