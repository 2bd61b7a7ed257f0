package budget

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/boddenberg/budget-planner-bff/internal/domain"

	"github.com/shopspring/decimal"
)

const yearMonthLayout = "2006-01"

// MaxAmount is the largest income or item amount a draft accepts.
const MaxAmount = 1e12

var maxAmount = decimal.NewFromFloat(MaxAmount)

// RoundCents rounds v to two decimal places, half away from zero.
func RoundCents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// clampAmount turns any input into an amount within [0, MaxAmount] with two
// decimals.
func clampAmount(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > MaxAmount {
		return MaxAmount
	}
	return RoundCents(v)
}

// CheckAmount rejects amounts above MaxAmount. Negative values pass, they
// are clamped to 0 later.
func CheckAmount(v float64) error {
	if math.IsNaN(v) || v > MaxAmount {
		return tooLarge()
	}
	return nil
}

func tooLarge() error {
	return &domain.ErrValidation{Field: "amount", Message: fmt.Sprintf("amount must not exceed %s", maxAmount.StringFixed(0))}
}

// ParseAmount reads an amount typed by the user. Commas are accepted as the
// decimal separator, the result is rounded to cents and never negative. An
// empty input is 0.
func ParseAmount(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, &domain.ErrValidation{Field: "amount", Message: fmt.Sprintf("not a number: %q", raw)}
	}
	if d.IsNegative() {
		return 0, nil
	}
	if d.GreaterThan(maxAmount) {
		return 0, tooLarge()
	}
	return d.Round(2).InexactFloat64(), nil
}

// CurrentYearMonth formats t as yyyy-MM.
func CurrentYearMonth(t time.Time) string {
	return t.Format(yearMonthLayout)
}

// ValidateYearMonth checks that ym is a yyyy-MM month identifier.
func ValidateYearMonth(ym string) error {
	if len(ym) != len(yearMonthLayout) {
		return &domain.ErrValidation{Field: "yearMonth", Message: fmt.Sprintf("expected yyyy-MM, got %q", ym)}
	}
	if _, err := time.Parse(yearMonthLayout, ym); err != nil {
		return &domain.ErrValidation{Field: "yearMonth", Message: fmt.Sprintf("expected yyyy-MM, got %q", ym)}
	}
	return nil
}
