package domain

import (
	"fmt"
	"strings"
)

// ============================================================
// Budget plan: buckets, shares, line items and the draft
// ============================================================

// BucketKey identifies one of the three fixed spending buckets.
type BucketKey string

const (
	BucketEssentials    BucketKey = "essentials"
	BucketSavings       BucketKey = "savings"
	BucketDiscretionary BucketKey = "discretionary"
)

// Buckets lists every bucket in wizard order.
var Buckets = []BucketKey{BucketEssentials, BucketSavings, BucketDiscretionary}

// Valid reports whether k is one of the fixed buckets.
func (k BucketKey) Valid() bool {
	switch k {
	case BucketEssentials, BucketSavings, BucketDiscretionary:
		return true
	}
	return false
}

// ParseBucket converts user input into a BucketKey.
func ParseBucket(s string) (BucketKey, error) {
	k := BucketKey(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", &ErrValidation{Field: "bucket", Message: fmt.Sprintf("unknown bucket %q", s)}
	}
	return k, nil
}

// BucketAmounts holds one number per bucket (totals, caps, remaining).
type BucketAmounts struct {
	Essentials    float64 `json:"essentials"`
	Savings       float64 `json:"savings"`
	Discretionary float64 `json:"discretionary"`
}

// Get returns the amount for k, 0 for an unknown key.
func (a BucketAmounts) Get(k BucketKey) float64 {
	switch k {
	case BucketEssentials:
		return a.Essentials
	case BucketSavings:
		return a.Savings
	case BucketDiscretionary:
		return a.Discretionary
	}
	return 0
}

// With returns a copy of a with k set to v.
func (a BucketAmounts) With(k BucketKey, v float64) BucketAmounts {
	switch k {
	case BucketEssentials:
		a.Essentials = v
	case BucketSavings:
		a.Savings = v
	case BucketDiscretionary:
		a.Discretionary = v
	}
	return a
}

// Sum adds the three amounts.
func (a BucketAmounts) Sum() float64 {
	return a.Essentials + a.Savings + a.Discretionary
}

// ShareSet maps every bucket to its fraction of net income.
// The three fractions sum to 1.0.
type ShareSet = BucketAmounts

// DefaultShares is the split of a freshly created draft.
var DefaultShares = ShareSet{Essentials: 0.55, Savings: 0.20, Discretionary: 0.25}

// LineItem is a named amount inside a bucket.
type LineItem struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Amount float64   `json:"amount"`
	Bucket BucketKey `json:"bucket"`
}

// LineItemPatch is a partial update of a LineItem. Nil fields are left untouched.
type LineItemPatch struct {
	Name   *string  `json:"name,omitempty"`
	Amount *float64 `json:"amount,omitempty"`
}

// PlanDraft is the in-progress monthly plan. Its JSON form is also the body
// of POST /api/budget/plans.
type PlanDraft struct {
	YearMonth    string     `json:"yearMonth"`
	NetIncome    float64    `json:"netIncome"`
	BucketsShare ShareSet   `json:"bucketsShare"`
	Items        []LineItem `json:"items"`
}

// EmptyDraft returns a draft for yearMonth with default shares, no income and no items.
func EmptyDraft(yearMonth string) PlanDraft {
	return PlanDraft{
		YearMonth:    yearMonth,
		BucketsShare: DefaultShares,
		Items:        []LineItem{},
	}
}

// Clone returns a deep copy of d.
func (d PlanDraft) Clone() PlanDraft {
	out := d
	out.Items = make([]LineItem, len(d.Items))
	copy(out.Items, d.Items)
	return out
}

// ============================================================
// Wizard steps
// ============================================================

// Step is a position in the budget wizard.
type Step int

const (
	StepIncome Step = iota
	StepEssentials
	StepSavings
	StepDiscretionary
)

// Steps lists the wizard steps in order.
var Steps = []Step{StepIncome, StepEssentials, StepSavings, StepDiscretionary}

var stepNames = [...]string{"income", "essentials", "savings", "discretionary"}

func (s Step) String() string {
	if s < StepIncome || s > StepDiscretionary {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	return s >= StepIncome && s <= StepDiscretionary
}

// ParseStep accepts a step name ("savings") or its index ("2").
func ParseStep(v string) (Step, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	for i, name := range stepNames {
		if v == name || v == fmt.Sprint(i) {
			return Step(i), nil
		}
	}
	return 0, &ErrValidation{Field: "step", Message: fmt.Sprintf("unknown step %q", v)}
}

// MarshalText encodes a step by name.
func (s Step) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid step %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText decodes a step name or index.
func (s *Step) UnmarshalText(b []byte) error {
	st, err := ParseStep(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
