package budget

import (
	"encoding/json"
	"fmt"

	"github.com/boddenberg/budget-planner-bff/internal/domain"

	"github.com/google/uuid"
)

// EncodeDraft serializes d in the wire format used for storage and submission.
func EncodeDraft(d domain.PlanDraft) ([]byte, error) {
	if d.Items == nil {
		d.Items = []domain.LineItem{}
	}
	return json.Marshal(d)
}

// DecodeDraft parses a stored draft and rejects payloads that break the
// draft invariants. Item amounts are re-clamped and missing ids regenerated.
func DecodeDraft(payload []byte) (domain.PlanDraft, error) {
	var d domain.PlanDraft
	if err := json.Unmarshal(payload, &d); err != nil {
		return domain.PlanDraft{}, fmt.Errorf("decode draft: %w", err)
	}
	if err := ValidateYearMonth(d.YearMonth); err != nil {
		return domain.PlanDraft{}, err
	}
	if !validShares(d.BucketsShare) {
		return domain.PlanDraft{}, &domain.ErrValidation{Field: "bucketsShare", Message: "shares must be within [0,1] with a positive sum"}
	}
	d.NetIncome = clampAmount(d.NetIncome)
	items := make([]domain.LineItem, 0, len(d.Items))
	for _, it := range d.Items {
		if !it.Bucket.Valid() {
			return domain.PlanDraft{}, &domain.ErrValidation{Field: "items.bucket", Message: fmt.Sprintf("unknown bucket %q", it.Bucket)}
		}
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		it.Amount = clampAmount(it.Amount)
		items = append(items, it)
	}
	d.Items = items
	return d, nil
}
