package budget_test

import (
	"testing"

	"github.com/boddenberg/budget-planner-bff/internal/budget"
	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

func TestDefaultPresets_ReturnsCopy(t *testing.T) {
	p := budget.DefaultPresets(domain.BucketSavings)
	if len(p) != 3 {
		t.Fatalf("expected 3 savings presets, got %d", len(p))
	}
	p[0] = "changed"
	if budget.DefaultPresets(domain.BucketSavings)[0] == "changed" {
		t.Error("expected defaults to be unaffected by caller edits")
	}
}

func TestMergePresets_Dedupes(t *testing.T) {
	got := budget.MergePresets([]string{"Groceries", "Insurance"}, "groceries", "  ", "Gym", "Gym ")
	want := []string{"Groceries", "Insurance", "Gym"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
