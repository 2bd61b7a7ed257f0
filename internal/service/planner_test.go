package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/infra/observability"
	"github.com/boddenberg/budget-planner-bff/internal/service"

	"go.uber.org/zap"
)

func newPlanner(t *testing.T, store *mockStore, sub *mockSubmitter, cats *mockCategoryBackend) (*service.PlannerService, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetrics()
	svc := service.NewPlannerService(store, sub, cats, metrics, zap.NewNop(), service.PlannerConfig{
		SessionTTL:   time.Minute,
		PresetFanout: 2,
	})
	t.Cleanup(svc.Close)
	return svc, metrics
}

func TestPlanner_RequiresSession(t *testing.T) {
	svc, _ := newPlanner(t, newMockStore(), &mockSubmitter{}, &mockCategoryBackend{})

	_, err := svc.View(context.Background())
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPlanner_OneEnginePerUser(t *testing.T) {
	svc, _ := newPlanner(t, newMockStore(), &mockSubmitter{}, &mockCategoryBackend{})

	if _, err := svc.SetNetIncome(userCtx("alice"), 6500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	alice, _ := svc.View(userCtx("alice"))
	bob, _ := svc.View(userCtx("bob"))
	if alice.Draft.NetIncome != 6500 {
		t.Errorf("expected alice income 6500, got %v", alice.Draft.NetIncome)
	}
	if bob.Draft.NetIncome != 0 {
		t.Errorf("expected bob untouched, got %v", bob.Draft.NetIncome)
	}
	if len(alice.Steps) != 4 {
		t.Errorf("expected 4 steps, got %d", len(alice.Steps))
	}
}

func TestPlanner_WritesThroughToUserSlot(t *testing.T) {
	store := newMockStore()
	svc, _ := newPlanner(t, store, &mockSubmitter{}, &mockCategoryBackend{})

	if _, err := svc.AddItem(userCtx("alice"), "essentials", "  Rent  ", 2200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !store.has("budget-plan-draft:alice") {
		t.Fatal("expected draft in slot budget-plan-draft:alice")
	}

	v, _ := svc.View(userCtx("alice"))
	if len(v.Draft.Items) != 1 || v.Draft.Items[0].Name != "Rent" {
		t.Errorf("expected trimmed Rent item, got %+v", v.Draft.Items)
	}
	if v.Summary.Totals.Essentials != 2200 {
		t.Errorf("expected essentials total 2200, got %v", v.Summary.Totals.Essentials)
	}
}

func TestPlanner_RehydratesEvictedSession(t *testing.T) {
	store := newMockStore()
	svc, _ := newPlanner(t, store, &mockSubmitter{}, &mockCategoryBackend{})
	if _, err := svc.SetNetIncome(userCtx("alice"), 4200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A second service sharing the store behaves like a restart.
	other, _ := newPlanner(t, store, &mockSubmitter{}, &mockCategoryBackend{})
	v, err := other.View(userCtx("alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Draft.NetIncome != 4200 {
		t.Errorf("expected rehydrated income 4200, got %v", v.Draft.NetIncome)
	}
}

func TestPlanner_LoadFailureDoesNotStartSession(t *testing.T) {
	store := newMockStore()
	svc, _ := newPlanner(t, store, &mockSubmitter{}, &mockCategoryBackend{})
	if _, err := svc.SetNetIncome(userCtx("alice"), 6500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	restarted, _ := newPlanner(t, store, &mockSubmitter{}, &mockCategoryBackend{})
	store.setLoadErr(errors.New("database is locked"))
	_, err := restarted.SetNetIncome(userCtx("alice"), 100)
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if restarted.DraftStatus("alice") != nil {
		t.Error("expected no session after a failed load")
	}

	store.setLoadErr(nil)
	v, err := restarted.View(userCtx("alice"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Draft.NetIncome != 6500 {
		t.Errorf("expected stored income 6500 to survive, got %v", v.Draft.NetIncome)
	}
}

func TestPlanner_LoadIgnoresCancelledRequest(t *testing.T) {
	store := newMockStore()
	svc, _ := newPlanner(t, store, &mockSubmitter{}, &mockCategoryBackend{})

	ctx, cancel := context.WithCancel(userCtx("alice"))
	cancel()
	if _, err := svc.View(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPlanner_ItemValidation(t *testing.T) {
	svc, _ := newPlanner(t, newMockStore(), &mockSubmitter{}, &mockCategoryBackend{})
	ctx := userCtx("alice")

	var validation *domain.ErrValidation
	if _, err := svc.AddItem(ctx, "essentials", "   ", 10); !errors.As(err, &validation) {
		t.Errorf("expected validation error for blank name, got %v", err)
	}
	if _, err := svc.AddItem(ctx, "luxury", "Yacht", 10); !errors.As(err, &validation) {
		t.Errorf("expected validation error for unknown bucket, got %v", err)
	}

	blank := " "
	if _, err := svc.UpdateItem(ctx, "whatever", domain.LineItemPatch{Name: &blank}); !errors.As(err, &validation) {
		t.Errorf("expected validation error for blank patch name, got %v", err)
	}

	var notFound *domain.ErrNotFound
	if _, err := svc.RemoveItem(ctx, "missing"); !errors.As(err, &notFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPlanner_UpdateAndRemoveItem(t *testing.T) {
	svc, _ := newPlanner(t, newMockStore(), &mockSubmitter{}, &mockCategoryBackend{})
	ctx := userCtx("alice")

	v, _ := svc.AddPreset(ctx, "savings", "Emergency fund")
	id := v.Draft.Items[0].ID

	amount := 300.0
	v, err := svc.UpdateItem(ctx, id, domain.LineItemPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Draft.Items[0].Amount != 300 || v.Draft.Items[0].Name != "Emergency fund" {
		t.Errorf("unexpected item after patch: %+v", v.Draft.Items[0])
	}

	v, err = svc.RemoveItem(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v.Draft.Items) != 0 {
		t.Errorf("expected no items, got %d", len(v.Draft.Items))
	}
}

func TestPlanner_SetShareIgnoresAllZero(t *testing.T) {
	svc, _ := newPlanner(t, newMockStore(), &mockSubmitter{}, &mockCategoryBackend{})
	ctx := userCtx("alice")

	for _, b := range []string{"savings", "discretionary"} {
		if _, err := svc.SetShare(ctx, b, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	v, err := svc.SetShare(ctx, "essentials", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Draft.BucketsShare.Essentials != 1 {
		t.Errorf("expected essentials to keep the whole share, got %+v", v.Draft.BucketsShare)
	}
}

func TestPlanner_ResetKeepsMonthByDefault(t *testing.T) {
	svc, _ := newPlanner(t, newMockStore(), &mockSubmitter{}, &mockCategoryBackend{})
	ctx := userCtx("alice")

	if _, err := svc.SetYearMonth(ctx, "2025-09"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	svc.SetNetIncome(ctx, 1000)

	v, err := svc.Reset(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Draft.YearMonth != "2025-09" || v.Draft.NetIncome != 0 {
		t.Errorf("unexpected draft after reset: %+v", v.Draft)
	}

	var validation *domain.ErrValidation
	if _, err := svc.SetYearMonth(ctx, "2025-13"); !errors.As(err, &validation) {
		t.Errorf("expected validation error for month 13, got %v", err)
	}
}

func TestPlanner_Steps(t *testing.T) {
	svc, _ := newPlanner(t, newMockStore(), &mockSubmitter{}, &mockCategoryBackend{})
	ctx := userCtx("alice")

	var transition *domain.ErrStepTransition
	if _, err := svc.Next(ctx); !errors.As(err, &transition) {
		t.Fatalf("expected step transition error without income, got %v", err)
	}

	svc.SetNetIncome(ctx, 3000)
	v, err := svc.Next(ctx)
	if err != nil || v.Step != domain.StepEssentials {
		t.Fatalf("expected essentials, got %v (%v)", v, err)
	}
	v, err = svc.GoTo(ctx, "discretionary")
	if err != nil || v.Step != domain.StepDiscretionary {
		t.Fatalf("expected discretionary, got %v (%v)", v, err)
	}
	v, err = svc.Prev(ctx)
	if err != nil || v.Step != domain.StepSavings {
		t.Fatalf("expected savings, got %v (%v)", v, err)
	}

	var validation *domain.ErrValidation
	if _, err := svc.GoTo(ctx, "summary"); !errors.As(err, &validation) {
		t.Errorf("expected validation error for unknown step, got %v", err)
	}
}

func TestPlanner_SubmitOutcomes(t *testing.T) {
	store := newMockStore()
	sub := &mockSubmitter{}
	svc, metrics := newPlanner(t, store, sub, &mockCategoryBackend{})
	ctx := userCtx("alice")

	var blocked *domain.ErrSubmitBlocked
	if _, err := svc.Submit(ctx); !errors.As(err, &blocked) {
		t.Fatalf("expected blocked submission, got %v", err)
	}

	svc.SetNetIncome(ctx, 6500)
	svc.AddItem(ctx, "essentials", "Rent", 2200)

	sub.err = &domain.ErrBackendRejected{StatusCode: 500, Message: "plan already exists"}
	_, err := svc.Submit(ctx)
	if err == nil || err.Error() != "submit plan: plan already exists" {
		t.Fatalf("expected verbatim backend message, got %v", err)
	}
	if !store.has("budget-plan-draft:alice") {
		t.Error("failed submission must keep the draft")
	}

	sub.err = nil
	v, err := svc.Submit(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.has("budget-plan-draft:alice") {
		t.Error("successful submission must clear the slot")
	}
	if len(v.Draft.Items) != 1 {
		t.Errorf("in-memory draft should stay, got %d items", len(v.Draft.Items))
	}
	if len(sub.received) != 2 || sub.received[1].NetIncome != 6500 {
		t.Errorf("unexpected submissions: %+v", sub.received)
	}

	snap := metrics.Snapshot()
	if snap.Blocked != 1 || snap.Rejected != 1 || snap.Succeeded != 1 {
		t.Errorf("unexpected submission metrics: %+v", snap)
	}
}

func TestPlanner_SubmitTransportFailureCountsAsError(t *testing.T) {
	sub := &mockSubmitter{err: &domain.ErrExternalService{Service: "backend", Err: errors.New("connection refused")}}
	svc, metrics := newPlanner(t, newMockStore(), sub, &mockCategoryBackend{})
	ctx := userCtx("alice")
	svc.SetNetIncome(ctx, 100)

	if _, err := svc.Submit(ctx); err == nil {
		t.Fatal("expected error")
	}
	if metrics.Snapshot().Failed != 1 {
		t.Errorf("expected one failed submission, got %+v", metrics.Snapshot())
	}
}

func TestPlanner_DraftStatus(t *testing.T) {
	svc, _ := newPlanner(t, newMockStore(), &mockSubmitter{}, &mockCategoryBackend{})

	if st := svc.DraftStatus("alice"); st != nil {
		t.Errorf("expected nil without session, got %+v", st)
	}

	ctx := userCtx("alice")
	svc.SetNetIncome(ctx, 1000)
	svc.AddItem(ctx, "essentials", "Rent", 500)

	st := svc.DraftStatus("alice")
	if st == nil || st.Progress != 50 || st.Items != 1 {
		t.Errorf("unexpected status: %+v", st)
	}
}

func categoriesWithSubs() *mockCategoryBackend {
	return &mockCategoryBackend{
		page: &domain.Page[domain.Category]{Content: []domain.Category{
			{ID: 1, Name: "Home", Active: true},
			{ID: 2, Name: "Old", Active: false},
			{ID: 3, Name: "Fun", Active: true},
		}},
		subs: map[int64]*domain.CategoryWithSubs{
			1: {Category: domain.Category{ID: 1}, Subcategories: []domain.Subcategory{
				{Name: "Groceries", Active: true, Kind: domain.KindEssentials},
				{Name: "Cleaning", Active: true, Kind: domain.KindEssentials},
				{Name: "Retired", Active: false, Kind: domain.KindEssentials},
			}},
			2: {Category: domain.Category{ID: 2}, Subcategories: []domain.Subcategory{
				{Name: "Hidden", Active: true, Kind: domain.KindEssentials},
			}},
			3: {Category: domain.Category{ID: 3}, Subcategories: []domain.Subcategory{
				{Name: "Cinema", Active: true, Kind: domain.KindDiscretionary},
			}},
		},
	}
}

func TestPlanner_PresetsMergeSubcategories(t *testing.T) {
	cats := categoriesWithSubs()
	svc, _ := newPlanner(t, newMockStore(), &mockSubmitter{}, cats)

	got, err := svc.Presets(userCtx("alice"), "essentials")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	has := map[string]bool{}
	for _, n := range got {
		has[n] = true
	}
	if !has["Cleaning"] {
		t.Errorf("expected subcategory Cleaning in %v", got)
	}
	if has["Retired"] || has["Hidden"] || has["Cinema"] {
		t.Errorf("inactive or foreign subcategories leaked into %v", got)
	}

	count := 0
	for _, n := range got {
		if n == "Groceries" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected Groceries once, got %d in %v", count, got)
	}
	if cats.subsCalls != 2 {
		t.Errorf("expected with-subs for the 2 active categories, got %d", cats.subsCalls)
	}
}

func TestPlanner_PresetsDegradeToDefaults(t *testing.T) {
	cats := categoriesWithSubs()
	cats.subsErr = errors.New("backend down")
	svc, _ := newPlanner(t, newMockStore(), &mockSubmitter{}, cats)

	got, err := svc.Presets(userCtx("alice"), "essentials")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, n := range got {
		if n == "Cleaning" {
			t.Errorf("backend failure must return defaults only, got %v", got)
		}
	}
	if len(got) == 0 {
		t.Error("expected default presets")
	}
}
