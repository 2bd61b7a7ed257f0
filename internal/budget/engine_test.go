package budget_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/boddenberg/budget-planner-bff/internal/budget"
	"github.com/boddenberg/budget-planner-bff/internal/domain"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockStore struct {
	mu      sync.Mutex
	slots   map[string][]byte
	saves   int
	clears  int
	saveErr error
	loadErr error
}

func newMockStore() *mockStore {
	return &mockStore{slots: make(map[string][]byte)}
}

func (m *mockStore) Save(_ context.Context, slot string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.slots[slot] = append([]byte(nil), payload...)
	return nil
}

func (m *mockStore) Load(_ context.Context, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.slots[slot], nil
}

func (m *mockStore) Clear(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clears++
	delete(m.slots, slot)
	return nil
}

func (m *mockStore) payload(slot string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[slot]
}

type mockSubmitter struct {
	mu       sync.Mutex
	err      error
	received []domain.PlanDraft
	release  chan struct{}
	started  chan struct{}
}

func (m *mockSubmitter) SubmitPlan(_ context.Context, d domain.PlanDraft) error {
	if m.started != nil {
		m.started <- struct{}{}
	}
	if m.release != nil {
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.received = append(m.received, d)
	return m.err
}

const slot = "budget-plan-draft:user-1"

func newEngine(t *testing.T, store *mockStore, sub *mockSubmitter) *budget.Engine {
	t.Helper()
	if sub == nil {
		sub = &mockSubmitter{}
	}
	e, err := budget.NewEngine(context.Background(), slot, store, sub, zap.NewNop())
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

// --- Tests ---

func TestNewEngine_EmptyDraftDefaults(t *testing.T) {
	e := newEngine(t, newMockStore(), nil)

	d := e.Draft()
	if d.YearMonth != budget.CurrentYearMonth(time.Now()) {
		t.Errorf("expected current month, got %s", d.YearMonth)
	}
	if d.NetIncome != 0 || len(d.Items) != 0 {
		t.Errorf("expected empty draft, got %+v", d)
	}
	if d.BucketsShare != domain.DefaultShares {
		t.Errorf("expected default shares, got %+v", d.BucketsShare)
	}
	if e.Step() != domain.StepIncome {
		t.Errorf("expected income step, got %s", e.Step())
	}
}

func TestEngine_Scenario_CapsAndRent(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newMockStore(), nil)

	e.SetNetIncome(ctx, 6500)
	if _, err := e.AddItem(ctx, domain.BucketEssentials, "Rent", 2200); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	s := e.Summary()
	if s.Caps != (domain.BucketAmounts{Essentials: 3575, Savings: 1300, Discretionary: 1625}) {
		t.Errorf("unexpected caps %+v", s.Caps)
	}
	if s.Totals.Essentials != 2200 {
		t.Errorf("expected essentials total 2200, got %v", s.Totals.Essentials)
	}
	if s.Remaining.Essentials != s.Caps.Essentials-2200 {
		t.Errorf("expected remaining %v, got %v", s.Caps.Essentials-2200, s.Remaining.Essentials)
	}
}

func TestEngine_ClampsNegativeInput(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newMockStore(), nil)

	e.SetNetIncome(ctx, -100)
	if got := e.Draft().NetIncome; got != 0 {
		t.Errorf("expected income clamped to 0, got %v", got)
	}

	item, _ := e.AddItem(ctx, domain.BucketSavings, "ETF", -5)
	if item.Amount != 0 {
		t.Errorf("expected amount clamped to 0, got %v", item.Amount)
	}

	neg := -12.5
	e.UpdateItem(ctx, item.ID, domain.LineItemPatch{Amount: &neg})
	if got := e.Draft().Items[0].Amount; got != 0 {
		t.Errorf("expected patched amount clamped to 0, got %v", got)
	}
}

func TestEngine_AddItemUniqueIDs(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newMockStore(), nil)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		it, err := e.AddItem(ctx, domain.BucketDiscretionary, "Gift", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if it.ID == "" || seen[it.ID] {
			t.Fatalf("expected fresh unique id, got %q", it.ID)
		}
		seen[it.ID] = true
	}
}

func TestEngine_AddItemUnknownBucket(t *testing.T) {
	e := newEngine(t, newMockStore(), nil)

	_, err := e.AddItem(context.Background(), domain.BucketKey("luxury"), "Yacht", 1)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEngine_UpdateItem(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newMockStore(), nil)
	item, _ := e.AddItem(ctx, domain.BucketEssentials, "Food", 300)

	name := "Groceries"
	if !e.UpdateItem(ctx, item.ID, domain.LineItemPatch{Name: &name}) {
		t.Fatal("expected item to be found")
	}
	got := e.Draft().Items[0]
	if got.Name != "Groceries" || got.Amount != 300 {
		t.Errorf("expected name-only patch, got %+v", got)
	}

	before := e.Draft()
	e.UpdateItem(ctx, item.ID, domain.LineItemPatch{})
	if !reflect.DeepEqual(before, e.Draft()) {
		t.Error("expected empty patch to leave the draft unchanged")
	}

	if e.UpdateItem(ctx, "missing", domain.LineItemPatch{Name: &name}) {
		t.Error("expected unknown id to be reported")
	}
}

func TestEngine_RemoveItem(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newMockStore(), nil)
	a, _ := e.AddItem(ctx, domain.BucketEssentials, "A", 1)
	b, _ := e.AddItem(ctx, domain.BucketEssentials, "B", 2)
	c, _ := e.AddItem(ctx, domain.BucketEssentials, "C", 3)

	if !e.RemoveItem(ctx, b.ID) {
		t.Fatal("expected item to be removed")
	}
	items := e.Draft().Items
	if len(items) != 2 || items[0].ID != a.ID || items[1].ID != c.ID {
		t.Errorf("unexpected items after removal: %+v", items)
	}
	if e.RemoveItem(ctx, "missing") {
		t.Error("expected unknown id to be reported")
	}
}

func TestEngine_ResetAndMonth(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newMockStore(), nil)
	e.SetNetIncome(ctx, 5000)
	e.AddItem(ctx, domain.BucketEssentials, "Rent", 1500)
	e.SetShare(ctx, domain.BucketSavings, 0.9)

	if err := e.SetYearMonth(ctx, "2025-13"); err == nil {
		t.Error("expected invalid month to be rejected")
	}
	if err := e.Reset(ctx, "2025-10"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := domain.EmptyDraft("2025-10")
	if got := e.Draft(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestEngine_WriteThroughOnEveryMutation(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	e := newEngine(t, store, nil)

	e.SetNetIncome(ctx, 6500)
	item, _ := e.AddItem(ctx, domain.BucketEssentials, "Rent", 2200)
	e.SetShare(ctx, domain.BucketSavings, 0.5)
	e.RemoveItem(ctx, item.ID)
	e.SetYearMonth(ctx, "2025-11")

	if store.saves != 5 {
		t.Errorf("expected 5 saves, got %d", store.saves)
	}

	stored, err := budget.DecodeDraft(store.payload(slot))
	if err != nil {
		t.Fatalf("expected stored draft to decode, got %v", err)
	}
	if !reflect.DeepEqual(stored, e.Draft()) {
		t.Errorf("expected stored draft %+v to equal in-memory %+v", stored, e.Draft())
	}
}

func TestEngine_ZeroShareEditDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	e := newEngine(t, store, nil)

	e.SetShare(ctx, domain.BucketEssentials, 0)
	e.SetShare(ctx, domain.BucketDiscretionary, 0)
	saves := store.saves

	if e.SetShare(ctx, domain.BucketSavings, 0) {
		t.Fatal("expected all-zero edit to be refused")
	}
	if store.saves != saves {
		t.Error("expected no write for a refused edit")
	}
	if got := e.Draft().BucketsShare; !approx(got.Sum(), 1, tolerance) {
		t.Errorf("expected shares to still sum to 1, got %+v", got)
	}
}

func TestEngine_PersistenceFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.saveErr = errors.New("disk full")
	e := newEngine(t, store, nil)

	e.SetNetIncome(ctx, 1000)
	if got := e.Draft().NetIncome; got != 1000 {
		t.Errorf("expected in-memory income 1000, got %v", got)
	}
}

func TestEngine_Rehydrates(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	first := newEngine(t, store, nil)
	first.SetNetIncome(ctx, 4200.5)
	first.AddItem(ctx, domain.BucketSavings, "Emergency fund", 300)
	first.SetShare(ctx, domain.BucketDiscretionary, 0.4)

	second := newEngine(t, store, nil)
	if !reflect.DeepEqual(first.Draft(), second.Draft()) {
		t.Errorf("expected rehydrated draft %+v, got %+v", first.Draft(), second.Draft())
	}
}

func TestEngine_CorruptDraftFallsBackToEmpty(t *testing.T) {
	payloads := map[string]string{
		"not json":       `{"yearMonth":`,
		"bad month":      `{"yearMonth":"2025-99","netIncome":1,"bucketsShare":{"essentials":0.5,"savings":0.25,"discretionary":0.25},"items":[]}`,
		"unknown bucket": `{"yearMonth":"2025-09","netIncome":1,"bucketsShare":{"essentials":0.5,"savings":0.25,"discretionary":0.25},"items":[{"id":"x","name":"y","amount":1,"bucket":"fun"}]}`,
		"zero shares":    `{"yearMonth":"2025-09","netIncome":1,"bucketsShare":{"essentials":0,"savings":0,"discretionary":0},"items":[]}`,
	}

	for name, payload := range payloads {
		t.Run(name, func(t *testing.T) {
			store := newMockStore()
			store.slots[slot] = []byte(payload)

			e := newEngine(t, store, nil)
			want := domain.EmptyDraft(budget.CurrentYearMonth(time.Now()))
			if got := e.Draft(); !reflect.DeepEqual(got, want) {
				t.Errorf("expected empty draft, got %+v", got)
			}
		})
	}
}

func TestEngine_LoadErrorKeepsStoredDraft(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	first := newEngine(t, store, nil)
	first.SetNetIncome(ctx, 6500)
	first.AddItem(ctx, domain.BucketEssentials, "Rent", 2200)
	stored := append([]byte(nil), store.payload(slot)...)

	store.loadErr = errors.New("database is locked")
	if _, err := budget.NewEngine(ctx, slot, store, &mockSubmitter{}, zap.NewNop()); err == nil {
		t.Fatal("expected load error")
	}
	if !reflect.DeepEqual(store.payload(slot), stored) {
		t.Error("expected stored draft untouched")
	}

	store.loadErr = nil
	again := newEngine(t, store, nil)
	if got := again.Draft(); got.NetIncome != 6500 || len(got.Items) != 1 {
		t.Errorf("expected stored draft after recovery, got %+v", got)
	}
}

func TestEngine_HugeAmountsAreCapped(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newMockStore(), nil)
	e.SetNetIncome(ctx, 1.7e308)
	e.AddItem(ctx, domain.BucketEssentials, "A", 1.7e308)
	e.AddItem(ctx, domain.BucketEssentials, "B", 1.7e308)

	s := e.Summary()
	if e.Draft().NetIncome != budget.MaxAmount {
		t.Errorf("expected income capped at %v, got %v", budget.MaxAmount, e.Draft().NetIncome)
	}
	if s.Totals.Essentials != 2*budget.MaxAmount {
		t.Errorf("expected total %v, got %v", 2*budget.MaxAmount, s.Totals.Essentials)
	}
	if s.Over != budget.MaxAmount {
		t.Errorf("expected over %v, got %v", budget.MaxAmount, s.Over)
	}
}

func TestEngine_RehydratesHugeAmountsCapped(t *testing.T) {
	store := newMockStore()
	store.slots[slot] = []byte(`{"yearMonth":"2025-09","netIncome":1e308,"bucketsShare":{"essentials":0.5,"savings":0.25,"discretionary":0.25},` +
		`"items":[{"id":"a","name":"A","amount":1.7e308,"bucket":"savings"},{"id":"b","name":"B","amount":1.7e308,"bucket":"savings"}]}`)

	e := newEngine(t, store, nil)
	s := e.Summary()
	for _, it := range e.Draft().Items {
		if it.Amount != budget.MaxAmount {
			t.Errorf("expected amount capped, got %v", it.Amount)
		}
	}
	if s.Allocated != 2*budget.MaxAmount {
		t.Errorf("expected allocated %v, got %v", 2*budget.MaxAmount, s.Allocated)
	}
}

func TestEngine_StepTransitions(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newMockStore(), nil)

	var transition *domain.ErrStepTransition
	if err := e.Prev(); !errors.As(err, &transition) {
		t.Errorf("expected retreat from income to fail, got %v", err)
	}
	if err := e.Next(); !errors.As(err, &transition) {
		t.Errorf("expected advance without income to fail, got %v", err)
	}
	if err := e.GoTo(domain.StepSavings); !errors.As(err, &transition) {
		t.Errorf("expected jump without income to fail, got %v", err)
	}
	if err := e.GoTo(domain.StepIncome); err != nil {
		t.Errorf("expected jump to income to succeed, got %v", err)
	}

	e.SetNetIncome(ctx, 3000)
	for _, want := range []domain.Step{domain.StepEssentials, domain.StepSavings, domain.StepDiscretionary} {
		if err := e.Next(); err != nil {
			t.Fatalf("expected advance to %s, got %v", want, err)
		}
		if e.Step() != want {
			t.Fatalf("expected step %s, got %s", want, e.Step())
		}
	}
	if err := e.Next(); !errors.As(err, &transition) {
		t.Errorf("expected no advance past discretionary, got %v", err)
	}

	if err := e.Prev(); err != nil || e.Step() != domain.StepSavings {
		t.Errorf("expected retreat to savings, got step=%s err=%v", e.Step(), err)
	}
	if err := e.GoTo(domain.StepEssentials); err != nil || e.Step() != domain.StepEssentials {
		t.Errorf("expected jump to essentials, got step=%s err=%v", e.Step(), err)
	}
	if err := e.GoTo(domain.Step(9)); err == nil {
		t.Error("expected unknown step to be rejected")
	}
}

func TestEngine_SubmitGate(t *testing.T) {
	ctx := context.Background()
	sub := &mockSubmitter{}
	e := newEngine(t, newMockStore(), sub)

	var blocked *domain.ErrSubmitBlocked
	if err := e.Submit(ctx); !errors.As(err, &blocked) {
		t.Fatalf("expected blocked without income, got %v", err)
	}

	e.SetNetIncome(ctx, 1000)
	item, _ := e.AddItem(ctx, domain.BucketEssentials, "Rent", 1200)
	if e.CanSubmit() {
		t.Error("expected gate to be closed on overage")
	}
	s := e.Summary()
	if s.Left != 0 || s.Over != 200 {
		t.Errorf("expected left 0 over 200, got left=%v over=%v", s.Left, s.Over)
	}
	if err := e.Submit(ctx); !errors.As(err, &blocked) {
		t.Fatalf("expected blocked on overage, got %v", err)
	}

	exact := 1000.0
	e.UpdateItem(ctx, item.ID, domain.LineItemPatch{Amount: &exact})
	if !e.CanSubmit() {
		t.Error("expected exact balance to be submittable")
	}
	if len(sub.received) != 0 {
		t.Errorf("expected no backend calls yet, got %d", len(sub.received))
	}
}

func TestEngine_SubmitSuccessClearsStore(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	sub := &mockSubmitter{}
	e := newEngine(t, store, sub)
	e.SetNetIncome(ctx, 6500)
	e.AddItem(ctx, domain.BucketEssentials, "Rent", 2200)

	if err := e.Submit(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sub.received) != 1 || sub.received[0].NetIncome != 6500 {
		t.Fatalf("expected submitted draft, got %+v", sub.received)
	}
	if store.payload(slot) != nil {
		t.Error("expected draft slot to be cleared")
	}
	if e.Submitting() {
		t.Error("expected no submission in flight")
	}
}

func TestEngine_SubmitFailureKeepsDraft(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	sub := &mockSubmitter{err: &domain.ErrBackendRejected{StatusCode: 400, Message: "Plan for 2025-09 already exists"}}
	e := newEngine(t, store, sub)
	e.SetNetIncome(ctx, 6500)
	before := e.Draft()

	err := e.Submit(ctx)
	var rejected *domain.ErrBackendRejected
	if !errors.As(err, &rejected) {
		t.Fatalf("expected backend rejection, got %v", err)
	}
	if rejected.Message != "Plan for 2025-09 already exists" {
		t.Errorf("expected verbatim message, got %q", rejected.Message)
	}
	if store.clears != 0 || store.payload(slot) == nil {
		t.Error("expected draft slot to be kept")
	}
	if !reflect.DeepEqual(before, e.Draft()) {
		t.Error("expected draft unchanged after failure")
	}
}

func TestEngine_SecondSubmitRejectedWhileInFlight(t *testing.T) {
	ctx := context.Background()
	sub := &mockSubmitter{release: make(chan struct{}), started: make(chan struct{}, 1)}
	e := newEngine(t, newMockStore(), sub)
	e.SetNetIncome(ctx, 100)

	done := make(chan error, 1)
	go func() { done <- e.Submit(ctx) }()
	<-sub.started

	if !e.Submitting() || !e.Snapshot().Submitting {
		t.Error("expected submission in flight")
	}
	var inFlight *domain.ErrSubmitInFlight
	if err := e.Submit(ctx); !errors.As(err, &inFlight) {
		t.Errorf("expected in-flight rejection, got %v", err)
	}

	// Edits stay possible while the request is outstanding.
	e.AddItem(ctx, domain.BucketSavings, "ETF", 10)

	close(sub.release)
	if err := <-done; err != nil {
		t.Fatalf("expected first submit to succeed, got %v", err)
	}
	if len(sub.received) != 1 {
		t.Errorf("expected exactly one backend call, got %d", len(sub.received))
	}
	if len(sub.received[0].Items) != 0 {
		t.Error("expected the submitted snapshot to predate the later edit")
	}
}

func TestEngine_SubmitKeepsEditsMadeInFlight(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	sub := &mockSubmitter{release: make(chan struct{}), started: make(chan struct{}, 1)}
	e := newEngine(t, store, sub)
	e.SetNetIncome(ctx, 100)

	done := make(chan error, 1)
	go func() { done <- e.Submit(ctx) }()
	<-sub.started
	e.AddItem(ctx, domain.BucketSavings, "ETF", 10)
	close(sub.release)
	if err := <-done; err != nil {
		t.Fatalf("expected submit to succeed, got %v", err)
	}

	if store.payload(slot) == nil {
		t.Fatal("expected the edited draft to stay stored")
	}
	again := newEngine(t, store, nil)
	if items := again.Draft().Items; len(items) != 1 || items[0].Name != "ETF" {
		t.Errorf("expected the in-flight edit to be stored, got %+v", items)
	}
}

func TestEngine_SnapshotIsConsistent(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t, newMockStore(), nil)
	e.SetNetIncome(ctx, 6500)
	e.Next()

	st := e.Snapshot()
	if st.Draft.NetIncome != 6500 || st.Step != domain.StepEssentials || st.Summary.NetIncome != 6500 || st.Submitting {
		t.Errorf("unexpected snapshot %+v", st)
	}
}
