// Package budget implements the budget allocation engine: share
// normalization, bucket ledger arithmetic and the plan-draft wizard state
// machine with its submission gate.
package budget

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/port"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DraftSlot is the logical DraftStore slot name of a wizard draft.
const DraftSlot = "budget-plan-draft"

// Engine owns one plan draft and the wizard step it is on. Every mutation is
// written through to the DraftStore; store failures are logged and ignored.
type Engine struct {
	mu         sync.Mutex
	slot       string
	store      port.DraftStore
	submitter  port.PlanSubmitter
	logger     *zap.Logger
	draft      domain.PlanDraft
	step       domain.Step
	submitting bool

	// rev counts persisted mutations.
	rev uint64
}

// State is a consistent view of an engine taken under one lock.
type State struct {
	Draft      domain.PlanDraft
	Step       domain.Step
	Summary    Summary
	Submitting bool
}

// NewEngine creates an engine bound to slot and rehydrates its draft. A
// missing slot starts an empty draft for the current month, and so does an
// unreadable payload. A failing store is returned as an error so the stored
// draft is never replaced by an empty one.
func NewEngine(ctx context.Context, slot string, store port.DraftStore, submitter port.PlanSubmitter, logger *zap.Logger) (*Engine, error) {
	e := &Engine{
		slot:      slot,
		store:     store,
		submitter: submitter,
		logger:    logger.With(zap.String("slot", slot)),
		step:      domain.StepIncome,
	}
	d, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	e.draft = d
	return e, nil
}

func (e *Engine) load(ctx context.Context) (domain.PlanDraft, error) {
	fresh := domain.EmptyDraft(CurrentYearMonth(time.Now()))

	payload, err := e.store.Load(ctx, e.slot)
	if err != nil {
		return domain.PlanDraft{}, fmt.Errorf("load draft: %w", err)
	}
	if payload == nil {
		return fresh, nil
	}

	d, err := DecodeDraft(payload)
	if err != nil {
		e.logger.Warn("discarding unreadable draft", zap.Error(err))
		return fresh, nil
	}
	return d, nil
}

// persist writes the current draft to the store. Callers hold e.mu.
func (e *Engine) persist(ctx context.Context) {
	e.rev++
	payload, err := EncodeDraft(e.draft)
	if err != nil {
		e.logger.Warn("draft encode failed", zap.Error(err))
		return
	}
	if err := e.store.Save(ctx, e.slot, payload); err != nil {
		e.logger.Warn("draft save failed", zap.Error(err))
	}
}

// ============================================================
// Reads
// ============================================================

// Draft returns a copy of the current draft.
func (e *Engine) Draft() domain.PlanDraft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft.Clone()
}

// Step returns the active wizard step.
func (e *Engine) Step() domain.Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.step
}

// Summary recomputes the recap from the current draft.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Summarize(e.draft)
}

// Snapshot returns draft, step, summary and the submission flag taken under
// a single lock.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Draft:      e.draft.Clone(),
		Step:       e.step,
		Summary:    Summarize(e.draft),
		Submitting: e.submitting,
	}
}

// CanSubmit evaluates the submission gate against the current draft.
func (e *Engine) CanSubmit() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return CanSubmit(e.draft)
}

// Submitting reports whether a submission is outstanding.
func (e *Engine) Submitting() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitting
}

// ============================================================
// Mutations
// ============================================================

// SetNetIncome replaces the net income. Negative input becomes 0.
func (e *Engine) SetNetIncome(ctx context.Context, v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.draft.NetIncome = clampAmount(v)
	e.persist(ctx)
}

// SetShare moves one share slider. It reports false, without writing, when
// the shares would all be zero.
func (e *Engine) SetShare(ctx context.Context, key domain.BucketKey, v float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	next, ok := SetShare(e.draft.BucketsShare, key, v)
	if !ok {
		return false
	}
	e.draft.BucketsShare = next
	e.persist(ctx)
	return true
}

// SetYearMonth changes the month the plan is for.
func (e *Engine) SetYearMonth(ctx context.Context, ym string) error {
	if err := ValidateYearMonth(ym); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.draft.YearMonth = ym
	e.persist(ctx)
	return nil
}

// AddItem appends a line item with a fresh id. A negative amount becomes 0.
// Name emptiness is the caller's concern.
func (e *Engine) AddItem(ctx context.Context, bucket domain.BucketKey, name string, amount float64) (domain.LineItem, error) {
	if !bucket.Valid() {
		return domain.LineItem{}, &domain.ErrValidation{Field: "bucket", Message: fmt.Sprintf("unknown bucket %q", bucket)}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	item := domain.LineItem{
		ID:     uuid.NewString(),
		Name:   name,
		Amount: clampAmount(amount),
		Bucket: bucket,
	}
	e.draft.Items = append(e.draft.Items, item)
	e.persist(ctx)
	return item, nil
}

// AddPreset adds a quick item with a zero amount.
func (e *Engine) AddPreset(ctx context.Context, bucket domain.BucketKey, name string) (domain.LineItem, error) {
	return e.AddItem(ctx, bucket, name, 0)
}

// UpdateItem merges patch into the item with id. It reports false when no
// such item exists.
func (e *Engine) UpdateItem(ctx context.Context, id string, patch domain.LineItemPatch) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.draft.Items {
		if e.draft.Items[i].ID != id {
			continue
		}
		if patch.Name != nil {
			e.draft.Items[i].Name = *patch.Name
		}
		if patch.Amount != nil {
			e.draft.Items[i].Amount = clampAmount(*patch.Amount)
		}
		e.persist(ctx)
		return true
	}
	return false
}

// RemoveItem deletes the item with id. It reports false when no such item exists.
func (e *Engine) RemoveItem(ctx context.Context, id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, it := range e.draft.Items {
		if it.ID != id {
			continue
		}
		items := make([]domain.LineItem, 0, len(e.draft.Items)-1)
		items = append(items, e.draft.Items[:i]...)
		e.draft.Items = append(items, e.draft.Items[i+1:]...)
		e.persist(ctx)
		return true
	}
	return false
}

// Reset replaces the draft with an empty one for ym.
func (e *Engine) Reset(ctx context.Context, ym string) error {
	if err := ValidateYearMonth(ym); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.draft = domain.EmptyDraft(ym)
	e.persist(ctx)
	return nil
}

// ============================================================
// Step transitions
// ============================================================

// Next advances one step. Leaving Income requires a positive net income and
// Discretionary is terminal.
func (e *Engine) Next() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	to := e.step + 1
	switch {
	case e.step == domain.StepDiscretionary:
		return &domain.ErrStepTransition{From: e.step, To: e.step, Reason: "already at the last step"}
	case e.step == domain.StepIncome && e.draft.NetIncome <= 0:
		return &domain.ErrStepTransition{From: e.step, To: to, Reason: "net income must be greater than zero"}
	}
	e.step = to
	return nil
}

// Prev goes back one step. Income has no predecessor.
func (e *Engine) Prev() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.step == domain.StepIncome {
		return &domain.ErrStepTransition{From: e.step, To: e.step, Reason: "already at the first step"}
	}
	e.step--
	return nil
}

// GoTo jumps to step. Any step other than Income needs a positive net income.
func (e *Engine) GoTo(step domain.Step) error {
	if !step.Valid() {
		return &domain.ErrValidation{Field: "step", Message: fmt.Sprintf("unknown step %d", int(step))}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if step != domain.StepIncome && e.draft.NetIncome <= 0 {
		return &domain.ErrStepTransition{From: e.step, To: step, Reason: "net income must be greater than zero"}
	}
	e.step = step
	return nil
}

// ============================================================
// Submission
// ============================================================

// Submit sends the current draft to the backend. Only one submission may be
// outstanding; the lock is not held during the call so the draft stays
// editable. On success the DraftStore slot is cleared, unless the draft was
// edited meanwhile: then the newer draft stays stored. On failure the draft
// is kept and the backend error returned.
func (e *Engine) Submit(ctx context.Context) error {
	e.mu.Lock()
	if e.submitting {
		e.mu.Unlock()
		return &domain.ErrSubmitInFlight{}
	}
	totals := Totals(e.draft.Items)
	if allocated := Allocated(totals); !canSubmit(e.draft.NetIncome, allocated) {
		income := e.draft.NetIncome
		e.mu.Unlock()
		return &domain.ErrSubmitBlocked{NetIncome: income, Allocated: allocated}
	}
	e.submitting = true
	snapshot := e.draft.Clone()
	snapRev := e.rev
	e.mu.Unlock()

	err := e.submitter.SubmitPlan(ctx, snapshot)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.submitting = false

	if err != nil {
		return fmt.Errorf("submit plan: %w", err)
	}
	if e.rev != snapRev {
		e.persist(ctx)
	} else if err := e.store.Clear(ctx, e.slot); err != nil {
		e.logger.Warn("draft clear failed", zap.Error(err))
	}
	e.logger.Info("plan submitted",
		zap.String("year_month", snapshot.YearMonth),
		zap.Int("items", len(snapshot.Items)),
	)
	return nil
}
