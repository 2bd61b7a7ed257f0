package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/budget-planner-bff/internal/budget"
	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/infra/cache"
	"github.com/boddenberg/budget-planner-bff/internal/infra/observability"
	"github.com/boddenberg/budget-planner-bff/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var plannerTracer = otel.Tracer("service/planner")

// presetListSize is how many categories are scanned for preset names.
const presetListSize = 500

// draftLoadTimeout bounds the DraftStore read that starts a session.
const draftLoadTimeout = 5 * time.Second

// DraftView is the state returned by every wizard operation.
type DraftView struct {
	Draft      domain.PlanDraft `json:"draft"`
	Step       domain.Step      `json:"step"`
	Steps      []domain.Step    `json:"steps"`
	Summary    budget.Summary   `json:"summary"`
	Submitting bool             `json:"submitting"`
}

// PlannerConfig tunes the planner sessions.
type PlannerConfig struct {
	SessionTTL   time.Duration
	PresetFanout int
}

// PlannerService maps each authenticated user onto one budget engine.
type PlannerService struct {
	sessions     *cache.InMemory[*budget.Engine]
	store        port.DraftStore
	submitter    port.PlanSubmitter
	categories   port.CategoryBackend
	metrics      *observability.Metrics
	logger       *zap.Logger
	presetFanout int
}

// NewPlannerService creates a new PlannerService.
func NewPlannerService(
	store port.DraftStore,
	submitter port.PlanSubmitter,
	categories port.CategoryBackend,
	metrics *observability.Metrics,
	logger *zap.Logger,
	cfg PlannerConfig,
) *PlannerService {
	if cfg.PresetFanout < 1 {
		cfg.PresetFanout = 1
	}
	return &PlannerService{
		sessions:     cache.New[*budget.Engine](cfg.SessionTTL, cache.WithSlidingExpiry()),
		store:        store,
		submitter:    submitter,
		categories:   categories,
		metrics:      metrics,
		logger:       logger,
		presetFanout: cfg.PresetFanout,
	}
}

// Close stops the session janitor.
func (s *PlannerService) Close() {
	s.sessions.Close()
}

// SlotFor returns the DraftStore slot of a user's draft.
func SlotFor(userID string) string {
	return budget.DraftSlot + ":" + userID
}

// engine returns the user's engine, rehydrating it from the store on first use.
func (s *PlannerService) engine(ctx context.Context) (*budget.Engine, error) {
	sess, ok := domain.SessionFromContext(ctx)
	if !ok || sess.UserID == "" {
		return nil, &domain.ErrUnauthorized{Message: "authentication required"}
	}

	if e, ok := s.sessions.Get(sess.UserID); ok {
		return e, nil
	}

	// The store is read outside the session cache lock and detached from the
	// request, so a cancelled request cannot fail the load.
	loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), draftLoadTimeout)
	defer cancel()
	fresh, err := budget.NewEngine(loadCtx, SlotFor(sess.UserID), s.store, s.submitter, s.logger)
	if err != nil {
		s.logger.Warn("draft load failed, session not started", zap.String("user_id", sess.UserID), zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "draft-store", Err: err}
	}

	// A concurrent request may have started the session first; keep that one.
	e := s.sessions.GetOrSet(sess.UserID, func() *budget.Engine {
		s.logger.Debug("starting wizard session", zap.String("user_id", sess.UserID))
		return fresh
	})
	s.metrics.SetActiveSessions(s.sessions.Len())
	return e, nil
}

func view(e *budget.Engine) *DraftView {
	st := e.Snapshot()
	return &DraftView{
		Draft:      st.Draft,
		Step:       st.Step,
		Steps:      domain.Steps,
		Summary:    st.Summary,
		Submitting: st.Submitting,
	}
}

// withEngine runs fn against the user's engine and returns the resulting view.
func (s *PlannerService) withEngine(ctx context.Context, fn func(e *budget.Engine) error) (*DraftView, error) {
	e, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}
	if err := fn(e); err != nil {
		return nil, err
	}
	return view(e), nil
}

// View returns the current draft, step and summary.
func (s *PlannerService) View(ctx context.Context) (*DraftView, error) {
	return s.withEngine(ctx, func(*budget.Engine) error { return nil })
}

func (s *PlannerService) SetNetIncome(ctx context.Context, v float64) (*DraftView, error) {
	return s.withEngine(ctx, func(e *budget.Engine) error {
		e.SetNetIncome(ctx, v)
		return nil
	})
}

func (s *PlannerService) SetYearMonth(ctx context.Context, ym string) (*DraftView, error) {
	return s.withEngine(ctx, func(e *budget.Engine) error {
		return e.SetYearMonth(ctx, strings.TrimSpace(ym))
	})
}

// SetShare moves one share slider. An edit that would zero every share is
// ignored and the unchanged view returned.
func (s *PlannerService) SetShare(ctx context.Context, bucket string, v float64) (*DraftView, error) {
	key, err := domain.ParseBucket(bucket)
	if err != nil {
		return nil, err
	}
	return s.withEngine(ctx, func(e *budget.Engine) error {
		if !e.SetShare(ctx, key, v) {
			s.logger.Debug("share edit ignored, shares would sum to zero", zap.String("bucket", string(key)))
		}
		return nil
	})
}

func (s *PlannerService) AddItem(ctx context.Context, bucket, name string, amount float64) (*DraftView, error) {
	key, err := domain.ParseBucket(bucket)
	if err != nil {
		return nil, err
	}
	name, err = itemName(name)
	if err != nil {
		return nil, err
	}
	return s.withEngine(ctx, func(e *budget.Engine) error {
		_, err := e.AddItem(ctx, key, name, amount)
		return err
	})
}

func (s *PlannerService) AddPreset(ctx context.Context, bucket, name string) (*DraftView, error) {
	key, err := domain.ParseBucket(bucket)
	if err != nil {
		return nil, err
	}
	name, err = itemName(name)
	if err != nil {
		return nil, err
	}
	return s.withEngine(ctx, func(e *budget.Engine) error {
		_, err := e.AddPreset(ctx, key, name)
		return err
	})
}

func (s *PlannerService) UpdateItem(ctx context.Context, id string, patch domain.LineItemPatch) (*DraftView, error) {
	if patch.Name != nil {
		name, err := itemName(*patch.Name)
		if err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	return s.withEngine(ctx, func(e *budget.Engine) error {
		if !e.UpdateItem(ctx, id, patch) {
			return &domain.ErrNotFound{Resource: "item", ID: id}
		}
		return nil
	})
}

func (s *PlannerService) RemoveItem(ctx context.Context, id string) (*DraftView, error) {
	return s.withEngine(ctx, func(e *budget.Engine) error {
		if !e.RemoveItem(ctx, id) {
			return &domain.ErrNotFound{Resource: "item", ID: id}
		}
		return nil
	})
}

// Reset empties the draft. An empty ym keeps the draft's month.
func (s *PlannerService) Reset(ctx context.Context, ym string) (*DraftView, error) {
	return s.withEngine(ctx, func(e *budget.Engine) error {
		month := strings.TrimSpace(ym)
		if month == "" {
			month = e.Draft().YearMonth
		}
		return e.Reset(ctx, month)
	})
}

func (s *PlannerService) Next(ctx context.Context) (*DraftView, error) {
	return s.withEngine(ctx, func(e *budget.Engine) error { return e.Next() })
}

func (s *PlannerService) Prev(ctx context.Context) (*DraftView, error) {
	return s.withEngine(ctx, func(e *budget.Engine) error { return e.Prev() })
}

func (s *PlannerService) GoTo(ctx context.Context, step string) (*DraftView, error) {
	st, err := domain.ParseStep(step)
	if err != nil {
		return nil, err
	}
	return s.withEngine(ctx, func(e *budget.Engine) error { return e.GoTo(st) })
}

// Submit sends the draft to the backend and records the outcome.
func (s *PlannerService) Submit(ctx context.Context) (*DraftView, error) {
	ctx, span := plannerTracer.Start(ctx, "PlannerService.Submit")
	defer span.End()

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration("submit_plan", time.Since(start))
	}()

	e, err := s.engine(ctx)
	if err != nil {
		return nil, err
	}

	if err := e.Submit(ctx); err != nil {
		outcome := submitOutcome(err)
		s.metrics.IncrSubmission(outcome)
		span.RecordError(err)
		span.SetAttributes(attribute.String("submit.outcome", outcome))
		s.logger.Warn("plan submission failed", zap.String("outcome", outcome), zap.Error(err))
		return nil, err
	}

	s.metrics.IncrSubmission(observability.SubmitSucceeded)
	span.SetAttributes(attribute.String("submit.outcome", observability.SubmitSucceeded))
	return view(e), nil
}

func submitOutcome(err error) string {
	var (
		blocked      *domain.ErrSubmitBlocked
		inFlight     *domain.ErrSubmitInFlight
		rejected     *domain.ErrBackendRejected
		validation   *domain.ErrValidation
		conflict     *domain.ErrConflict
		forbidden    *domain.ErrForbidden
		unauthorized *domain.ErrUnauthorized
		notFound     *domain.ErrNotFound
	)
	switch {
	case errors.As(err, &blocked):
		return observability.SubmitBlocked
	case errors.As(err, &inFlight):
		return observability.SubmitInFlight
	case errors.As(err, &rejected), errors.As(err, &validation), errors.As(err, &conflict),
		errors.As(err, &forbidden), errors.As(err, &unauthorized), errors.As(err, &notFound):
		return observability.SubmitRejected
	}
	return observability.SubmitFailed
}

// DraftStatus reports the open draft of a user with a live session, nil otherwise.
func (s *PlannerService) DraftStatus(userID string) *domain.DraftStatus {
	e, ok := s.sessions.Get(userID)
	if !ok {
		return nil
	}
	st := e.Snapshot()
	return &domain.DraftStatus{
		YearMonth: st.Draft.YearMonth,
		Progress:  st.Summary.Progress,
		Items:     len(st.Draft.Items),
	}
}

// Presets returns the quick item names of a bucket: the defaults followed by
// the user's active subcategories of the matching kind. Backend failures
// degrade to the defaults.
func (s *PlannerService) Presets(ctx context.Context, bucket string) ([]string, error) {
	key, err := domain.ParseBucket(bucket)
	if err != nil {
		return nil, err
	}

	ctx, span := plannerTracer.Start(ctx, "PlannerService.Presets")
	defer span.End()
	span.SetAttributes(attribute.String("bucket", string(key)))

	defaults := budget.DefaultPresets(key)
	if s.categories == nil {
		return defaults, nil
	}

	extra, err := s.subcategoryNames(ctx, key)
	if err != nil {
		s.logger.Warn("preset lookup failed, using defaults", zap.String("bucket", string(key)), zap.Error(err))
		return defaults, nil
	}
	return budget.MergePresets(defaults, extra...), nil
}

func (s *PlannerService) subcategoryNames(ctx context.Context, key domain.BucketKey) ([]string, error) {
	page, err := s.categories.ListCategories(ctx, domain.CategoryQuery{Size: presetListSize})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	var active []domain.Category
	for _, c := range page.Content {
		if c.Active {
			active = append(active, c)
		}
	}

	// One slot per category keeps the output order stable.
	found := make([][]string, len(active))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.presetFanout)
	for i, c := range active {
		g.Go(func() error {
			full, err := s.categories.GetCategoryWithSubs(gctx, c.ID)
			if err != nil {
				return fmt.Errorf("category %d: %w", c.ID, err)
			}
			for _, sub := range full.Subcategories {
				if b, ok := sub.Kind.Bucket(); ok && b == key && sub.Active {
					found[i] = append(found[i], sub.Name)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var names []string
	for _, group := range found {
		names = append(names, group...)
	}
	return names, nil
}

func itemName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	return name, nil
}
