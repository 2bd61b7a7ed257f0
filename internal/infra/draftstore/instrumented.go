package draftstore

import (
	"context"

	"github.com/boddenberg/budget-planner-bff/internal/infra/observability"
	"github.com/boddenberg/budget-planner-bff/internal/port"
)

// Instrumented counts failed store operations before passing errors on.
type Instrumented struct {
	next    port.DraftStore
	metrics *observability.Metrics
}

// WithMetrics wraps next so its failures show up in the draft store error counter.
func WithMetrics(next port.DraftStore, metrics *observability.Metrics) *Instrumented {
	return &Instrumented{next: next, metrics: metrics}
}

func (s *Instrumented) Save(ctx context.Context, slot string, payload []byte) error {
	err := s.next.Save(ctx, slot, payload)
	if err != nil {
		s.metrics.IncrDraftStoreError("save")
	}
	return err
}

func (s *Instrumented) Load(ctx context.Context, slot string) ([]byte, error) {
	p, err := s.next.Load(ctx, slot)
	if err != nil {
		s.metrics.IncrDraftStoreError("load")
	}
	return p, err
}

func (s *Instrumented) Clear(ctx context.Context, slot string) error {
	err := s.next.Clear(ctx, slot)
	if err != nil {
		s.metrics.IncrDraftStoreError("clear")
	}
	return err
}
