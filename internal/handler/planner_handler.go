package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/boddenberg/budget-planner-bff/internal/budget"
	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Budget wizard: /api/budget
// ============================================================

// amount accepts a JSON number or a string typed by the user ("12,35").
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := budget.ParseAmount(s)
		if err != nil {
			return err
		}
		*a = amount(v)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return &domain.ErrValidation{Field: "amount", Message: "amount must be a number"}
	}
	if err := budget.CheckAmount(f); err != nil {
		return err
	}
	*a = amount(f)
	return nil
}

type incomeRequest struct {
	NetIncome amount `json:"netIncome"`
}

type monthRequest struct {
	YearMonth string `json:"yearMonth"`
}

type shareRequest struct {
	Value float64 `json:"value"`
}

type itemRequest struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
	Amount amount `json:"amount"`
}

type itemPatchRequest struct {
	Name   *string `json:"name"`
	Amount *amount `json:"amount"`
}

type presetRequest struct {
	Name string `json:"name"`
}

type stepRequest struct {
	Step json.RawMessage `json:"step"`
}

// decodeAmountBody is decodeBody with the amount parse error surfaced as a
// validation error.
func decodeAmountBody(w http.ResponseWriter, r *http.Request, v any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var validation *domain.ErrValidation
		if errors.As(err, &validation) {
			handleServiceError(w, validation, logger)
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func respondView(w http.ResponseWriter, status int, v *service.DraftView, err error, logger *zap.Logger) {
	if err != nil {
		handleServiceError(w, err, logger)
		return
	}
	writeJSON(w, status, v)
}

func getDraftHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/budget/draft")
		defer span.End()

		v, err := svc.View(ctx)
		respondView(w, http.StatusOK, v, err, logger)
	}
}

func setIncomeHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/budget/draft/income")
		defer span.End()

		var req incomeRequest
		if !decodeAmountBody(w, r, &req, logger) {
			return
		}
		v, err := svc.SetNetIncome(ctx, float64(req.NetIncome))
		respondView(w, http.StatusOK, v, err, logger)
	}
}

func setMonthHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/budget/draft/month")
		defer span.End()

		var req monthRequest
		if !decodeBody(w, r, &req, false) {
			return
		}
		v, err := svc.SetYearMonth(ctx, req.YearMonth)
		respondView(w, http.StatusOK, v, err, logger)
	}
}

func setShareHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/budget/draft/shares/{bucket}")
		defer span.End()

		var req shareRequest
		if !decodeBody(w, r, &req, false) {
			return
		}
		v, err := svc.SetShare(ctx, chi.URLParam(r, "bucket"), req.Value)
		respondView(w, http.StatusOK, v, err, logger)
	}
}

func addItemHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/budget/draft/items")
		defer span.End()

		var req itemRequest
		if !decodeAmountBody(w, r, &req, logger) {
			return
		}
		v, err := svc.AddItem(ctx, req.Bucket, req.Name, float64(req.Amount))
		respondView(w, http.StatusCreated, v, err, logger)
	}
}

func updateItemHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /api/budget/draft/items/{id}")
		defer span.End()

		var req itemPatchRequest
		if !decodeAmountBody(w, r, &req, logger) {
			return
		}
		patch := domain.LineItemPatch{Name: req.Name}
		if req.Amount != nil {
			a := float64(*req.Amount)
			patch.Amount = &a
		}
		v, err := svc.UpdateItem(ctx, chi.URLParam(r, "id"), patch)
		respondView(w, http.StatusOK, v, err, logger)
	}
}

func removeItemHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/budget/draft/items/{id}")
		defer span.End()

		v, err := svc.RemoveItem(ctx, chi.URLParam(r, "id"))
		respondView(w, http.StatusOK, v, err, logger)
	}
}

func addPresetHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/budget/draft/presets/{bucket}")
		defer span.End()

		var req presetRequest
		if !decodeBody(w, r, &req, false) {
			return
		}
		v, err := svc.AddPreset(ctx, chi.URLParam(r, "bucket"), req.Name)
		respondView(w, http.StatusCreated, v, err, logger)
	}
}

func resetDraftHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/budget/draft/reset")
		defer span.End()

		var req monthRequest
		if !decodeBody(w, r, &req, true) {
			return
		}
		v, err := svc.Reset(ctx, req.YearMonth)
		respondView(w, http.StatusOK, v, err, logger)
	}
}

func nextStepHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/budget/draft/step/next")
		defer span.End()

		v, err := svc.Next(ctx)
		respondView(w, http.StatusOK, v, err, logger)
	}
}

func prevStepHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/budget/draft/step/prev")
		defer span.End()

		v, err := svc.Prev(ctx)
		respondView(w, http.StatusOK, v, err, logger)
	}
}

func goToStepHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/budget/draft/step")
		defer span.End()

		var req stepRequest
		if !decodeBody(w, r, &req, false) {
			return
		}
		// Accept "savings", "2" or 2.
		step := strings.Trim(string(req.Step), `"`)
		v, err := svc.GoTo(ctx, step)
		respondView(w, http.StatusOK, v, err, logger)
	}
}

func submitDraftHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/budget/draft/submit")
		defer span.End()

		v, err := svc.Submit(ctx)
		respondView(w, http.StatusCreated, v, err, logger)
	}
}

func presetsHandler(svc *service.PlannerService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/budget/presets/{bucket}")
		defer span.End()

		names, err := svc.Presets(ctx, chi.URLParam(r, "bucket"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"presets": names})
	}
}
