package handler

import (
	"net/http"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Categories: /api/categories
// ============================================================

func listCategoriesHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/categories")
		defer span.End()

		q := domain.CategoryQuery{
			Page:   queryInt(r, "page", 0),
			Size:   queryInt(r, "size", 0),
			Search: r.URL.Query().Get("search"),
		}
		page, err := svc.List(ctx, q)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func createCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/categories")
		defer span.End()

		var req domain.CategoryInput
		if !decodeBody(w, r, &req, false) {
			return
		}
		out, err := svc.Create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func categoryWithSubsHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/categories/{id}/with-subs")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		out, err := svc.WithSubs(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/categories/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req domain.CategoryInput
		if !decodeBody(w, r, &req, false) {
			return
		}
		out, err := svc.Update(ctx, id, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteCategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/categories/{id}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		if err := svc.Delete(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func createSubcategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/categories/{id}/subcategories")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		var req domain.SubcategoryInput
		if !decodeBody(w, r, &req, false) {
			return
		}
		out, err := svc.CreateSubcategory(ctx, id, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func updateSubcategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/categories/{id}/subcategories/{subId}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		subID, ok := pathID(w, r, "subId")
		if !ok {
			return
		}
		var req domain.SubcategoryInput
		if !decodeBody(w, r, &req, false) {
			return
		}
		out, err := svc.UpdateSubcategory(ctx, id, subID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func deleteSubcategoryHandler(svc *service.CategoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/categories/{id}/subcategories/{subId}")
		defer span.End()

		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		subID, ok := pathID(w, r, "subId")
		if !ok {
			return
		}
		if err := svc.DeleteSubcategory(ctx, id, subID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
