// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the budget engine
// and the service layer from concrete adapters.
package port

import (
	"context"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

// DraftStore is a key-value slot store for serialized plan drafts.
// Load returns a nil payload and no error when the slot is empty.
type DraftStore interface {
	Save(ctx context.Context, slot string, payload []byte) error
	Load(ctx context.Context, slot string) ([]byte, error)
	Clear(ctx context.Context, slot string) error
}

// PlanSubmitter sends a finished draft to the budgeting backend.
type PlanSubmitter interface {
	SubmitPlan(ctx context.Context, draft domain.PlanDraft) error
}

// AuthBackend forwards credentials to the backend.
type AuthBackend interface {
	Login(ctx context.Context, req *domain.LoginRequest) (string, error)
	Register(ctx context.Context, req *domain.RegisterRequest) error
}

// CategoryBackend manages categories and subcategories on the backend.
type CategoryBackend interface {
	ListCategories(ctx context.Context, q domain.CategoryQuery) (*domain.Page[domain.Category], error)
	GetCategoryWithSubs(ctx context.Context, id int64) (*domain.CategoryWithSubs, error)
	CreateCategory(ctx context.Context, in *domain.CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, in *domain.CategoryInput) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CreateSubcategory(ctx context.Context, categoryID int64, in *domain.SubcategoryInput) (*domain.Subcategory, error)
	UpdateSubcategory(ctx context.Context, categoryID, subID int64, in *domain.SubcategoryInput) (*domain.Subcategory, error)
	DeleteSubcategory(ctx context.Context, categoryID, subID int64) error
}

// DashboardFetcher retrieves the dashboard summary.
type DashboardFetcher interface {
	GetDashboard(ctx context.Context) (*domain.DashboardSummary, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string)
	GetOrSet(key string, create func() T) T
}
