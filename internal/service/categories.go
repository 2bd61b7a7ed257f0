package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
	"github.com/boddenberg/budget-planner-bff/internal/infra/observability"
	"github.com/boddenberg/budget-planner-bff/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var categoryTracer = otel.Tracer("service/categories")

const (
	defaultCategoryPageSize = 500
	maxNameLength           = 60
	categoryCacheName       = "categories"
)

var colorPattern = regexp.MustCompile(`^#([0-9a-fA-F]{3}){1,2}$`)

// CategoryService validates category edits and caches listings per user.
type CategoryService struct {
	backend  port.CategoryBackend
	pages    port.Cache[*domain.Page[domain.Category]]
	withSubs port.Cache[*domain.CategoryWithSubs]
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(
	backend port.CategoryBackend,
	pages port.Cache[*domain.Page[domain.Category]],
	withSubs port.Cache[*domain.CategoryWithSubs],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{
		backend:  backend,
		pages:    pages,
		withSubs: withSubs,
		metrics:  metrics,
		logger:   logger,
	}
}

func userPrefix(ctx context.Context) (string, error) {
	sess, ok := domain.SessionFromContext(ctx)
	if !ok || sess.UserID == "" {
		return "", &domain.ErrUnauthorized{Message: "authentication required"}
	}
	return sess.UserID + ":", nil
}

// List returns a page of categories. Size defaults to 500 and the search
// term is trimmed.
func (s *CategoryService) List(ctx context.Context, q domain.CategoryQuery) (*domain.Page[domain.Category], error) {
	ctx, span := categoryTracer.Start(ctx, "CategoryService.List")
	defer span.End()

	prefix, err := userPrefix(ctx)
	if err != nil {
		return nil, err
	}
	if q.Page < 0 {
		q.Page = 0
	}
	if q.Size <= 0 {
		q.Size = defaultCategoryPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	span.SetAttributes(attribute.String("search", q.Search), attribute.Int("page", q.Page))

	key := fmt.Sprintf("%slist:%d:%d:%s", prefix, q.Page, q.Size, strings.ToLower(q.Search))
	if cached, ok := s.pages.Get(key); ok {
		s.metrics.IncrCacheHit(categoryCacheName)
		return cached, nil
	}
	s.metrics.IncrCacheMiss(categoryCacheName)

	start := time.Now()
	page, err := s.backend.ListCategories(ctx, q)
	s.metrics.RecordRequestDuration("list_categories", time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	s.pages.Set(key, page)
	return page, nil
}

// WithSubs returns a category together with its subcategories.
func (s *CategoryService) WithSubs(ctx context.Context, id int64) (*domain.CategoryWithSubs, error) {
	prefix, err := userPrefix(ctx)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%ssubs:%d", prefix, id)
	if cached, ok := s.withSubs.Get(key); ok {
		s.metrics.IncrCacheHit(categoryCacheName)
		return cached, nil
	}
	s.metrics.IncrCacheMiss(categoryCacheName)

	out, err := s.backend.GetCategoryWithSubs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	s.withSubs.Set(key, out)
	return out, nil
}

func (s *CategoryService) Create(ctx context.Context, in *domain.CategoryInput) (*domain.Category, error) {
	ctx, span := categoryTracer.Start(ctx, "CategoryService.Create")
	defer span.End()

	if err := validateCategory(in); err != nil {
		return nil, err
	}
	out, err := s.backend.CreateCategory(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *CategoryService) Update(ctx context.Context, id int64, in *domain.CategoryInput) (*domain.Category, error) {
	if err := validateCategory(in); err != nil {
		return nil, err
	}
	out, err := s.backend.UpdateCategory(ctx, id, in)
	if err != nil {
		return nil, fmt.Errorf("update category %d: %w", id, err)
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if err := s.backend.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *CategoryService) CreateSubcategory(ctx context.Context, categoryID int64, in *domain.SubcategoryInput) (*domain.Subcategory, error) {
	if err := validateSubcategory(in); err != nil {
		return nil, err
	}
	out, err := s.backend.CreateSubcategory(ctx, categoryID, in)
	if err != nil {
		return nil, fmt.Errorf("create subcategory: %w", err)
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *CategoryService) UpdateSubcategory(ctx context.Context, categoryID, subID int64, in *domain.SubcategoryInput) (*domain.Subcategory, error) {
	if err := validateSubcategory(in); err != nil {
		return nil, err
	}
	out, err := s.backend.UpdateSubcategory(ctx, categoryID, subID, in)
	if err != nil {
		return nil, fmt.Errorf("update subcategory %d: %w", subID, err)
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *CategoryService) DeleteSubcategory(ctx context.Context, categoryID, subID int64) error {
	if err := s.backend.DeleteSubcategory(ctx, categoryID, subID); err != nil {
		return fmt.Errorf("delete subcategory %d: %w", subID, err)
	}
	s.invalidate(ctx)
	return nil
}

// invalidate drops every cached listing of the current user.
func (s *CategoryService) invalidate(ctx context.Context) {
	prefix, err := userPrefix(ctx)
	if err != nil {
		return
	}
	s.pages.DeletePrefix(prefix)
	s.withSubs.DeletePrefix(prefix)
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", &domain.ErrValidation{Field: "name", Message: fmt.Sprintf("name must be at most %d characters", maxNameLength)}
	}
	return name, nil
}

func validateCategory(in *domain.CategoryInput) error {
	if in == nil {
		return &domain.ErrValidation{Field: "body", Message: "category is required"}
	}
	name, err := validateName(in.Name)
	if err != nil {
		return err
	}
	in.Name = name
	in.Color = strings.TrimSpace(in.Color)
	if !colorPattern.MatchString(in.Color) {
		return &domain.ErrValidation{Field: "color", Message: "color must be a hex value like #1a2b3c"}
	}
	return nil
}

func validateSubcategory(in *domain.SubcategoryInput) error {
	if in == nil {
		return &domain.ErrValidation{Field: "body", Message: "subcategory is required"}
	}
	name, err := validateName(in.Name)
	if err != nil {
		return err
	}
	in.Name = name
	kind, err := domain.ParseCategoryKind(string(in.Kind))
	if err != nil {
		return err
	}
	in.Kind = kind
	return nil
}
