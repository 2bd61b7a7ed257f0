package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boddenberg/budget-planner-bff/internal/domain"
)

// ListCategories fetches one page of the user's categories.
func (c *BackendClient) ListCategories(ctx context.Context, q domain.CategoryQuery) (*domain.Page[domain.Category], error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("size", strconv.Itoa(q.Size))
	params.Set("search", q.Search)

	var page domain.Page[domain.Category]
	if err := c.do(ctx, call{
		op:     "ListCategories",
		method: http.MethodGet,
		path:   "/api/categories?" + params.Encode(),
		out:    &page,
		cfg:    c.cfg,
	}); err != nil {
		return nil, err
	}
	if page.Content == nil {
		page.Content = []domain.Category{}
	}
	return &page, nil
}

// GetCategoryWithSubs fetches a category and its subcategories.
func (c *BackendClient) GetCategoryWithSubs(ctx context.Context, id int64) (*domain.CategoryWithSubs, error) {
	var out domain.CategoryWithSubs
	if err := c.do(ctx, call{
		op:     "GetCategoryWithSubs",
		method: http.MethodGet,
		path:   fmt.Sprintf("/api/categories/%d/with-subs", id),
		out:    &out,
		cfg:    c.cfg,
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) CreateCategory(ctx context.Context, in *domain.CategoryInput) (*domain.Category, error) {
	var out domain.Category
	if err := c.do(ctx, call{
		op:     "CreateCategory",
		method: http.MethodPost,
		path:   "/api/categories",
		body:   in,
		out:    &out,
		cfg:    c.cfg.WithoutRetries(),
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) UpdateCategory(ctx context.Context, id int64, in *domain.CategoryInput) (*domain.Category, error) {
	var out domain.Category
	if err := c.do(ctx, call{
		op:     "UpdateCategory",
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/categories/%d", id),
		body:   in,
		out:    &out,
		cfg:    c.cfg,
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		op:     "DeleteCategory",
		method: http.MethodDelete,
		path:   fmt.Sprintf("/api/categories/%d", id),
		cfg:    c.cfg,
	})
}

func (c *BackendClient) CreateSubcategory(ctx context.Context, categoryID int64, in *domain.SubcategoryInput) (*domain.Subcategory, error) {
	var out domain.Subcategory
	if err := c.do(ctx, call{
		op:     "CreateSubcategory",
		method: http.MethodPost,
		path:   fmt.Sprintf("/api/categories/%d/subcategories", categoryID),
		body:   in,
		out:    &out,
		cfg:    c.cfg.WithoutRetries(),
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) UpdateSubcategory(ctx context.Context, categoryID, subID int64, in *domain.SubcategoryInput) (*domain.Subcategory, error) {
	var out domain.Subcategory
	if err := c.do(ctx, call{
		op:     "UpdateSubcategory",
		method: http.MethodPut,
		path:   fmt.Sprintf("/api/categories/%d/subcategories/%d", categoryID, subID),
		body:   in,
		out:    &out,
		cfg:    c.cfg,
	}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *BackendClient) DeleteSubcategory(ctx context.Context, categoryID, subID int64) error {
	return c.do(ctx, call{
		op:     "DeleteSubcategory",
		method: http.MethodDelete,
		path:   fmt.Sprintf("/api/categories/%d/subcategories/%d", categoryID, subID),
		cfg:    c.cfg,
	})
}
