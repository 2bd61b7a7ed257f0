package domain

import (
	"fmt"
	"strings"
)

// ============================================================
// Categories & Subcategories (backend contract)
// ============================================================

// Category is a user-defined spending category.
type Category struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Active bool   `json:"active"`
}

// CategoryKind classifies a subcategory into one of the budget buckets.
type CategoryKind string

const (
	KindEssentials    CategoryKind = "ESSENTIALS"
	KindSaving        CategoryKind = "SAVING"
	KindDiscretionary CategoryKind = "DISCRETIONARY"
)

// ParseCategoryKind validates a subcategory kind.
func ParseCategoryKind(s string) (CategoryKind, error) {
	k := CategoryKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case KindEssentials, KindSaving, KindDiscretionary:
		return k, nil
	}
	return "", &ErrValidation{Field: "kind", Message: fmt.Sprintf("unknown kind %q", s)}
}

// Bucket maps the kind onto its budget bucket.
func (k CategoryKind) Bucket() (BucketKey, bool) {
	switch k {
	case KindEssentials:
		return BucketEssentials, true
	case KindSaving:
		return BucketSavings, true
	case KindDiscretionary:
		return BucketDiscretionary, true
	}
	return "", false
}

// Subcategory belongs to a Category and carries the bucket kind.
type Subcategory struct {
	ID         int64        `json:"id"`
	CategoryID int64        `json:"categoryId"`
	Name       string       `json:"name"`
	Active     bool         `json:"active"`
	Kind       CategoryKind `json:"kind"`
}

// CategoryWithSubs is returned by GET /api/categories/{id}/with-subs.
type CategoryWithSubs struct {
	Category
	SubcategoryCount int           `json:"subcategoryCount"`
	Subcategories    []Subcategory `json:"subcategories"`
}

// CategoryInput is the body for creating or updating a category.
type CategoryInput struct {
	Name   string `json:"name"`
	Color  string `json:"color"`
	Active bool   `json:"active"`
}

// SubcategoryInput is the body for creating or updating a subcategory.
type SubcategoryInput struct {
	Name   string       `json:"name"`
	Active bool         `json:"active"`
	Kind   CategoryKind `json:"kind"`
}

// CategoryQuery selects a page of categories.
type CategoryQuery struct {
	Page   int
	Size   int
	Search string
}

// Page mirrors the paged listing envelope returned by the backend.
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
	Empty         bool `json:"empty"`
}
