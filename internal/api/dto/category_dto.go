package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	CategoryID  string                     `json:"categoryId"`
	Label       string                     `json:"label"`
	Description string                     `json:"description"`
	SubIssues   map[string]domain.SubIssue `json:"subIssues"`
}

// UpdateCategoryRequest payload; nil fields are left untouched.
type UpdateCategoryRequest struct {
	Label       *string                    `json:"label"`
	Description *string                    `json:"description"`
	SubIssues   map[string]domain.SubIssue `json:"subIssues"`
}

// BulkCategoriesRequest payload for bulk upsert.
type BulkCategoriesRequest struct {
	Categories map[string]CategoryPayload `json:"categories"`
}

// CategoryPayload is one entry of a bulk upsert.
type CategoryPayload struct {
	Label       string                     `json:"label"`
	Description string                     `json:"description"`
	SubIssues   map[string]domain.SubIssue `json:"subIssues"`
}

// CategoryResponse is the wire representation of a category.
type CategoryResponse struct {
	CategoryID  string                     `json:"categoryId"`
	Label       string                     `json:"label"`
	Description string                     `json:"description,omitempty"`
	SubIssues   map[string]domain.SubIssue `json:"subIssues"`
	IsActive    bool                       `json:"isActive"`
	CreatedAt   time.Time                  `json:"createdAt"`
	UpdatedAt   time.Time                  `json:"updatedAt"`
}

// CategorySummary is the compact listing shape keyed by category id.
type CategorySummary struct {
	ID          string                     `json:"id"`
	Label       string                     `json:"label"`
	Description string                     `json:"description,omitempty"`
	SubIssues   map[string]domain.SubIssue `json:"subIssues"`
}
