package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// CategoriesHandler manages category registry endpoints.
type CategoriesHandler struct {
	service *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categoryService *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{service: categoryService}
}

// ListCategories GET /categories. Active categories only, keyed by id the way
// ticket forms consume them.
func (h *CategoriesHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	keyed := make(map[string]dto.CategorySummary, len(categories))
	for i := range categories {
		cat := &categories[i]
		keyed[cat.CategoryID] = dto.CategorySummary{
			ID:          cat.CategoryID,
			Label:       cat.Label,
			Description: cat.Description,
			SubIssues:   subIssuesOrEmpty(cat.SubIssues),
		}
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(keyed),
		"data":    fiber.Map{"categories": keyed},
	})
}

// GetCategory GET /categories/:id.
func (h *CategoriesHandler) GetCategory(c *fiber.Ctx) error {
	category, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"category": categoryResponse(category)},
	})
}

// CreateCategory POST /categories. Admin only.
func (h *CategoriesHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	category, err := h.service.Create(c.UserContext(), req.CategoryID, service.CategoryInput{
		Label:       req.Label,
		Description: req.Description,
		SubIssues:   req.SubIssues,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"category": categoryResponse(category)},
	})
}

// UpdateCategory PUT /categories/:id. Admin only.
func (h *CategoriesHandler) UpdateCategory(c *fiber.Ctx) error {
	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	category, err := h.service.Update(c.UserContext(), c.Params("id"), service.CategoryPatch{
		Label:       req.Label,
		Description: req.Description,
		SubIssues:   req.SubIssues,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"category": categoryResponse(category)},
	})
}

// DeleteCategory DELETE /categories/:id. Admin only; soft delete.
func (h *CategoriesHandler) DeleteCategory(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data":    fiber.Map{"message": "category deleted successfully"},
	})
}

// BulkUpsertCategories PUT /categories/bulk. Admin only.
func (h *CategoriesHandler) BulkUpsertCategories(c *fiber.Ctx) error {
	var req dto.BulkCategoriesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload")
	}

	inputs := make(map[string]service.CategoryInput, len(req.Categories))
	for id, payload := range req.Categories {
		inputs[id] = service.CategoryInput{
			Label:       payload.Label,
			Description: payload.Description,
			SubIssues:   payload.SubIssues,
		}
	}

	results, err := h.service.BulkUpsert(c.UserContext(), inputs)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(results),
		"data":    fiber.Map{"results": results},
	})
}

func categoryResponse(category *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		CategoryID:  category.CategoryID,
		Label:       category.Label,
		Description: category.Description,
		SubIssues:   subIssuesOrEmpty(category.SubIssues),
		IsActive:    category.IsActive,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}
}

func subIssuesOrEmpty(subIssues map[string]domain.SubIssue) map[string]domain.SubIssue {
	if subIssues == nil {
		return map[string]domain.SubIssue{}
	}
	return subIssues
}
