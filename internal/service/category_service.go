package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	activeCategoriesKey = "categories:active"
	categoryCacheTTL    = 5 * time.Minute
)

// CategoryService manages the category registry. The active set is
// read-mostly, so listings go through a Redis read-through cache that writes
// invalidate.
type CategoryService struct {
	categories repository.CategoryRepository
	cache      *redis.Client
	logger     *zap.Logger
}

// NewCategoryService constructs the service. cache may be nil; caching is
// then skipped entirely.
func NewCategoryService(categories repository.CategoryRepository, cache *redis.Client, logger *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, cache: cache, logger: logger}
}

// CategoryInput describes a category create/upsert payload.
type CategoryInput struct {
	Label       string
	Description string
	SubIssues   map[string]domain.SubIssue
}

// CategoryPatch carries optional update fields.
type CategoryPatch struct {
	Label       *string
	Description *string
	SubIssues   map[string]domain.SubIssue
}

// UpsertResult reports what happened to one category id during a bulk upsert.
type UpsertResult struct {
	CategoryID string `json:"categoryId"`
	Action     string `json:"action"`
}

// ListActive returns the active categories, cache first.
func (s *CategoryService) ListActive(ctx context.Context) ([]domain.Category, error) {
	if cached, ok := s.cachedActive(ctx); ok {
		return cached, nil
	}

	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	s.storeActive(ctx, categories)
	return categories, nil
}

// Get fetches a category by its stable id, active or not.
func (s *CategoryService) Get(ctx context.Context, categoryID string) (*domain.Category, error) {
	category, err := s.categories.GetByCategoryID(ctx, categoryID)
	if err != nil {
		return nil, notFoundOr(err, "category")
	}
	return category, nil
}

// Create registers a new category. A duplicate id is a validation failure,
// not a conflict, mirroring the external contract.
func (s *CategoryService) Create(ctx context.Context, categoryID string, input CategoryInput) (*domain.Category, error) {
	if categoryID == "" || input.Label == "" {
		return nil, apperrors.NewValidationError("categoryId and label are required")
	}

	if _, err := s.categories.GetByCategoryID(ctx, categoryID); err == nil {
		return nil, apperrors.NewValidationError("category with this ID already exists")
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	category := &domain.Category{
		CategoryID:  categoryID,
		Label:       input.Label,
		Description: input.Description,
		SubIssues:   input.SubIssues,
		IsActive:    true,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperrors.NewValidationError("category with this ID already exists")
		}
		return nil, err
	}

	s.invalidate(ctx)
	s.logger.Info("category created", zap.String("categoryId", categoryID))
	return category, nil
}

// Update patches an existing category.
func (s *CategoryService) Update(ctx context.Context, categoryID string, patch CategoryPatch) (*domain.Category, error) {
	category, err := s.categories.GetByCategoryID(ctx, categoryID)
	if err != nil {
		return nil, notFoundOr(err, "category")
	}

	if patch.Label != nil {
		category.Label = *patch.Label
	}
	if patch.Description != nil {
		category.Description = *patch.Description
	}
	if patch.SubIssues != nil {
		category.SubIssues = patch.SubIssues
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, notFoundOr(err, "category")
	}

	s.invalidate(ctx)
	s.logger.Info("category updated", zap.String("categoryId", categoryID))
	return category, nil
}

// Delete soft-deletes by flagging the category inactive. Categories referenced
// by tickets are never hard-deleted.
func (s *CategoryService) Delete(ctx context.Context, categoryID string) error {
	category, err := s.categories.GetByCategoryID(ctx, categoryID)
	if err != nil {
		return notFoundOr(err, "category")
	}

	category.IsActive = false
	if err := s.categories.Update(ctx, category); err != nil {
		return notFoundOr(err, "category")
	}

	s.invalidate(ctx)
	s.logger.Info("category deleted", zap.String("categoryId", categoryID))
	return nil
}

// BulkUpsert creates or updates each entry and reports the action taken per
// id. Ids are processed in sorted order for deterministic results.
func (s *CategoryService) BulkUpsert(ctx context.Context, categories map[string]CategoryInput) ([]UpsertResult, error) {
	if len(categories) == 0 {
		return nil, apperrors.NewValidationError("invalid categories data")
	}

	ids := make([]string, 0, len(categories))
	for id := range categories {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	results := make([]UpsertResult, 0, len(ids))
	for _, id := range ids {
		input := categories[id]

		existing, err := s.categories.GetByCategoryID(ctx, id)
		switch {
		case err == nil:
			existing.Label = input.Label
			existing.Description = input.Description
			existing.SubIssues = input.SubIssues
			if err := s.categories.Update(ctx, existing); err != nil {
				return nil, err
			}
			results = append(results, UpsertResult{CategoryID: id, Action: "updated"})
		case errors.Is(err, pgx.ErrNoRows):
			category := &domain.Category{
				CategoryID:  id,
				Label:       input.Label,
				Description: input.Description,
				SubIssues:   input.SubIssues,
				IsActive:    true,
			}
			if err := s.categories.Create(ctx, category); err != nil {
				return nil, err
			}
			results = append(results, UpsertResult{CategoryID: id, Action: "created"})
		default:
			return nil, err
		}
	}

	s.invalidate(ctx)
	s.logger.Info("bulk category upsert", zap.Int("count", len(results)))
	return results, nil
}

func (s *CategoryService) cachedActive(ctx context.Context) ([]domain.Category, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, activeCategoriesKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("category cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var categories []domain.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, false
	}
	return categories, true
}

func (s *CategoryService) storeActive(ctx context.Context, categories []domain.Category) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, activeCategoriesKey, raw, categoryCacheTTL).Err(); err != nil {
		s.logger.Warn("category cache write failed", zap.Error(err))
	}
}

func (s *CategoryService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, activeCategoriesKey).Err(); err != nil {
		s.logger.Warn("category cache invalidation failed", zap.Error(err))
	}
}
