package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/repository"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

// CategoryService manages service categories.
type CategoryService struct {
	categories repository.CategoryRepository
}

// NewCategoryService constructs the service.
func NewCategoryService(categories repository.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// CreateCategory adds a new category; names are unique.
func (s *CategoryService) CreateCategory(ctx context.Context, name string, estimatedWaitMinutes int) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("category name required", nil)
	}
	if existing, err := s.categories.GetByName(ctx, name); err == nil && existing != nil {
		return nil, apperrors.NewConflict("category name already exists", map[string]any{"name": name})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	category := &domain.Category{
		Name:                 name,
		IsActive:             true,
		EstimatedWaitMinutes: estimatedWaitMinutes,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// UpdateCategory modifies category metadata and the active flag.
func (s *CategoryService) UpdateCategory(ctx context.Context, id, name string, active bool, estimatedWaitMinutes int) (*domain.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name != "" && name != category.Name {
		if existing, err := s.categories.GetByName(ctx, name); err == nil && existing != nil && existing.ID != category.ID {
			return nil, apperrors.NewConflict("category name already exists", map[string]any{"name": name})
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		category.Name = name
	}
	category.IsActive = active
	category.EstimatedWaitMinutes = estimatedWaitMinutes

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// GetCategory fetches a category.
func (s *CategoryService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

// ListCategories returns categories, optionally including inactive ones.
func (s *CategoryService) ListCategories(ctx context.Context, includeInactive bool) ([]domain.Category, error) {
	return s.categories.List(ctx, includeInactive)
}
