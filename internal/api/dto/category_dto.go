package dto

import (
	"time"

	"github.com/queueflow/queue-service/internal/domain"
)

// CreateCategoryRequest payload.
type CreateCategoryRequest struct {
	Name                 string `json:"name"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
}

// UpdateCategoryRequest payload.
type UpdateCategoryRequest struct {
	Name                 string `json:"name"`
	Active               bool   `json:"active"`
	EstimatedWaitMinutes int    `json:"estimated_wait_minutes"`
}

// CategoryResponse response.
type CategoryResponse struct {
	ID                   string    `json:"id"`
	Name                 string    `json:"name"`
	Code                 string    `json:"code"`
	Active               bool      `json:"active"`
	EstimatedWaitMinutes int       `json:"estimated_wait_minutes"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// CategoryFromDomain maps a category to its response shape.
func CategoryFromDomain(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:                   c.ID,
		Name:                 c.Name,
		Code:                 c.Code(),
		Active:               c.IsActive,
		EstimatedWaitMinutes: c.EstimatedWaitMinutes,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
}
