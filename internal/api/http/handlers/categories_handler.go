package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/queueflow/queue-service/internal/api/dto"
	"github.com/queueflow/queue-service/internal/service"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

// CategoriesHandler serves category administration endpoints.
type CategoriesHandler struct {
	categories *service.CategoryService
	analytics  *service.AnalyticsService
}

// NewCategoriesHandler returns a new handler instance.
func NewCategoriesHandler(categories *service.CategoryService, analytics *service.AnalyticsService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories, analytics: analytics}
}

// Create adds a category.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	category, err := h.categories.CreateCategory(c.UserContext(), req.Name, req.EstimatedWaitMinutes)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CategoryFromDomain(category))
}

// Update modifies a category.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	category, err := h.categories.UpdateCategory(c.UserContext(), c.Params("id"), req.Name, req.Active, req.EstimatedWaitMinutes)
	if err != nil {
		return err
	}
	return c.JSON(dto.CategoryFromDomain(category))
}

// Get fetches one category.
func (h *CategoriesHandler) Get(c *fiber.Ctx) error {
	category, err := h.categories.GetCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.CategoryFromDomain(category))
}

// List returns categories. Public: the check-in kiosk needs it.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	includeInactive := c.QueryBool("include_inactive", false)
	categories, err := h.categories.ListCategories(c.UserContext(), includeInactive)
	if err != nil {
		return err
	}
	result := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		result = append(result, dto.CategoryFromDomain(&categories[i]))
	}
	return c.JSON(fiber.Map{"categories": result})
}

// Summary returns the category's same-day queue stats.
func (h *CategoriesHandler) Summary(c *fiber.Ctx) error {
	category, err := h.categories.GetCategory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	stats, err := h.analytics.CategorySummary(c.UserContext(), category.ID, timeParam(c, "date"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"category_id":         category.ID,
		"waiting":             stats.Waiting,
		"serving":             stats.Serving,
		"completed":           stats.Completed,
		"no_show":             stats.NoShow,
		"cancelled":           stats.Cancelled,
		"avg_service_seconds": stats.AvgServiceSeconds,
	})
}
