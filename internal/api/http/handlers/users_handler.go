package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/queueflow/queue-service/internal/api/dto"
	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/repository"
	"github.com/queueflow/queue-service/internal/service"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

// UsersHandler serves operator account administration.
type UsersHandler struct {
	agents *service.AgentService
}

// NewUsersHandler returns a new handler instance.
func NewUsersHandler(agents *service.AgentService) *UsersHandler {
	return &UsersHandler{agents: agents}
}

// Create adds an operator account.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.Role != domain.RoleAdmin && req.Role != domain.RoleAgent {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": req.Role})
	}
	user, err := h.agents.CreateUser(c.UserContext(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.UserFromDomain(user))
}

// Update modifies an account.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	user, err := h.agents.UpdateUser(c.UserContext(), c.Params("id"), req.Name, req.Role, req.Active)
	if err != nil {
		return err
	}
	return c.JSON(dto.UserFromDomain(user))
}

// Get fetches one account.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.agents.GetUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.UserFromDomain(user))
}

// List returns accounts.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	filter := repository.UserFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		filter.Role = &r
	}
	users, err := h.agents.ListUsers(c.UserContext(), filter)
	if err != nil {
		return err
	}
	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, dto.UserFromDomain(&users[i]))
	}
	return c.JSON(fiber.Map{"users": result})
}

// AssignCategory activates a category assignment for an agent.
func (h *UsersHandler) AssignCategory(c *fiber.Ctx) error {
	var req dto.AssignCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.CategoryID == "" {
		return apperrors.NewValidationError("category_id required", nil)
	}
	assignment, err := h.agents.AssignCategory(c.UserContext(), c.Params("id"), req.CategoryID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"id":          assignment.ID,
		"user_id":     assignment.UserID,
		"category_id": assignment.CategoryID,
		"active":      assignment.Active,
	})
}

// Assignments lists the agent's assignment history.
func (h *UsersHandler) Assignments(c *fiber.Ctx) error {
	assignments, err := h.agents.ListAssignments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"assignments": assignments})
}

// Unassign removes the agent from rotation.
func (h *UsersHandler) Unassign(c *fiber.Ctx) error {
	if err := h.agents.UnassignAll(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
