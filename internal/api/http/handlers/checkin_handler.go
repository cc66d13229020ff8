package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/queueflow/queue-service/internal/api/dto"
	"github.com/queueflow/queue-service/internal/service"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

// CheckinHandler serves the public check-in and ticket status endpoints.
type CheckinHandler struct {
	queue *service.QueueService
}

// NewCheckinHandler returns a new handler instance.
func NewCheckinHandler(queue *service.QueueService) *CheckinHandler {
	return &CheckinHandler{queue: queue}
}

// CheckIn creates a ticket for a walk-in customer.
func (h *CheckinHandler) CheckIn(c *fiber.Ctx) error {
	var req dto.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.CategoryID == "" {
		return apperrors.NewValidationError("category_id required", nil)
	}

	ticket, err := h.queue.CreateTicket(c.UserContext(), service.CheckInInput{
		CategoryID:    req.CategoryID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: req.CustomerEmail,
		Note:          req.Note,
		FormData:      req.FormData,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TicketFromDomain(ticket))
}

// Status returns the public view of a ticket by its token.
func (h *CheckinHandler) Status(c *fiber.Ctx) error {
	ticket, err := h.queue.TicketByToken(c.UserContext(), c.Params("token"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketStatusResponse{
		TokenNumber: ticket.TokenNumber,
		Status:      ticket.Status,
		Position:    ticket.Position,
		CreatedAt:   ticket.CreatedAt,
	})
}
