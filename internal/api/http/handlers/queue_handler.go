package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/queueflow/queue-service/internal/api/dto"
	"github.com/queueflow/queue-service/internal/auth"
	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/repository"
	"github.com/queueflow/queue-service/internal/service"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

// QueueHandler serves agent-facing queue operations.
type QueueHandler struct {
	queue *service.QueueService
}

// NewQueueHandler returns a new handler instance.
func NewQueueHandler(queue *service.QueueService) *QueueHandler {
	return &QueueHandler{queue: queue}
}

func actorFromContext(c *fiber.Ctx) (service.Actor, error) {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.Actor{UserID: user.ID, Admin: user.Role == domain.RoleAdmin}, nil
}

// MyQueue lists the acting agent's active queue in position order.
func (h *QueueHandler) MyQueue(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	tickets, err := h.queue.AgentQueue(c.UserContext(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tickets": dto.TicketsFromDomain(tickets)})
}

// CallNext serves the head of the acting agent's queue.
func (h *QueueHandler) CallNext(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.queue.CallNext(c.UserContext(), actor, actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// Call summons a specific ticket (two-step path).
func (h *QueueHandler) Call(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.queue.Call(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// Serve marks a summoned ticket as being served.
func (h *QueueHandler) Serve(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.queue.StartServing(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// Complete finishes service for a ticket.
func (h *QueueHandler) Complete(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.queue.Complete(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// Hold marks a ticket as no-show.
func (h *QueueHandler) Hold(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.HoldRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.queue.Hold(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// Reopen returns a completed or held ticket to the queue tail.
func (h *QueueHandler) Reopen(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.queue.Reopen(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// Transfer moves a pending ticket to another agent.
func (h *QueueHandler) Transfer(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.TargetAgentID == "" {
		return apperrors.NewValidationError("target_agent_id required", nil)
	}
	ticket, err := h.queue.Transfer(c.UserContext(), actor, c.Params("id"), req.TargetAgentID)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// Reorder imposes an explicit ordering on an agent's queue. Agents can
// only reorder their own; admins can reorder anyone's.
func (h *QueueHandler) Reorder(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	agentID := c.Params("agentId")
	var req dto.ReorderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if err := h.queue.Reorder(c.UserContext(), actor, agentID, req.TicketIDs); err != nil {
		return err
	}
	tickets, err := h.queue.AgentQueue(c.UserContext(), agentID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tickets": dto.TicketsFromDomain(tickets)})
}

// Cancel voids a ticket. Admin only.
func (h *QueueHandler) Cancel(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.queue.Cancel(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// UpdateDetails edits customer contact fields. Admin only.
func (h *QueueHandler) UpdateDetails(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	ticket, err := h.queue.UpdateCustomerDetails(c.UserContext(), actor, c.Params("id"),
		req.CustomerName, req.CustomerPhone, req.CustomerEmail, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketFromDomain(ticket))
}

// Delete removes a ticket entirely. Admin only.
func (h *QueueHandler) Delete(c *fiber.Ctx) error {
	actor, err := actorFromContext(c)
	if err != nil {
		return err
	}
	if err := h.queue.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// List returns tickets matching the query filters. Admin only.
func (h *QueueHandler) List(c *fiber.Ctx) error {
	filter := repository.TicketFilter{
		Limit:  c.QueryInt("limit", 100),
		Offset: c.QueryInt("offset", 0),
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	if v := c.Query("agent_id"); v != "" {
		filter.AgentID = &v
	}
	if status := c.Query("status"); status != "" {
		filter.Statuses = []domain.TicketStatus{domain.TicketStatus(status)}
	}
	tickets, err := h.queue.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"tickets": dto.TicketsFromDomain(tickets)})
}
