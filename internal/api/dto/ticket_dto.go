package dto

import (
	"time"

	"github.com/queueflow/queue-service/internal/domain"
)

// CheckInRequest payload.
type CheckInRequest struct {
	CategoryID    string          `json:"category_id"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail string          `json:"customer_email"`
	Note          string          `json:"note"`
	FormData      domain.FormData `json:"form_data"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID               string              `json:"id"`
	TokenNumber      string              `json:"token_number"`
	CategoryID       string              `json:"category_id"`
	AgentID          string              `json:"agent_id"`
	Status           domain.TicketStatus `json:"status"`
	Position         int                 `json:"position"`
	CustomerName     string              `json:"customer_name,omitempty"`
	CustomerPhone    string              `json:"customer_phone,omitempty"`
	CustomerEmail    string              `json:"customer_email,omitempty"`
	Note             string              `json:"note,omitempty"`
	FormData         domain.FormData     `json:"form_data,omitempty"`
	CalledAt         *time.Time          `json:"called_at"`
	ServingStartedAt *time.Time          `json:"serving_started_at"`
	CompletedAt      *time.Time          `json:"completed_at"`
	NoShowAt         *time.Time          `json:"no_show_at"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

// TicketStatusResponse is the public, PII-free view for customers.
type TicketStatusResponse struct {
	TokenNumber string              `json:"token_number"`
	Status      domain.TicketStatus `json:"status"`
	Position    int                 `json:"position"`
	CreatedAt   time.Time           `json:"created_at"`
}

// HoldRequest payload.
type HoldRequest struct {
	Reason string `json:"reason"`
}

// TransferRequest payload.
type TransferRequest struct {
	TargetAgentID string `json:"target_agent_id"`
}

// ReorderRequest payload.
type ReorderRequest struct {
	TicketIDs []string `json:"ticket_ids"`
}

// UpdateTicketRequest is the administrative contact edit payload.
type UpdateTicketRequest struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`
	Note          string `json:"note"`
}

// TicketFromDomain maps a ticket to its response shape.
func TicketFromDomain(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:               t.ID,
		TokenNumber:      t.TokenNumber,
		CategoryID:       t.CategoryID,
		AgentID:          t.AgentID,
		Status:           t.Status,
		Position:         t.Position,
		CustomerName:     t.CustomerName,
		CustomerPhone:    t.CustomerPhone,
		CustomerEmail:    t.CustomerEmail,
		Note:             t.Note,
		FormData:         t.FormData,
		CalledAt:         t.CalledAt,
		ServingStartedAt: t.ServingStartedAt,
		CompletedAt:      t.CompletedAt,
		NoShowAt:         t.NoShowAt,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

// TicketsFromDomain maps a ticket slice.
func TicketsFromDomain(tickets []domain.Ticket) []TicketResponse {
	result := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		result = append(result, TicketFromDomain(&tickets[i]))
	}
	return result
}
