package domain

import "time"

// TicketStatus enumerates lifecycle states for queue tickets.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "PENDING"
	TicketStatusCalled    TicketStatus = "CALLED"
	TicketStatusServing   TicketStatus = "SERVING"
	TicketStatusCompleted TicketStatus = "COMPLETED"
	TicketStatusHold      TicketStatus = "HOLD"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

// ActiveStatuses are the states in which a ticket occupies a queue slot.
var ActiveStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusCalled,
	TicketStatusServing,
}

// IsActive reports whether the ticket counts toward an agent's workload.
func (s TicketStatus) IsActive() bool {
	return s == TicketStatusPending || s == TicketStatusCalled || s == TicketStatusServing
}

// FormData carries schemaless check-in form values. The core never
// interprets the values; they are encoded at the persistence boundary.
type FormData map[string]any

// Ticket is the aggregate for a single customer visit.
type Ticket struct {
	ID               string
	TokenNumber      string
	CategoryID       string
	AgentID          string
	Status           TicketStatus
	Position         int
	CustomerName     string
	CustomerPhone    string
	CustomerEmail    string
	Note             string
	FormData         FormData
	CalledAt         *time.Time
	ServingStartedAt *time.Time
	CompletedAt      *time.Time
	NoShowAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ClearLifecycle resets all lifecycle timestamps, used on reopen.
func (t *Ticket) ClearLifecycle() {
	t.CalledAt = nil
	t.ServingStartedAt = nil
	t.CompletedAt = nil
	t.NoShowAt = nil
}
