package events

import (
	"time"

	"github.com/queueflow/queue-service/internal/domain"
)

// Kind enumerates supported event identifiers.
type Kind string

const (
	KindTicketCreated     Kind = "ticket_created"
	KindTicketCalled      Kind = "ticket_called"
	KindTicketServing     Kind = "ticket_serving"
	KindTicketCompleted   Kind = "ticket_completed"
	KindTicketHeld        Kind = "ticket_held"
	KindTicketReopened    Kind = "ticket_reopened"
	KindTicketTransferred Kind = "ticket_transferred"
	KindTicketCancelled   Kind = "ticket_cancelled"
	KindTicketDeleted     Kind = "ticket_deleted"
	KindQueueReordered    Kind = "queue_reordered"
)

// AllKinds lists every event kind, for subscribers that fan out everything.
var AllKinds = []Kind{
	KindTicketCreated,
	KindTicketCalled,
	KindTicketServing,
	KindTicketCompleted,
	KindTicketHeld,
	KindTicketReopened,
	KindTicketTransferred,
	KindTicketCancelled,
	KindTicketDeleted,
	KindQueueReordered,
}

// Event represents a queue mutation emitted after a committed transaction.
type Event struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	CategoryID string         `json:"category_id"`
	AgentID    string         `json:"agent_id"`
	Ticket     *domain.Ticket `json:"ticket,omitempty"`
	ActorID    string         `json:"actor_id,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}
