package service

import (
	"context"
	"time"

	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/repository"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

// PositionManager maintains the dense 1..N ordering of each agent's
// active same-day tickets. All three operations assume the caller is
// inside a transaction.
type PositionManager struct {
	tickets repository.TicketRepository
}

// NewPositionManager constructs the manager.
func NewPositionManager(tickets repository.TicketRepository) *PositionManager {
	return &PositionManager{tickets: tickets}
}

// NextPosition returns the tail slot for the agent's queue: the current
// maximum position plus one, or 1 for an empty queue. The agent queue
// lock is taken first so two concurrent check-ins cannot read the same
// maximum.
func (p *PositionManager) NextPosition(ctx context.Context, agentID string, now time.Time) (int, error) {
	if err := p.tickets.LockAgentQueue(ctx, agentID); err != nil {
		return 0, err
	}
	max, err := p.tickets.MaxPositionForAgent(ctx, agentID, domain.Today(now))
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

// ShiftUp closes the gap left by a removed ticket: every active ticket
// ranked after the vacated position moves up one slot.
func (p *PositionManager) ShiftUp(ctx context.Context, agentID string, vacated int, now time.Time) error {
	if vacated <= 0 {
		return nil
	}
	if err := p.tickets.LockAgentQueue(ctx, agentID); err != nil {
		return err
	}
	return p.tickets.ShiftPositionsUp(ctx, agentID, vacated, domain.Today(now))
}

// Reorder reassigns positions 1..N following the caller-supplied order.
// The id list must cover exactly the agent's active same-day tickets;
// anything else would break density.
func (p *PositionManager) Reorder(ctx context.Context, agentID string, orderedIDs []string, now time.Time) error {
	if err := p.tickets.LockAgentQueue(ctx, agentID); err != nil {
		return err
	}
	active, err := p.tickets.ListActiveForAgent(ctx, agentID, domain.Today(now))
	if err != nil {
		return err
	}
	if len(orderedIDs) != len(active) {
		return apperrors.NewValidationError("reorder list must cover the whole queue",
			map[string]any{"expected": len(active), "got": len(orderedIDs)})
	}
	byID := make(map[string]*domain.Ticket, len(active))
	for i := range active {
		byID[active[i].ID] = &active[i]
	}
	seen := make(map[string]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, ok := byID[id]; !ok {
			return apperrors.NewValidationError("ticket not in agent's queue",
				map[string]any{"ticket_id": id})
		}
		if _, dup := seen[id]; dup {
			return apperrors.NewValidationError("duplicate ticket id in reorder list",
				map[string]any{"ticket_id": id})
		}
		seen[id] = struct{}{}
	}

	for i, id := range orderedIDs {
		want := i + 1
		if byID[id].Position == want {
			continue
		}
		if err := p.tickets.SetPosition(ctx, id, want); err != nil {
			return err
		}
	}
	return nil
}
