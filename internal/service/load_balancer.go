package service

import (
	"context"
	"time"

	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/repository"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

// LoadBalancer selects the least-busy agent for a category: the agent
// with the fewest active tickets created today among the category's
// active assignments. Ties break on assignment order, which the
// repository keeps stable.
type LoadBalancer struct {
	assignments repository.AssignmentRepository
	tickets     repository.TicketRepository
}

// NewLoadBalancer constructs the balancer.
func NewLoadBalancer(assignments repository.AssignmentRepository, tickets repository.TicketRepository) *LoadBalancer {
	return &LoadBalancer{assignments: assignments, tickets: tickets}
}

// SelectAgent returns the id of the least-busy agent.
func (b *LoadBalancer) SelectAgent(ctx context.Context, categoryID string, now time.Time) (string, error) {
	agentIDs, err := b.assignments.ActiveAgentIDs(ctx, categoryID)
	if err != nil {
		return "", err
	}
	if len(agentIDs) == 0 {
		return "", apperrors.NewInvalidState("no agents available for category",
			map[string]any{"category_id": categoryID})
	}

	win := domain.Today(now)
	best := ""
	bestCount := 0
	for i, agentID := range agentIDs {
		count, err := b.tickets.CountActiveForAgent(ctx, agentID, win)
		if err != nil {
			return "", err
		}
		if i == 0 || count < bestCount {
			best = agentID
			bestCount = count
		}
	}
	return best, nil
}
