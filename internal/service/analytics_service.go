package service

import (
	"context"
	"time"

	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/repository"
)

// AnalyticsService aggregates daily queue activity. Read-only; it never
// writes ticket rows.
type AnalyticsService struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(tickets repository.TicketRepository) *AnalyticsService {
	return &AnalyticsService{tickets: tickets, now: time.Now}
}

// CategorySummary returns same-day stats for a category. A zero date
// means today.
func (s *AnalyticsService) CategorySummary(ctx context.Context, categoryID string, date time.Time) (*domain.QueueStats, error) {
	return s.tickets.StatsForCategory(ctx, categoryID, s.window(date))
}

// AgentSummary returns same-day stats for an agent.
func (s *AnalyticsService) AgentSummary(ctx context.Context, agentID string, date time.Time) (*domain.QueueStats, error) {
	return s.tickets.StatsForAgent(ctx, agentID, s.window(date))
}

func (s *AnalyticsService) window(date time.Time) domain.Window {
	if date.IsZero() {
		date = s.now()
	}
	return domain.Today(date)
}
