package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/events"
	"github.com/queueflow/queue-service/internal/observability"
	"github.com/queueflow/queue-service/internal/repository"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

// Actor identifies who is performing a queue operation. Agent-initiated
// actions must own the ticket; administrative actors bypass ownership.
type Actor struct {
	UserID string
	Admin  bool
}

// CheckInInput describes a customer check-in.
type CheckInInput struct {
	CategoryID    string
	CustomerName  string
	CustomerPhone string
	CustomerEmail string
	Note          string
	FormData      domain.FormData
}

// QueueService is the routing orchestrator and ticket state machine. It
// owns every ticket mutation; no other component writes ticket rows.
type QueueService struct {
	tickets    repository.TicketRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	tx         repository.Transactor
	allocator  *TokenAllocator
	balancer   *LoadBalancer
	positions  *PositionManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// QueueDependencies bundles collaborators for the queue service.
type QueueDependencies struct {
	TicketRepo   repository.TicketRepository
	CategoryRepo repository.CategoryRepository
	UserRepo     repository.UserRepository
	Transactor   repository.Transactor
	Allocator    *TokenAllocator
	Balancer     *LoadBalancer
	Positions    *PositionManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	Now          func() time.Time
}

// NewQueueService constructs the service.
func NewQueueService(deps QueueDependencies) *QueueService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &QueueService{
		tickets:    deps.TicketRepo,
		categories: deps.CategoryRepo,
		users:      deps.UserRepo,
		tx:         deps.Transactor,
		allocator:  deps.Allocator,
		balancer:   deps.Balancer,
		positions:  deps.Positions,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        now,
	}
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusPending:   {domain.TicketStatusCalled, domain.TicketStatusServing, domain.TicketStatusCancelled},
	domain.TicketStatusCalled:    {domain.TicketStatusServing, domain.TicketStatusHold, domain.TicketStatusCancelled},
	domain.TicketStatusServing:   {domain.TicketStatusCompleted, domain.TicketStatusHold, domain.TicketStatusCancelled},
	domain.TicketStatusCompleted: {domain.TicketStatusPending},
	domain.TicketStatusHold:      {domain.TicketStatusPending},
	domain.TicketStatusCancelled: {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// CreateTicket routes a check-in: it picks the least-busy agent,
// allocates the day's next token and appends the ticket at the tail of
// the agent's queue, all inside one transaction.
func (s *QueueService) CreateTicket(ctx context.Context, input CheckInInput) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		category, err := s.getCategory(ctx, input.CategoryID)
		if err != nil {
			return err
		}
		if !category.IsActive {
			return apperrors.NewInvalidState("category inactive",
				map[string]any{"category_id": category.ID})
		}

		now := s.now()
		agentID, err := s.balancer.SelectAgent(ctx, category.ID, now)
		if err != nil {
			return err
		}
		token, err := s.allocator.Allocate(ctx, category, now)
		if err != nil {
			return err
		}
		position, err := s.positions.NextPosition(ctx, agentID, now)
		if err != nil {
			return err
		}

		ticket = &domain.Ticket{
			TokenNumber:   token,
			CategoryID:    category.ID,
			AgentID:       agentID,
			Status:        domain.TicketStatusPending,
			Position:      position,
			CustomerName:  input.CustomerName,
			CustomerPhone: input.CustomerPhone,
			CustomerEmail: input.CustomerEmail,
			Note:          input.Note,
			FormData:      input.FormData,
		}
		return s.tickets.Create(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTicketCreated(ticket.CategoryID)
	s.publish(ctx, events.KindTicketCreated, ticket, "")
	return ticket, nil
}

// CallNext serves the head of the agent's queue: the lowest-positioned
// pending ticket moves straight to SERVING, stamping both calledAt and
// servingStartedAt.
func (s *QueueService) CallNext(ctx context.Context, actor Actor, agentID string) (*domain.Ticket, error) {
	if !actor.Admin && actor.UserID != agentID {
		return nil, apperrors.NewOwnershipViolation(map[string]any{"agent_id": agentID})
	}
	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		now := s.now()
		active, err := s.tickets.ListActiveForAgent(ctx, agentID, domain.Today(now))
		if err != nil {
			return err
		}
		for i := range active {
			if active[i].Status == domain.TicketStatusPending {
				ticket = &active[i]
				break
			}
		}
		if ticket == nil {
			return apperrors.NewNotFound("pending ticket", map[string]any{"agent_id": agentID})
		}
		ticket.Status = domain.TicketStatusServing
		ticket.CalledAt = &now
		ticket.ServingStartedAt = &now
		return s.tickets.Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.KindTicketCalled, ticket, actor.UserID)
	return ticket, nil
}

// Call summons a specific pending ticket without starting service: the
// two-step path for callers that separate "customer summoned" from
// "service started".
func (s *QueueService) Call(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.transition(ctx, actor, ticketID, domain.TicketStatusCalled, func(t *domain.Ticket, now time.Time) {
		t.CalledAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindTicketCalled, ticket, actor.UserID)
	return ticket, nil
}

// StartServing enters SERVING from CALLED, or directly from PENDING
// (in which case calledAt is stamped too).
func (s *QueueService) StartServing(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.transition(ctx, actor, ticketID, domain.TicketStatusServing, func(t *domain.Ticket, now time.Time) {
		if t.CalledAt == nil {
			t.CalledAt = &now
		}
		t.ServingStartedAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindTicketServing, ticket, actor.UserID)
	return ticket, nil
}

// Complete finishes service: the ticket leaves the queue and every
// ticket behind it shifts up.
func (s *QueueService) Complete(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	var serviceDuration time.Duration
	ticket, err := s.transition(ctx, actor, ticketID, domain.TicketStatusCompleted, func(t *domain.Ticket, now time.Time) {
		t.CompletedAt = &now
		if t.ServingStartedAt != nil {
			serviceDuration = now.Sub(*t.ServingStartedAt)
		}
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTicketCompleted(ticket.CategoryID, serviceDuration)
	s.publish(ctx, events.KindTicketCompleted, ticket, actor.UserID)
	return ticket, nil
}

// Hold parks a summoned customer who did not show. The ticket leaves
// the queue; an optional reason replaces the note.
func (s *QueueService) Hold(ctx context.Context, actor Actor, ticketID, reason string) (*domain.Ticket, error) {
	ticket, err := s.transition(ctx, actor, ticketID, domain.TicketStatusHold, func(t *domain.Ticket, now time.Time) {
		t.NoShowAt = &now
		if reason != "" {
			t.Note = reason
		}
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTicketNoShow(ticket.CategoryID)
	s.publish(ctx, events.KindTicketHeld, ticket, actor.UserID)
	return ticket, nil
}

// Reopen returns a COMPLETED or HOLD ticket to PENDING at the tail of
// its agent's queue with all lifecycle timestamps cleared.
func (s *QueueService) Reopen(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.getOwnedTicket(ctx, actor, ticketID)
		if err != nil {
			return err
		}
		if !isValidTransition(ticket.Status, domain.TicketStatusPending) {
			return invalidTransition(ticket, domain.TicketStatusPending)
		}
		now := s.now()
		position, err := s.positions.NextPosition(ctx, ticket.AgentID, now)
		if err != nil {
			return err
		}
		ticket.Status = domain.TicketStatusPending
		ticket.Position = position
		ticket.ClearLifecycle()
		return s.tickets.Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.KindTicketReopened, ticket, actor.UserID)
	return ticket, nil
}

// Transfer moves a pending ticket to another agent: tail position on
// the target queue, shift-up at the vacated slot on the source queue.
func (s *QueueService) Transfer(ctx context.Context, actor Actor, ticketID, targetAgentID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.getOwnedTicket(ctx, actor, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != domain.TicketStatusPending {
			return apperrors.NewInvalidState("only pending tickets can be transferred",
				map[string]any{"ticket_id": ticket.ID, "status": ticket.Status})
		}
		if ticket.AgentID == targetAgentID {
			return apperrors.NewValidationError("ticket already belongs to target agent",
				map[string]any{"agent_id": targetAgentID})
		}

		target, err := s.getUser(ctx, targetAgentID)
		if err != nil {
			return err
		}
		if !target.Active || target.Role != domain.RoleAgent {
			return apperrors.NewInvalidState("target agent unavailable",
				map[string]any{"agent_id": targetAgentID})
		}

		now := s.now()
		sourceAgentID := ticket.AgentID
		vacated := ticket.Position

		position, err := s.positions.NextPosition(ctx, targetAgentID, now)
		if err != nil {
			return err
		}
		ticket.AgentID = targetAgentID
		ticket.Position = position
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
		return s.positions.ShiftUp(ctx, sourceAgentID, vacated, now)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.KindTicketTransferred, ticket, actor.UserID)
	return ticket, nil
}

// Cancel is the administrative override terminal state.
func (s *QueueService) Cancel(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	if !actor.Admin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	ticket, err := s.transition(ctx, actor, ticketID, domain.TicketStatusCancelled, func(t *domain.Ticket, now time.Time) {})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.KindTicketCancelled, ticket, actor.UserID)
	return ticket, nil
}

// Delete removes the ticket row entirely. When the ticket was still
// queued, the vacated slot shifts up.
func (s *QueueService) Delete(ctx context.Context, actor Actor, ticketID string) error {
	if !actor.Admin {
		return apperrors.NewForbidden("admin role required")
	}
	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.getTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
			return err
		}
		if ticket.Status.IsActive() {
			return s.positions.ShiftUp(ctx, ticket.AgentID, ticket.Position, s.now())
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.KindTicketDeleted, ticket, actor.UserID)
	return nil
}

// Reorder imposes an explicit order on an agent's queue (drag-and-drop).
func (s *QueueService) Reorder(ctx context.Context, actor Actor, agentID string, orderedIDs []string) error {
	if !actor.Admin && actor.UserID != agentID {
		return apperrors.NewOwnershipViolation(map[string]any{"agent_id": agentID})
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.positions.Reorder(ctx, agentID, orderedIDs, s.now())
	})
	if err != nil {
		return err
	}

	s.publishBare(ctx, events.KindQueueReordered, agentID, actor.UserID)
	return nil
}

// UpdateCustomerDetails is the administrative edit of contact fields.
func (s *QueueService) UpdateCustomerDetails(ctx context.Context, actor Actor, ticketID string, name, phone, email, note string) (*domain.Ticket, error) {
	if !actor.Admin {
		return nil, apperrors.NewForbidden("admin role required")
	}
	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.getTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		ticket.CustomerName = name
		ticket.CustomerPhone = phone
		ticket.CustomerEmail = email
		ticket.Note = note
		return s.tickets.Update(ctx, ticket)
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// AgentQueue lists the agent's active same-day tickets in position order.
func (s *QueueService) AgentQueue(ctx context.Context, agentID string) ([]domain.Ticket, error) {
	return s.tickets.ListActiveForAgent(ctx, agentID, domain.Today(s.now()))
}

// TicketByToken looks up a ticket by its customer-facing token.
func (s *QueueService) TicketByToken(ctx context.Context, token string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"token": token})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// ListTickets returns tickets matching the filter, for display/history.
func (s *QueueService) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return s.tickets.ListWithFilter(ctx, filter)
}

// transition applies a standard status change: ownership check, legality
// check, side effects, and a shift-up when the ticket leaves the queue.
func (s *QueueService) transition(ctx context.Context, actor Actor, ticketID string, next domain.TicketStatus, sideEffects func(*domain.Ticket, time.Time)) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		ticket, err = s.getOwnedTicket(ctx, actor, ticketID)
		if err != nil {
			return err
		}
		if !isValidTransition(ticket.Status, next) {
			return invalidTransition(ticket, next)
		}

		now := s.now()
		wasActive := ticket.Status.IsActive()
		vacated := ticket.Position

		ticket.Status = next
		sideEffects(ticket, now)
		if wasActive && !next.IsActive() {
			ticket.Position = 0
		}
		if err := s.tickets.Update(ctx, ticket); err != nil {
			return err
		}
		if wasActive && !next.IsActive() {
			return s.positions.ShiftUp(ctx, ticket.AgentID, vacated, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (s *QueueService) getOwnedTicket(ctx context.Context, actor Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.getTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !actor.Admin && ticket.AgentID != actor.UserID {
		return nil, apperrors.NewOwnershipViolation(map[string]any{"ticket_id": ticket.ID})
	}
	return ticket, nil
}

func (s *QueueService) getTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *QueueService) getCategory(ctx context.Context, id string) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("category", map[string]any{"category_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return category, nil
}

func (s *QueueService) getUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("agent", map[string]any{"agent_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func invalidTransition(ticket *domain.Ticket, next domain.TicketStatus) error {
	return apperrors.NewInvalidState("illegal status transition", map[string]any{
		"ticket_id": ticket.ID,
		"from":      ticket.Status,
		"to":        next,
	})
}

func (s *QueueService) publish(ctx context.Context, kind events.Kind, ticket *domain.Ticket, actorID string) {
	if s.dispatcher == nil || ticket == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		CategoryID: ticket.CategoryID,
		AgentID:    ticket.AgentID,
		Ticket:     ticket,
		ActorID:    actorID,
		Timestamp:  s.now(),
	})
}

func (s *QueueService) publishBare(ctx context.Context, kind events.Kind, agentID, actorID string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		AgentID:   agentID,
		ActorID:   actorID,
		Timestamp: s.now(),
	})
}
