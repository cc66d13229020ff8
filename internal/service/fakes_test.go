package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/events"
	"github.com/queueflow/queue-service/internal/repository"
)

// fakeTransactor serializes transactions behind one mutex, standing in
// for the advisory locks the real read-then-write sequences take. The
// in-memory fakes below have no transaction semantics to join.
type fakeTransactor struct {
	mu sync.Mutex
}

func (t *fakeTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx)
}

// fakeTicketRepo is an in-memory ticket store keyed by id. It stamps
// rows with the injected clock so day-window queries line up with the
// fixture's frozen time.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
	nextID  int
	now     func() time.Time
}

// The transactor mutex already serializes whole transactions, so the
// lock calls themselves are no-ops here.
func (r *fakeTicketRepo) LockAgentQueue(context.Context, string) error { return nil }

func (r *fakeTicketRepo) LockCategorySequence(context.Context, string) error { return nil }

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket), now: time.Now}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	ticket.ID = "t-" + strconv.Itoa(r.nextID)
	ticket.CreatedAt = r.now()
	ticket.UpdatedAt = ticket.CreatedAt
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.now()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) GetByToken(_ context.Context, token string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.TokenNumber == token {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) TokenExists(_ context.Context, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.TokenNumber == token {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeTicketRepo) ListTokens(_ context.Context, prefix string, win domain.Window) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tokens []string
	for _, ticket := range r.tickets {
		if win.Contains(ticket.CreatedAt) && len(ticket.TokenNumber) >= len(prefix) &&
			ticket.TokenNumber[:len(prefix)] == prefix {
			tokens = append(tokens, ticket.TokenNumber)
		}
	}
	return tokens, nil
}

func (r *fakeTicketRepo) CountActiveForAgent(_ context.Context, agentID string, win domain.Window) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, ticket := range r.tickets {
		if ticket.AgentID == agentID && ticket.Status.IsActive() && win.Contains(ticket.CreatedAt) {
			count++
		}
	}
	return count, nil
}

func (r *fakeTicketRepo) MaxPositionForAgent(_ context.Context, agentID string, win domain.Window) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, ticket := range r.tickets {
		if ticket.AgentID == agentID && ticket.Status.IsActive() &&
			win.Contains(ticket.CreatedAt) && ticket.Position > max {
			max = ticket.Position
		}
	}
	return max, nil
}

func (r *fakeTicketRepo) ShiftPositionsUp(_ context.Context, agentID string, vacated int, win domain.Window) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.AgentID == agentID && ticket.Status.IsActive() &&
			win.Contains(ticket.CreatedAt) && ticket.Position > vacated {
			ticket.Position--
		}
	}
	return nil
}

func (r *fakeTicketRepo) SetPosition(_ context.Context, ticketID string, position int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Position = position
	return nil
}

func (r *fakeTicketRepo) ListActiveForAgent(_ context.Context, agentID string, win domain.Window) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.AgentID == agentID && ticket.Status.IsActive() && win.Contains(ticket.CreatedAt) {
			out = append(out, *ticket)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.CategoryID != nil && ticket.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.AgentID != nil && ticket.AgentID != *filter.AgentID {
			continue
		}
		if len(filter.Statuses) > 0 {
			matched := false
			for _, status := range filter.Statuses {
				if ticket.Status == status {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
		}
		out = append(out, *ticket)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeTicketRepo) StatsForCategory(_ context.Context, categoryID string, win domain.Window) (*domain.QueueStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &domain.QueueStats{}
	for _, ticket := range r.tickets {
		if ticket.CategoryID != categoryID || !win.Contains(ticket.CreatedAt) {
			continue
		}
		tallyTicket(stats, ticket)
	}
	return stats, nil
}

func (r *fakeTicketRepo) StatsForAgent(_ context.Context, agentID string, win domain.Window) (*domain.QueueStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &domain.QueueStats{}
	for _, ticket := range r.tickets {
		if ticket.AgentID != agentID || !win.Contains(ticket.CreatedAt) {
			continue
		}
		tallyTicket(stats, ticket)
	}
	return stats, nil
}

func tallyTicket(stats *domain.QueueStats, ticket *domain.Ticket) {
	switch ticket.Status {
	case domain.TicketStatusPending, domain.TicketStatusCalled:
		stats.Waiting++
	case domain.TicketStatusServing:
		stats.Serving++
	case domain.TicketStatusCompleted:
		stats.Completed++
	case domain.TicketStatusHold:
		stats.NoShow++
	case domain.TicketStatusCancelled:
		stats.Cancelled++
	}
}

// fakeCategoryRepo holds categories keyed by id.
type fakeCategoryRepo struct {
	categories map[string]*domain.Category
}

func newFakeCategoryRepo(categories ...*domain.Category) *fakeCategoryRepo {
	r := &fakeCategoryRepo{categories: make(map[string]*domain.Category)}
	for _, c := range categories {
		clone := *c
		r.categories[c.ID] = &clone
	}
	return r
}

func (r *fakeCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	if category.ID == "" {
		category.ID = "c-" + strconv.Itoa(len(r.categories)+1)
	}
	clone := *category
	r.categories[category.ID] = &clone
	return nil
}

func (r *fakeCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	if _, ok := r.categories[category.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *category
	r.categories[category.ID] = &clone
	return nil
}

func (r *fakeCategoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	category, ok := r.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *category
	return &clone, nil
}

func (r *fakeCategoryRepo) GetByName(_ context.Context, name string) (*domain.Category, error) {
	for _, category := range r.categories {
		if category.Name == name {
			clone := *category
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeCategoryRepo) List(_ context.Context, includeInactive bool) ([]domain.Category, error) {
	var out []domain.Category
	for _, category := range r.categories {
		if !includeInactive && !category.IsActive {
			continue
		}
		out = append(out, *category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// fakeUserRepo holds operator accounts keyed by id.
type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		clone := *u
		r.users[u.ID] = &clone
	}
	return r
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = "u-" + strconv.Itoa(len(r.users)+1)
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	var out []domain.User
	for _, user := range r.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && user.Active != *filter.Active {
			continue
		}
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeAssignmentRepo keeps assignments in insertion order so the
// balancer's tie-break is deterministic.
type fakeAssignmentRepo struct {
	assignments []*domain.CategoryAssignment
}

func (r *fakeAssignmentRepo) Upsert(_ context.Context, userID, categoryID string, active bool) (*domain.CategoryAssignment, error) {
	for _, a := range r.assignments {
		if a.UserID == userID && a.CategoryID == categoryID {
			a.Active = active
			clone := *a
			return &clone, nil
		}
	}
	a := &domain.CategoryAssignment{
		ID:         "a-" + strconv.Itoa(len(r.assignments)+1),
		UserID:     userID,
		CategoryID: categoryID,
		Active:     active,
		CreatedAt:  time.Now(),
	}
	r.assignments = append(r.assignments, a)
	clone := *a
	return &clone, nil
}

func (r *fakeAssignmentRepo) DeactivateForUser(_ context.Context, userID string) error {
	for _, a := range r.assignments {
		if a.UserID == userID {
			a.Active = false
		}
	}
	return nil
}

func (r *fakeAssignmentRepo) ActiveAgentIDs(_ context.Context, categoryID string) ([]string, error) {
	var out []string
	for _, a := range r.assignments {
		if a.CategoryID == categoryID && a.Active {
			out = append(out, a.UserID)
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) ListForUser(_ context.Context, userID string) ([]domain.CategoryAssignment, error) {
	var out []domain.CategoryAssignment
	for _, a := range r.assignments {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	return out, nil
}

// capturingDispatcher records published events for assertions.
type capturingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *capturingDispatcher) Subscribe(events.Kind, events.Handler) {}

func (d *capturingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *capturingDispatcher) kinds() []events.Kind {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.Kind, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Kind)
	}
	return out
}

// queueFixture wires a QueueService over the fakes with a frozen clock.
type queueFixture struct {
	service     *QueueService
	tickets     *fakeTicketRepo
	categories  *fakeCategoryRepo
	users       *fakeUserRepo
	assignments *fakeAssignmentRepo
	dispatcher  *capturingDispatcher
	now         time.Time
}

func newQueueFixture() *queueFixture {
	f := &queueFixture{
		tickets:     newFakeTicketRepo(),
		categories:  newFakeCategoryRepo(),
		users:       newFakeUserRepo(),
		assignments: &fakeAssignmentRepo{},
		dispatcher:  &capturingDispatcher{},
		now:         time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC),
	}
	f.tickets.now = func() time.Time { return f.now }
	logger := zap.NewNop()
	f.service = NewQueueService(QueueDependencies{
		TicketRepo:   f.tickets,
		CategoryRepo: f.categories,
		UserRepo:     f.users,
		Transactor:   &fakeTransactor{},
		Allocator:    NewTokenAllocator(f.tickets, logger, nil),
		Balancer:     NewLoadBalancer(f.assignments, f.tickets),
		Positions:    NewPositionManager(f.tickets),
		Dispatcher:   f.dispatcher,
		Logger:       logger,
		Metrics:      nil,
		Now:          func() time.Time { return f.now },
	})
	return f
}

func (f *queueFixture) addCategory(id, name string, active bool) *domain.Category {
	c := &domain.Category{ID: id, Name: name, IsActive: active}
	_ = f.categories.Create(context.Background(), c)
	return c
}

func (f *queueFixture) addAgent(id, name string) *domain.User {
	u := &domain.User{ID: id, Name: name, Email: id + "@example.com", Role: domain.RoleAgent, Active: true}
	_ = f.users.Create(context.Background(), u)
	return u
}

func (f *queueFixture) assign(agentID, categoryID string) {
	_, _ = f.assignments.Upsert(context.Background(), agentID, categoryID, true)
}
