package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queueflow/queue-service/internal/domain"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

func newPositionFixture() (*PositionManager, *fakeTicketRepo, time.Time) {
	now := time.Date(2026, time.March, 9, 9, 0, 0, 0, time.UTC)
	repo := newFakeTicketRepo()
	repo.now = func() time.Time { return now }
	return NewPositionManager(repo), repo, now
}

func seedQueued(t *testing.T, repo *fakeTicketRepo, agentID string, position int) *domain.Ticket {
	t.Helper()
	ticket := &domain.Ticket{AgentID: agentID, Status: domain.TicketStatusPending, Position: position}
	require.NoError(t, repo.Create(context.Background(), ticket))
	return ticket
}

func TestNextPosition_EmptyQueue(t *testing.T) {
	manager, _, now := newPositionFixture()

	position, err := manager.NextPosition(context.Background(), "agent-1", now)
	require.NoError(t, err)
	assert.Equal(t, 1, position)
}

func TestNextPosition_AppendsAtTail(t *testing.T) {
	manager, repo, now := newPositionFixture()
	seedQueued(t, repo, "agent-1", 1)
	seedQueued(t, repo, "agent-1", 2)

	position, err := manager.NextPosition(context.Background(), "agent-1", now)
	require.NoError(t, err)
	assert.Equal(t, 3, position)
}

func TestNextPosition_QueuesAreIndependent(t *testing.T) {
	manager, repo, now := newPositionFixture()
	seedQueued(t, repo, "agent-1", 1)
	seedQueued(t, repo, "agent-1", 2)

	position, err := manager.NextPosition(context.Background(), "agent-2", now)
	require.NoError(t, err)
	assert.Equal(t, 1, position)
}

func TestShiftUp_ClosesGap(t *testing.T) {
	manager, repo, now := newPositionFixture()
	seedQueued(t, repo, "agent-1", 1)
	second := seedQueued(t, repo, "agent-1", 2)
	third := seedQueued(t, repo, "agent-1", 3)

	require.NoError(t, manager.ShiftUp(context.Background(), "agent-1", 1, now))

	active, err := repo.ListActiveForAgent(context.Background(), "agent-1", domain.Today(now))
	require.NoError(t, err)
	byID := map[string]int{}
	for _, ticket := range active {
		byID[ticket.ID] = ticket.Position
	}
	assert.Equal(t, 1, byID[second.ID])
	assert.Equal(t, 2, byID[third.ID])
}

func TestShiftUp_OnlyTicketsBehindTheGapMove(t *testing.T) {
	manager, repo, now := newPositionFixture()
	first := seedQueued(t, repo, "agent-1", 1)
	seedQueued(t, repo, "agent-1", 2)
	third := seedQueued(t, repo, "agent-1", 3)

	require.NoError(t, manager.ShiftUp(context.Background(), "agent-1", 2, now))

	got, err := repo.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Position)
	got, err = repo.GetByID(context.Background(), third.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Position)
}

func TestShiftUp_ZeroVacatedIsNoOp(t *testing.T) {
	manager, repo, now := newPositionFixture()
	first := seedQueued(t, repo, "agent-1", 1)

	require.NoError(t, manager.ShiftUp(context.Background(), "agent-1", 0, now))

	got, err := repo.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Position)
}

func TestReorder_UnknownTicketRejected(t *testing.T) {
	manager, repo, now := newPositionFixture()
	seedQueued(t, repo, "agent-1", 1)

	err := manager.Reorder(context.Background(), "agent-1", []string{"t-999"}, now)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestReorder_CountMismatchRejected(t *testing.T) {
	manager, repo, now := newPositionFixture()
	first := seedQueued(t, repo, "agent-1", 1)
	seedQueued(t, repo, "agent-1", 2)

	err := manager.Reorder(context.Background(), "agent-1", []string{first.ID}, now)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestReorder_DuplicateIDsRejected(t *testing.T) {
	manager, repo, now := newPositionFixture()
	first := seedQueued(t, repo, "agent-1", 1)
	second := seedQueued(t, repo, "agent-1", 2)

	// Repeating an id passes the length check but would leave two
	// tickets sharing a position.
	err := manager.Reorder(context.Background(), "agent-1", []string{first.ID, first.ID}, now)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))

	active, err := repo.ListActiveForAgent(context.Background(), "agent-1", domain.Today(now))
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, 1, active[0].Position)
	assert.Equal(t, first.ID, active[0].ID)
	assert.Equal(t, 2, active[1].Position)
	assert.Equal(t, second.ID, active[1].ID)
}

func TestReorder_RewritesDensePositions(t *testing.T) {
	manager, repo, now := newPositionFixture()
	first := seedQueued(t, repo, "agent-1", 1)
	second := seedQueued(t, repo, "agent-1", 2)
	third := seedQueued(t, repo, "agent-1", 3)

	require.NoError(t, manager.Reorder(context.Background(), "agent-1",
		[]string{second.ID, third.ID, first.ID}, now))

	active, err := repo.ListActiveForAgent(context.Background(), "agent-1", domain.Today(now))
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, third.ID, active[1].ID)
	assert.Equal(t, first.ID, active[2].ID)
}
