package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/queueflow/queue-service/internal/domain"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

func newAgentFixture() (*AgentService, *fakeUserRepo, *fakeCategoryRepo, *fakeAssignmentRepo) {
	users := newFakeUserRepo()
	categories := newFakeCategoryRepo()
	assignments := &fakeAssignmentRepo{}
	svc := NewAgentService(AgentDependencies{
		UserRepo:       users,
		CategoryRepo:   categories,
		AssignmentRepo: assignments,
		Transactor:     &fakeTransactor{},
	}, 4)
	return svc, users, categories, assignments
}

func TestCreateUser_DuplicateEmailRejected(t *testing.T) {
	svc, _, _, _ := newAgentFixture()
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, "Avery", "avery@example.com", "hunter22", domain.RoleAgent)
	require.NoError(t, err)

	_, err = svc.CreateUser(ctx, "Impostor", "avery@example.com", "hunter22", domain.RoleAgent)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "CONFLICT"))
}

func TestAssignCategory_ReplacesPriorAssignment(t *testing.T) {
	svc, users, categories, assignments := newAgentFixture()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &domain.User{ID: "agent-1", Role: domain.RoleAgent, Active: true}))
	require.NoError(t, categories.Create(ctx, &domain.Category{ID: "cat-1", Name: "Billing", IsActive: true}))
	require.NoError(t, categories.Create(ctx, &domain.Category{ID: "cat-2", Name: "Support", IsActive: true}))

	_, err := svc.AssignCategory(ctx, "agent-1", "cat-1")
	require.NoError(t, err)
	_, err = svc.AssignCategory(ctx, "agent-1", "cat-2")
	require.NoError(t, err)

	// One agent serves one category at a time.
	ids, err := assignments.ActiveAgentIDs(ctx, "cat-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
	ids, err = assignments.ActiveAgentIDs(ctx, "cat-2")
	require.NoError(t, err)
	assert.Equal(t, []string{"agent-1"}, ids)
}

func TestAssignCategory_AdminRejected(t *testing.T) {
	svc, users, categories, _ := newAgentFixture()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &domain.User{ID: "admin-1", Role: domain.RoleAdmin, Active: true}))
	require.NoError(t, categories.Create(ctx, &domain.Category{ID: "cat-1", Name: "Billing", IsActive: true}))

	_, err := svc.AssignCategory(ctx, "admin-1", "cat-1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
}

func TestAssignCategory_InactiveCategoryRejected(t *testing.T) {
	svc, users, categories, _ := newAgentFixture()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &domain.User{ID: "agent-1", Role: domain.RoleAgent, Active: true}))
	require.NoError(t, categories.Create(ctx, &domain.Category{ID: "cat-1", Name: "Billing", IsActive: false}))

	_, err := svc.AssignCategory(ctx, "agent-1", "cat-1")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, "INVALID_STATE"))
}

func TestUnassignAll_RemovesFromRotation(t *testing.T) {
	svc, users, categories, assignments := newAgentFixture()
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &domain.User{ID: "agent-1", Role: domain.RoleAgent, Active: true}))
	require.NoError(t, categories.Create(ctx, &domain.Category{ID: "cat-1", Name: "Billing", IsActive: true}))
	_, err := svc.AssignCategory(ctx, "agent-1", "cat-1")
	require.NoError(t, err)

	require.NoError(t, svc.UnassignAll(ctx, "agent-1"))

	ids, err := assignments.ActiveAgentIDs(ctx, "cat-1")
	require.NoError(t, err)
	assert.Empty(t, ids)
}
