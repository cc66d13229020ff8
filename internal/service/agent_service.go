package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/queueflow/queue-service/internal/auth"
	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/repository"
	apperrors "github.com/queueflow/queue-service/pkg/util"
)

// AgentService manages operator accounts and category assignments.
type AgentService struct {
	users       repository.UserRepository
	categories  repository.CategoryRepository
	assignments repository.AssignmentRepository
	tx          repository.Transactor
	bcryptCost  int
}

// AgentDependencies bundles repositories for the agent service.
type AgentDependencies struct {
	UserRepo       repository.UserRepository
	CategoryRepo   repository.CategoryRepository
	AssignmentRepo repository.AssignmentRepository
	Transactor     repository.Transactor
}

// NewAgentService constructs the service.
func NewAgentService(deps AgentDependencies, bcryptCost int) *AgentService {
	return &AgentService{
		users:       deps.UserRepo,
		categories:  deps.CategoryRepo,
		assignments: deps.AssignmentRepo,
		tx:          deps.Transactor,
		bcryptCost:  bcryptCost,
	}
}

// CreateUser adds a new operator account.
func (s *AgentService) CreateUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("email already exists", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateUser updates account details and the active flag.
func (s *AgentService) UpdateUser(ctx context.Context, userID, name string, role domain.Role, active bool) (*domain.User, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Role = role
	user.Active = active
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// ListUsers lists accounts with filters.
func (s *AgentService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	return s.users.List(ctx, filter)
}

// GetUser fetches an account.
func (s *AgentService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.getUser(ctx, id)
}

// AssignCategory gives the agent an active assignment to the category.
// One agent serves one category at a time: any prior active assignment
// is deactivated in the same transaction.
func (s *AgentService) AssignCategory(ctx context.Context, userID, categoryID string) (*domain.CategoryAssignment, error) {
	var assignment *domain.CategoryAssignment
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		user, err := s.getUser(ctx, userID)
		if err != nil {
			return err
		}
		if user.Role != domain.RoleAgent {
			return apperrors.NewValidationError("user is not an agent", map[string]any{"user_id": userID})
		}
		if !user.Active {
			return apperrors.NewInvalidState("agent deactivated", map[string]any{"user_id": userID})
		}

		category, err := s.categories.GetByID(ctx, categoryID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("category", map[string]any{"category_id": categoryID})
			}
			return apperrors.MapError(err)
		}
		if !category.IsActive {
			return apperrors.NewInvalidState("category inactive", map[string]any{"category_id": categoryID})
		}

		if err := s.assignments.DeactivateForUser(ctx, userID); err != nil {
			return apperrors.MapError(err)
		}
		assignment, err = s.assignments.Upsert(ctx, userID, categoryID, true)
		if err != nil {
			return apperrors.MapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// UnassignAll removes the agent from rotation without touching the account.
func (s *AgentService) UnassignAll(ctx context.Context, userID string) error {
	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}
	return apperrors.MapError(s.assignments.DeactivateForUser(ctx, userID))
}

// ListAssignments returns the agent's assignment history.
func (s *AgentService) ListAssignments(ctx context.Context, userID string) ([]domain.CategoryAssignment, error) {
	return s.assignments.ListForUser(ctx, userID)
}

func (s *AgentService) getUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
