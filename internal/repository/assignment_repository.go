package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queueflow/queue-service/internal/domain"
)

// AssignmentRepository handles agent-to-category assignments.
type AssignmentRepository interface {
	// Upsert inserts or reactivates the assignment for (userID, categoryID).
	Upsert(ctx context.Context, userID, categoryID string, active bool) (*domain.CategoryAssignment, error)
	// DeactivateForUser clears every active assignment the agent holds.
	DeactivateForUser(ctx context.Context, userID string) error
	// ActiveAgentIDs returns agents actively assigned to the category,
	// in stable assignment order.
	ActiveAgentIDs(ctx context.Context, categoryID string) ([]string, error)
	ListForUser(ctx context.Context, userID string) ([]domain.CategoryAssignment, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

func (r *assignmentRepository) Upsert(ctx context.Context, userID, categoryID string, active bool) (*domain.CategoryAssignment, error) {
	const query = `
        INSERT INTO category_assignments (user_id, category_id, active_flag)
        VALUES ($1,$2,$3)
        ON CONFLICT (user_id, category_id)
        DO UPDATE SET active_flag=EXCLUDED.active_flag, updated_at=NOW()
        RETURNING id, user_id, category_id, active_flag, created_at, updated_at`
	var assignment domain.CategoryAssignment
	if err := querier(ctx, r.pool).QueryRow(ctx, query, userID, categoryID, active).Scan(
		&assignment.ID,
		&assignment.UserID,
		&assignment.CategoryID,
		&assignment.Active,
		&assignment.CreatedAt,
		&assignment.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) DeactivateForUser(ctx context.Context, userID string) error {
	const query = `
        UPDATE category_assignments SET active_flag=FALSE, updated_at=NOW()
        WHERE user_id=$1 AND active_flag=TRUE`
	_, err := querier(ctx, r.pool).Exec(ctx, query, userID)
	return err
}

func (r *assignmentRepository) ActiveAgentIDs(ctx context.Context, categoryID string) ([]string, error) {
	// Join on users so inactive accounts never receive tickets.
	// Order is stable: it doubles as the load-balancer tie-break.
	const query = `
        SELECT ca.user_id
        FROM category_assignments ca
        JOIN users u ON u.id = ca.user_id
        WHERE ca.category_id=$1 AND ca.active_flag=TRUE AND u.active_flag=TRUE
        ORDER BY ca.created_at ASC, ca.id ASC`

	rows, err := querier(ctx, r.pool).Query(ctx, query, categoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *assignmentRepository) ListForUser(ctx context.Context, userID string) ([]domain.CategoryAssignment, error) {
	const query = `
        SELECT id, user_id, category_id, active_flag, created_at, updated_at
        FROM category_assignments WHERE user_id=$1
        ORDER BY created_at ASC`

	rows, err := querier(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CategoryAssignment
	for rows.Next() {
		var assignment domain.CategoryAssignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.UserID,
			&assignment.CategoryID,
			&assignment.Active,
			&assignment.CreatedAt,
			&assignment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}
