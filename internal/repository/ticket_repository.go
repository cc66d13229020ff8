package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queueflow/queue-service/internal/domain"
	"github.com/queueflow/queue-service/internal/pii"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CategoryID  *string
	AgentID     *string
	Statuses    []domain.TicketStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence. Customer contact
// fields and the form-data map pass through the PII codec on the way in
// and out.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByToken(ctx context.Context, token string) (*domain.Ticket, error)

	// LockAgentQueue takes a transaction-scoped advisory lock on the
	// agent's queue so concurrent position writers serialize. Released
	// automatically at commit or rollback; must run inside a transaction.
	LockAgentQueue(ctx context.Context, agentID string) error
	// LockCategorySequence does the same for a category's token sequence.
	LockCategorySequence(ctx context.Context, categoryID string) error

	// TokenExists checks global token uniqueness.
	TokenExists(ctx context.Context, token string) (bool, error)
	// ListTokens returns the token numbers issued for a prefix within
	// the window, e.g. prefix "BIL-" for category Billing.
	ListTokens(ctx context.Context, prefix string, win domain.Window) ([]string, error)

	// CountActiveForAgent counts the agent's PENDING/CALLED/SERVING
	// tickets created within the window.
	CountActiveForAgent(ctx context.Context, agentID string, win domain.Window) (int, error)
	// MaxPositionForAgent returns the highest queue position among the
	// agent's active tickets within the window; 0 when none exist.
	MaxPositionForAgent(ctx context.Context, agentID string, win domain.Window) (int, error)
	// ShiftPositionsUp decrements the position of every active ticket
	// of the agent ranked strictly after the vacated slot.
	ShiftPositionsUp(ctx context.Context, agentID string, vacated int, win domain.Window) error
	// SetPosition rewrites a single ticket's position (bulk reorder).
	SetPosition(ctx context.Context, ticketID string, position int) error

	ListActiveForAgent(ctx context.Context, agentID string, win domain.Window) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	StatsForCategory(ctx context.Context, categoryID string, win domain.Window) (*domain.QueueStats, error)
	StatsForAgent(ctx context.Context, agentID string, win domain.Window) (*domain.QueueStats, error)
}

type ticketRepository struct {
	pool  *pgxpool.Pool
	codec *pii.Codec
}

// NewTicketRepository instantiates the repository.
func NewTicketRepository(pool *pgxpool.Pool, codec *pii.Codec) TicketRepository {
	return &ticketRepository{pool: pool, codec: codec}
}

const ticketColumns = `id, token_number, category_id, agent_id, status, position,
               customer_name, customer_phone, customer_email, note, form_data,
               called_at, serving_started_at, completed_at, no_show_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	enc, err := r.encodeFields(ticket)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (token_number, category_id, agent_id, status, position,
            customer_name, customer_phone, customer_email, note, form_data,
            called_at, serving_started_at, completed_at, no_show_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return querier(ctx, r.pool).QueryRow(ctx, query,
		ticket.TokenNumber,
		ticket.CategoryID,
		ticket.AgentID,
		ticket.Status,
		ticket.Position,
		enc.name,
		enc.phone,
		enc.email,
		enc.note,
		enc.formData,
		ticket.CalledAt,
		ticket.ServingStartedAt,
		ticket.CompletedAt,
		ticket.NoShowAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	enc, err := r.encodeFields(ticket)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET category_id=$1, agent_id=$2, status=$3, position=$4,
            customer_name=$5, customer_phone=$6, customer_email=$7, note=$8, form_data=$9,
            called_at=$10, serving_started_at=$11, completed_at=$12, no_show_at=$13, updated_at=NOW()
        WHERE id=$14`
	cmd, err := querier(ctx, r.pool).Exec(ctx, query,
		ticket.CategoryID,
		ticket.AgentID,
		ticket.Status,
		ticket.Position,
		enc.name,
		enc.phone,
		enc.email,
		enc.note,
		enc.formData,
		ticket.CalledAt,
		ticket.ServingStartedAt,
		ticket.CompletedAt,
		ticket.NoShowAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := querier(ctx, r.pool).Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByToken(ctx context.Context, token string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE token_number=$1`
	return r.fetchSingle(ctx, query, token)
}

// advisoryLock maps a namespaced key to a bigint via hashtext and blocks
// until the lock is granted for the rest of the transaction.
func (r *ticketRepository) advisoryLock(ctx context.Context, key string) error {
	_, err := querier(ctx, r.pool).Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	return err
}

func (r *ticketRepository) LockAgentQueue(ctx context.Context, agentID string) error {
	return r.advisoryLock(ctx, "queue:agent:"+agentID)
}

func (r *ticketRepository) LockCategorySequence(ctx context.Context, categoryID string) error {
	return r.advisoryLock(ctx, "queue:tokens:"+categoryID)
}

func (r *ticketRepository) TokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := querier(ctx, r.pool).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tickets WHERE token_number=$1)`, token).Scan(&exists)
	return exists, err
}

func (r *ticketRepository) ListTokens(ctx context.Context, prefix string, win domain.Window) ([]string, error) {
	const query = `
        SELECT token_number FROM tickets
        WHERE token_number LIKE $1 AND created_at >= $2 AND created_at < $3`
	rows, err := querier(ctx, r.pool).Query(ctx, query, prefix+"%", win.Start, win.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, rows.Err()
}

func (r *ticketRepository) CountActiveForAgent(ctx context.Context, agentID string, win domain.Window) (int, error) {
	query := fmt.Sprintf(`
        SELECT COUNT(*) FROM tickets
        WHERE agent_id=$1 AND status IN (%s) AND created_at >= $2 AND created_at < $3`,
		activeStatusList())
	var count int
	err := querier(ctx, r.pool).QueryRow(ctx, query, agentID, win.Start, win.End).Scan(&count)
	return count, err
}

func (r *ticketRepository) MaxPositionForAgent(ctx context.Context, agentID string, win domain.Window) (int, error) {
	query := fmt.Sprintf(`
        SELECT COALESCE(MAX(position), 0) FROM tickets
        WHERE agent_id=$1 AND status IN (%s) AND created_at >= $2 AND created_at < $3`,
		activeStatusList())
	var max int
	err := querier(ctx, r.pool).QueryRow(ctx, query, agentID, win.Start, win.End).Scan(&max)
	return max, err
}

func (r *ticketRepository) ShiftPositionsUp(ctx context.Context, agentID string, vacated int, win domain.Window) error {
	query := fmt.Sprintf(`
        UPDATE tickets SET position = position - 1, updated_at=NOW()
        WHERE agent_id=$1 AND position > $2 AND status IN (%s)
          AND created_at >= $3 AND created_at < $4`,
		activeStatusList())
	_, err := querier(ctx, r.pool).Exec(ctx, query, agentID, vacated, win.Start, win.End)
	return err
}

func (r *ticketRepository) SetPosition(ctx context.Context, ticketID string, position int) error {
	cmd, err := querier(ctx, r.pool).Exec(ctx,
		`UPDATE tickets SET position=$1, updated_at=NOW() WHERE id=$2`, position, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ListActiveForAgent(ctx context.Context, agentID string, win domain.Window) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT `+ticketColumns+`
        FROM tickets
        WHERE agent_id=$1 AND status IN (%s) AND created_at >= $2 AND created_at < $3
        ORDER BY position ASC`, activeStatusList())
	rows, err := querier(ctx, r.pool).Query(ctx, query, agentID, win.Start, win.End)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanTickets(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at < $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := querier(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.scanTickets(rows)
}

func (r *ticketRepository) StatsForCategory(ctx context.Context, categoryID string, win domain.Window) (*domain.QueueStats, error) {
	return r.stats(ctx, "category_id", categoryID, win)
}

func (r *ticketRepository) StatsForAgent(ctx context.Context, agentID string, win domain.Window) (*domain.QueueStats, error) {
	return r.stats(ctx, "agent_id", agentID, win)
}

func (r *ticketRepository) stats(ctx context.Context, column, id string, win domain.Window) (*domain.QueueStats, error) {
	query := fmt.Sprintf(`
        SELECT
            COUNT(*) FILTER (WHERE status IN ('PENDING','CALLED')),
            COUNT(*) FILTER (WHERE status = 'SERVING'),
            COUNT(*) FILTER (WHERE status = 'COMPLETED'),
            COUNT(*) FILTER (WHERE status = 'HOLD'),
            COUNT(*) FILTER (WHERE status = 'CANCELLED'),
            COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - serving_started_at)))
                FILTER (WHERE completed_at IS NOT NULL AND serving_started_at IS NOT NULL), 0)
        FROM tickets
        WHERE %s=$1 AND created_at >= $2 AND created_at < $3`, column)

	var stats domain.QueueStats
	if err := querier(ctx, r.pool).QueryRow(ctx, query, id, win.Start, win.End).Scan(
		&stats.Waiting,
		&stats.Serving,
		&stats.Completed,
		&stats.NoShow,
		&stats.Cancelled,
		&stats.AvgServiceSeconds,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var name, phone, email, note, formData string
	if err := querier(ctx, r.pool).QueryRow(ctx, query, arg).Scan(
		&ticket.ID,
		&ticket.TokenNumber,
		&ticket.CategoryID,
		&ticket.AgentID,
		&ticket.Status,
		&ticket.Position,
		&name,
		&phone,
		&email,
		&note,
		&formData,
		&ticket.CalledAt,
		&ticket.ServingStartedAt,
		&ticket.CompletedAt,
		&ticket.NoShowAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := r.decodeFields(&ticket, name, phone, email, note, formData); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		var name, phone, email, note, formData string
		if err := rows.Scan(
			&ticket.ID,
			&ticket.TokenNumber,
			&ticket.CategoryID,
			&ticket.AgentID,
			&ticket.Status,
			&ticket.Position,
			&name,
			&phone,
			&email,
			&note,
			&formData,
			&ticket.CalledAt,
			&ticket.ServingStartedAt,
			&ticket.CompletedAt,
			&ticket.NoShowAt,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if err := r.decodeFields(&ticket, name, phone, email, note, formData); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}

type encodedFields struct {
	name     string
	phone    string
	email    string
	note     string
	formData string
}

func (r *ticketRepository) encodeFields(ticket *domain.Ticket) (*encodedFields, error) {
	var enc encodedFields
	var err error
	if enc.name, err = r.codec.Encode(ticket.CustomerName); err != nil {
		return nil, err
	}
	if enc.phone, err = r.codec.Encode(ticket.CustomerPhone); err != nil {
		return nil, err
	}
	if enc.email, err = r.codec.Encode(ticket.CustomerEmail); err != nil {
		return nil, err
	}
	if enc.note, err = r.codec.Encode(ticket.Note); err != nil {
		return nil, err
	}
	if len(ticket.FormData) > 0 {
		raw, err := json.Marshal(ticket.FormData)
		if err != nil {
			return nil, err
		}
		if enc.formData, err = r.codec.Encode(string(raw)); err != nil {
			return nil, err
		}
	}
	return &enc, nil
}

func (r *ticketRepository) decodeFields(ticket *domain.Ticket, name, phone, email, note, formData string) error {
	var err error
	if ticket.CustomerName, err = r.codec.Decode(name); err != nil {
		return err
	}
	if ticket.CustomerPhone, err = r.codec.Decode(phone); err != nil {
		return err
	}
	if ticket.CustomerEmail, err = r.codec.Decode(email); err != nil {
		return err
	}
	if ticket.Note, err = r.codec.Decode(note); err != nil {
		return err
	}
	if formData != "" {
		raw, err := r.codec.Decode(formData)
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(raw), &ticket.FormData); err != nil {
			return err
		}
	}
	return nil
}

func activeStatusList() string {
	quoted := make([]string, len(domain.ActiveStatuses))
	for i, status := range domain.ActiveStatuses {
		quoted[i] = "'" + string(status) + "'"
	}
	return strings.Join(quoted, ",")
}
