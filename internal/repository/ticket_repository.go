package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketScope narrows queries to what an actor's role may see. Nil fields
// leave the dimension unrestricted (admin).
type TicketScope struct {
	ClientEmail             *string
	AssignedTechnicianEmail *string
}

// TicketFilter captures the role scope plus caller-supplied filters. When
// Search is set it replaces the exact filters with a case-insensitive
// substring match over title, description and ticket id.
type TicketFilter struct {
	Scope    TicketScope
	Status   *domain.TicketStatus
	Priority *domain.TicketPriority
	Category *string
	Search   *string
}

// TicketGroupField selects the grouping column for aggregate counts.
type TicketGroupField string

const (
	GroupByStatus   TicketGroupField = "status"
	GroupByPriority TicketGroupField = "priority"
	GroupByCategory TicketGroupField = "category"
)

// GroupCount is one row of a grouped-count aggregation.
type GroupCount struct {
	Key   string
	Count int64
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error)
	Delete(ctx context.Context, ticketID string) error
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ExistsByTicketID(ctx context.Context, ticketID string) (bool, error)
	CountGrouped(ctx context.Context, scope TicketScope, field TicketGroupField) ([]GroupCount, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_id, title, description, status, priority, category, sub_category,
       client_name, client_email, client_phone, department,
       assigned_to, assigned_technician_name, assigned_technician_email,
       responses, attachments, dynamic_fields, last_response_by, last_response_at,
       created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	responses, attachments, dynamicFields, err := marshalTicketDocs(ticket)
	if err != nil {
		return err
	}

	const query = `
        INSERT INTO tickets (ticket_id, title, description, status, priority, category, sub_category,
            client_name, client_email, client_phone, department,
            assigned_to, assigned_technician_name, assigned_technician_email,
            responses, attachments, dynamic_fields, last_response_by, last_response_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
        RETURNING id, created_at, updated_at`
	err = r.pool.QueryRow(ctx, query,
		ticket.TicketID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.SubCategory,
		ticket.ClientName,
		ticket.ClientEmail,
		ticket.ClientPhone,
		ticket.Department,
		ticket.AssignedTo,
		ticket.AssignedTechnicianName,
		ticket.AssignedTechnicianEmail,
		responses,
		attachments,
		dynamicFields,
		ticket.LastResponseBy,
		ticket.LastResponseAt,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
	return mapConstraintError(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	responses, attachments, dynamicFields, err := marshalTicketDocs(ticket)
	if err != nil {
		return err
	}

	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, category=$5, sub_category=$6,
            assigned_to=$7, assigned_technician_name=$8, assigned_technician_email=$9,
            responses=$10, attachments=$11, dynamic_fields=$12, last_response_by=$13, last_response_at=$14,
            updated_at=NOW()
        WHERE ticket_id=$15`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.SubCategory,
		ticket.AssignedTo,
		ticket.AssignedTechnicianName,
		ticket.AssignedTechnicianEmail,
		responses,
		attachments,
		dynamicFields,
		ticket.LastResponseBy,
		ticket.LastResponseAt,
		ticket.TicketID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE ticket_id=$1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query, ticketID)
	return scanTicket(row)
}

func (r *ticketRepository) Delete(ctx context.Context, ticketID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE ticket_id=$1`, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) ExistsByTicketID(ctx context.Context, ticketID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE ticket_id=$1)`, ticketID).Scan(&exists)
	return exists, err
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	appendScope(&clauses, &args, filter.Scope)

	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(ticket_id) LIKE %s)",
			placeholder, placeholder, placeholder))
	} else {
		if filter.Status != nil {
			args = append(args, *filter.Status)
			clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
		}
		if filter.Priority != nil {
			args = append(args, *filter.Priority)
			clauses = append(clauses, fmt.Sprintf("priority=$%d", len(args)))
		}
		if filter.Category != nil {
			args = append(args, *filter.Category)
			clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
		}
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC`,
		ticketColumns, strings.Join(clauses, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountGrouped(ctx context.Context, scope TicketScope, field TicketGroupField) ([]GroupCount, error) {
	column, ok := groupColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsupported group field %q", field)
	}

	clauses := []string{"1=1"}
	args := []any{}
	appendScope(&clauses, &args, scope)

	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM tickets WHERE %s GROUP BY %s`,
		column, strings.Join(clauses, " AND "), column)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Key, &gc.Count); err != nil {
			return nil, err
		}
		result = append(result, gc)
	}
	return result, rows.Err()
}

var groupColumns = map[TicketGroupField]string{
	GroupByStatus:   "status",
	GroupByPriority: "priority",
	GroupByCategory: "category",
}

func appendScope(clauses *[]string, args *[]any, scope TicketScope) {
	if scope.ClientEmail != nil {
		*args = append(*args, *scope.ClientEmail)
		*clauses = append(*clauses, fmt.Sprintf("client_email=$%d", len(*args)))
	}
	if scope.AssignedTechnicianEmail != nil {
		*args = append(*args, *scope.AssignedTechnicianEmail)
		*clauses = append(*clauses, fmt.Sprintf("assigned_technician_email=$%d", len(*args)))
	}
}

func marshalTicketDocs(ticket *domain.Ticket) ([]byte, []byte, []byte, error) {
	responses := ticket.Responses
	if responses == nil {
		responses = []domain.TicketResponse{}
	}
	responsesJSON, err := json.Marshal(responses)
	if err != nil {
		return nil, nil, nil, err
	}

	attachments := ticket.Attachments
	if attachments == nil {
		attachments = []domain.Attachment{}
	}
	attachmentsJSON, err := json.Marshal(attachments)
	if err != nil {
		return nil, nil, nil, err
	}

	var dynamicJSON []byte
	if ticket.DynamicFields != nil {
		dynamicJSON, err = json.Marshal(ticket.DynamicFields)
		if err != nil {
			return nil, nil, nil, err
		}
	}
	return responsesJSON, attachmentsJSON, dynamicJSON, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket        domain.Ticket
		responses     []byte
		attachments   []byte
		dynamicFields []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Category,
		&ticket.SubCategory,
		&ticket.ClientName,
		&ticket.ClientEmail,
		&ticket.ClientPhone,
		&ticket.Department,
		&ticket.AssignedTo,
		&ticket.AssignedTechnicianName,
		&ticket.AssignedTechnicianEmail,
		&responses,
		&attachments,
		&dynamicFields,
		&ticket.LastResponseBy,
		&ticket.LastResponseAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := unmarshalTicketDocs(&ticket, responses, attachments, dynamicFields); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func unmarshalTicketDocs(ticket *domain.Ticket, responses, attachments, dynamicFields []byte) error {
	if len(responses) > 0 {
		if err := json.Unmarshal(responses, &ticket.Responses); err != nil {
			return err
		}
	}
	if len(attachments) > 0 {
		if err := json.Unmarshal(attachments, &ticket.Attachments); err != nil {
			return err
		}
	}
	if len(dynamicFields) > 0 {
		if err := json.Unmarshal(dynamicFields, &ticket.DynamicFields); err != nil {
			return err
		}
	}
	return nil
}
