package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labdesk/helpdesk/internal/domain"
)

// TimestampLayout is how created_at is rendered on the wire.
const TimestampLayout = time.RFC3339Nano

// TicketFilter narrows a listing. Zero values match everything.
type TicketFilter struct {
	UserEmail *string
	Statuses  []domain.TicketStatus
	Limit     int
	Offset    int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `ticket_id, user_id, user_email, user_name, title, description,
               status, priority, tags, images, created_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_id, user_id, user_email, user_name, title, description, status, priority, tags, images)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING created_at`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.UserID,
		ticket.UserEmail,
		ticket.UserName,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		string(ticket.Priority),
		tagStrings(ticket.Tags),
		nonNil(ticket.Images),
	).Scan(&createdAt); err != nil {
		return mapInsertError(err)
	}
	ticket.CreatedAt = createdAt.UTC().Format(TimestampLayout)
	return nil
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, tags=$5, images=$6, updated_at=NOW()
        WHERE ticket_id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		string(ticket.Priority),
		tagStrings(ticket.Tags),
		nonNil(ticket.Images),
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
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE ticket_id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_id=$1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserEmail != nil {
		args = append(args, *filter.UserEmail)
		clauses = append(clauses, fmt.Sprintf("user_email=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, string(status))
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY created_at DESC`,
		ticketColumns, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	result := []domain.Ticket{}
	for rows.Next() {
		var (
			ticket    domain.Ticket
			status    string
			priority  string
			tags      []string
			createdAt time.Time
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&ticket.UserEmail,
			&ticket.UserName,
			&ticket.Title,
			&ticket.Description,
			&status,
			&priority,
			&tags,
			&ticket.Images,
			&createdAt,
		); err != nil {
			return nil, err
		}
		ticket.Status = domain.TicketStatus(status)
		ticket.Priority = domain.TicketPriority(priority)
		for _, tag := range tags {
			ticket.Tags = append(ticket.Tags, domain.Tag(tag))
		}
		ticket.CreatedAt = createdAt.UTC().Format(TimestampLayout)
		result = append(result, ticket)
	}
	return result, rows.Err()
}

func tagStrings(tags []domain.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		out = append(out, string(tag))
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
