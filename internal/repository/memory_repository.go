package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/labdesk/helpdesk/internal/domain"
)

// MemoryTicketRepository keeps tickets in process memory. It is used when no
// Postgres DSN is configured and in tests. Missing rows report pgx.ErrNoRows
// like the Postgres implementation.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	created map[string]time.Time
	now     func() time.Time
}

// NewMemoryTicketRepository returns an empty repository.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[string]domain.Ticket),
		created: make(map[string]time.Time),
		now:     time.Now,
	}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[ticket.ID]; exists {
		return ErrDuplicate
	}
	createdAt := r.now().UTC()
	ticket.CreatedAt = createdAt.Format(TimestampLayout)
	r.tickets[ticket.ID] = ticket.Clone()
	r.created[ticket.ID] = createdAt
	return nil
}

func (r *MemoryTicketRepository) Update(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.tickets[ticket.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	updated := ticket.Clone()
	updated.CreatedAt = stored.CreatedAt
	r.tickets[ticket.ID] = updated
	return nil
}

func (r *MemoryTicketRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	delete(r.created, id)
	return nil
}

func (r *MemoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := ticket.Clone()
	return &out, nil
}

func (r *MemoryTicketRepository) List(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make(map[domain.TicketStatus]bool, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses[s] = true
	}

	result := []domain.Ticket{}
	for _, ticket := range r.tickets {
		if filter.UserEmail != nil && ticket.UserEmail != *filter.UserEmail {
			continue
		}
		if len(statuses) > 0 && !statuses[ticket.Status] {
			continue
		}
		result = append(result, ticket.Clone())
	}
	sort.SliceStable(result, func(i, j int) bool {
		a, b := r.created[result[i].ID], r.created[result[j].ID]
		if a.Equal(b) {
			return result[i].ID < result[j].ID
		}
		return a.After(b)
	})

	if filter.Limit > 0 {
		start := filter.Offset
		if start < 0 {
			start = 0
		}
		if start > len(result) {
			start = len(result)
		}
		end := start + filter.Limit
		if end > len(result) {
			end = len(result)
		}
		result = result[start:end]
	}
	return result, nil
}

// MemoryUserRepository keeps accounts in process memory, keyed by id and e-mail.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
	now     func() time.Time
}

// NewMemoryUserRepository returns an empty repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[string]domain.User),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return ErrDuplicate
	}
	user.CreatedAt = r.now()
	user.UpdatedAt = user.CreatedAt
	r.byID[user.ID] = copyUser(*user)
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = r.now()
	delete(r.byEmail, stored.Email)
	r.byID[user.ID] = copyUser(*user)
	r.byEmail[user.Email] = user.ID
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := copyUser(user)
	return &out, nil
}

func (r *MemoryUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	id, ok := r.byEmail[email]
	r.mu.RUnlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

func copyUser(u domain.User) domain.User {
	if u.Groups != nil {
		u.Groups = append([]string(nil), u.Groups...)
	}
	return u
}
