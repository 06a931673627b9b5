package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/events"
	"github.com/labdesk/helpdesk/internal/repository"
	apperrors "github.com/labdesk/helpdesk/pkg/util/errorutil"
)

// Caller is the authenticated identity behind a ticket request.
type Caller struct {
	UserID  string
	Email   string
	Name    string
	IsAdmin bool
}

// owns reports whether the caller created t. An empty e-mail owns nothing.
func (c Caller) owns(t *domain.Ticket) bool {
	return c.Email != "" && c.Email == t.UserEmail
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	UserName    string
	Tags        []domain.Tag
	Images      []string
}

// TicketListFilter narrows a listing.
type TicketListFilter struct {
	Statuses []domain.TicketStatus
	Mine     bool
	Limit    int
	Offset   int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// CreateTicket stores a new Open ticket owned by the caller.
func (s *TicketService) CreateTicket(ctx context.Context, caller Caller, input TicketCreateInput) (*domain.Ticket, error) {
	name := caller.Name
	if name == "" {
		name = strings.TrimSpace(input.UserName)
	}
	ticket := &domain.Ticket{
		ID:          uuid.NewString(),
		UserID:      caller.UserID,
		UserEmail:   caller.Email,
		UserName:    name,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
		Tags:        input.Tags,
		Images:      input.Images,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityLow
	}
	if err := validateTicket(ticket); err != nil {
		return nil, err
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    actorOf(caller),
		Payload: events.TicketCreatedPayload{
			Title:     ticket.Title,
			Priority:  ticket.Priority,
			UserEmail: ticket.UserEmail,
		},
	})
	return ticket, nil
}

// ListTickets returns every ticket, newest first, or only the caller's when
// filter.Mine is set.
func (s *TicketService) ListTickets(ctx context.Context, caller Caller, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Statuses: filter.Statuses,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	}
	if filter.Mine {
		repoFilter.UserEmail = &caller.Email
	}
	return s.tickets.List(ctx, repoFilter)
}

// GetTicket fetches one ticket.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	return ticket, nil
}

// UpdateTicket applies patch. Owners and administrators may edit; only
// administrators may change the status.
func (s *TicketService) UpdateTicket(ctx context.Context, caller Caller, id string, patch domain.TicketPatch) (*domain.Ticket, error) {
	current, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin && !caller.owns(current) {
		return nil, apperrors.NewForbidden("only the ticket owner or an administrator can edit this ticket")
	}
	if patch.Status != nil && *patch.Status != current.Status && !caller.IsAdmin {
		return nil, apperrors.NewForbidden("only administrators can change ticket status")
	}
	if patch.IsEmpty() {
		return current, nil
	}

	trimmed := patch
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		trimmed.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		trimmed.Description = &description
	}
	updated := trimmed.Apply(*current)
	if err := validateTicket(&updated); err != nil {
		return nil, err
	}
	if err := s.tickets.Update(ctx, &updated); err != nil {
		return nil, notFoundOr(err, id)
	}

	if updated.Status != current.Status {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: id,
			Actor:    actorOf(caller),
			Payload:  events.TicketStatusChangedPayload{OldStatus: current.Status, NewStatus: updated.Status},
		})
	}
	if fields := editedFields(trimmed); len(fields) > 0 {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketUpdated,
			TicketID: id,
			Actor:    actorOf(caller),
			Payload:  events.TicketUpdatedPayload{Fields: fields},
		})
	}
	return &updated, nil
}

// DeleteTicket removes a ticket owned by the caller, or any ticket for an
// administrator.
func (s *TicketService) DeleteTicket(ctx context.Context, caller Caller, id string) error {
	current, err := s.GetTicket(ctx, id)
	if err != nil {
		return err
	}
	if !caller.IsAdmin && !caller.owns(current) {
		return apperrors.NewForbidden("only the ticket owner or an administrator can delete this ticket")
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return notFoundOr(err, id)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: id,
		Actor:    actorOf(caller),
		Payload:  events.TicketDeletedPayload{Title: current.Title},
	})
	return nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = s.now().UTC()
	_ = s.dispatcher.Publish(ctx, event)
}

func validateTicket(t *domain.Ticket) error {
	tags := make([]string, 0, len(t.Tags))
	for _, tag := range t.Tags {
		tags = append(tags, string(tag))
	}
	return validationError("invalid ticket", ticketRecord{
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Tags:        tags,
	})
}

func editedFields(p domain.TicketPatch) []string {
	var fields []string
	if p.Title != nil {
		fields = append(fields, "title")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	if p.Priority != nil {
		fields = append(fields, "priority")
	}
	if p.Tags != nil {
		fields = append(fields, "tags")
	}
	if p.Images != nil {
		fields = append(fields, "images")
	}
	return fields
}

func actorOf(c Caller) events.Actor {
	return events.Actor{UserID: c.UserID, Email: c.Email, IsAdmin: c.IsAdmin}
}

func notFoundOr(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	return err
}
