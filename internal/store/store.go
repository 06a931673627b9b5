package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/labdesk/helpdesk/internal/domain"
)

// ErrLoadInProgress is returned when a load is requested while one is running.
var ErrLoadInProgress = errors.New("ticket list is already loading")

// Gateway is the remote side of the view-model.
type Gateway interface {
	List(ctx context.Context) ([]domain.Ticket, error)
	Create(ctx context.Context, ticket domain.NewTicket, files []domain.ImageUpload) (string, domain.NewTicket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error
	UpdateFields(ctx context.Context, id string, patch domain.TicketPatch, files []domain.ImageUpload) (domain.TicketPatch, error)
	Delete(ctx context.Context, id string) error
}

// Store owns the authoritative ticket collection. Remote calls run outside the
// lock; state only changes through Reduce.
type Store struct {
	mu       sync.Mutex
	state    State
	gateway  Gateway
	policies map[Operation]SyncPolicy
	grace    time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPolicy overrides the sync policy for one operation.
func WithPolicy(op Operation, policy SyncPolicy) Option {
	return func(s *Store) { s.policies[op] = policy }
}

// WithGracePeriod overrides ReplicationGracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(s *Store) { s.grace = d }
}

// WithSleeper replaces the wait used for the grace period.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Store) { s.sleep = sleep }
}

// WithClock replaces the clock used for locally created tickets.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New builds a Store over gw.
func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		state:    InitialState(),
		gateway:  gw,
		policies: make(map[Operation]SyncPolicy, len(DefaultPolicies)),
		grace:    ReplicationGracePeriod,
		sleep:    sleepContext,
		now:      time.Now,
		logger:   zap.NewNop(),
	}
	for op, policy := range DefaultPolicies {
		s.policies[op] = policy
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the current state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.state
	snap.Tickets = make([]domain.Ticket, len(s.state.Tickets))
	copy(snap.Tickets, s.state.Tickets)
	return snap
}

// Dispatch applies a and returns the new state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	s.mu.Unlock()
	return s.State()
}

// Visible is the filtered, searched and sorted projection of the current state.
func (s *Store) Visible() []domain.Ticket {
	return Visible(s.State())
}

// Stats counts the unfiltered collection.
func (s *Store) Stats() Stats {
	return ComputeStats(s.State().Tickets)
}

// Ticket looks up a ticket in local state.
func (s *Store) Ticket(id string) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.state.Tickets {
		if t.ID == id {
			return t.Clone(), true
		}
	}
	return domain.Ticket{}, false
}

// Policy reports the sync policy in effect for op.
func (s *Store) Policy(op Operation) SyncPolicy {
	return s.policies[op]
}

// Load replaces the collection with the gateway's list.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Loading {
		s.mu.Unlock()
		return ErrLoadInProgress
	}
	s.state = Reduce(s.state, LoadStarted{})
	s.mu.Unlock()

	tickets, err := s.gateway.List(ctx)
	if err != nil {
		s.logger.Warn("load tickets failed", zap.Error(err))
		s.Dispatch(LoadFailed{Err: err})
		return err
	}
	s.Dispatch(TicketsLoaded{Tickets: tickets})
	s.logger.Debug("tickets loaded", zap.Int("count", len(tickets)))
	return nil
}

// CreateTicket submits a ticket and syncs local state per policy. With the
// default refetch policy it waits the grace period before reloading.
func (s *Store) CreateTicket(ctx context.Context, ticket domain.NewTicket, files []domain.ImageUpload) (string, error) {
	id, sent, err := s.gateway.Create(ctx, ticket, files)
	if err != nil {
		s.Dispatch(MutationFailed{Err: err})
		return "", err
	}

	if s.policies[OpCreate] == PolicyLocalPatch {
		s.insertLocal(id, sent)
		return id, nil
	}
	if err := s.sleep(ctx, s.grace); err != nil {
		return id, err
	}
	return id, s.Load(ctx)
}

// UpdateStatus changes a ticket's status remotely, then locally.
func (s *Store) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	if err := s.gateway.UpdateStatus(ctx, id, status); err != nil {
		s.Dispatch(MutationFailed{Err: err})
		return err
	}
	return s.sync(ctx, OpUpdateStatus, StatusChanged{ID: id, Status: status})
}

// DeleteTicket removes a ticket remotely, then locally.
func (s *Store) DeleteTicket(ctx context.Context, id string) error {
	if err := s.gateway.Delete(ctx, id); err != nil {
		s.Dispatch(MutationFailed{Err: err})
		return err
	}
	return s.sync(ctx, OpDelete, TicketRemoved{ID: id})
}

// EditTicket sends a field patch plus new image files, then syncs local state.
// It returns the patch as sent, with uploaded image references appended.
func (s *Store) EditTicket(ctx context.Context, id string, patch domain.TicketPatch, files []domain.ImageUpload) (domain.TicketPatch, error) {
	sent, err := s.gateway.UpdateFields(ctx, id, patch, files)
	if err != nil {
		s.Dispatch(MutationFailed{Err: err})
		return patch, err
	}
	return sent, s.sync(ctx, OpEdit, TicketPatched{ID: id, Patch: sent})
}

func (s *Store) sync(ctx context.Context, op Operation, local Action) error {
	if s.policies[op] == PolicyRefetch {
		return s.Load(ctx)
	}
	s.Dispatch(local)
	return nil
}

func (s *Store) insertLocal(id string, ticket domain.NewTicket) {
	created := domain.Ticket{
		ID:          id,
		UserEmail:   ticket.UserEmail,
		UserName:    ticket.UserName,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      domain.TicketStatusOpen,
		Priority:    ticket.Priority,
		Tags:        append([]domain.Tag(nil), ticket.Tags...),
		Images:      append([]string(nil), ticket.Images...),
		CreatedAt:   s.now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	tickets := append([]domain.Ticket{created}, s.state.Tickets...)
	s.state = Reduce(s.state, TicketsLoaded{Tickets: tickets})
	s.mu.Unlock()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
