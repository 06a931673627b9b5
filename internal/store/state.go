// Package store holds the ticket list view-model: an explicit state container,
// pure reducer functions per action and the derived visible projection.
package store

import (
	"github.com/labdesk/helpdesk/internal/domain"
)

// StatusFilter is a ticket status or StatusAll.
type StatusFilter string

// StatusAll disables status filtering.
const StatusAll StatusFilter = "All"

// TagFilter is a tag identifier or TagAll.
type TagFilter string

// TagAll disables tag filtering.
const TagAll TagFilter = "all"

// SortOrder selects the ordering of the visible list.
type SortOrder string

const (
	SortNewest   SortOrder = "newest"
	SortOldest   SortOrder = "oldest"
	SortPriority SortOrder = "priority"
	SortTitle    SortOrder = "title"
)

// Valid reports whether o is a known sort order.
func (o SortOrder) Valid() bool {
	switch o {
	case SortNewest, SortOldest, SortPriority, SortTitle:
		return true
	}
	return false
}

// ViewMode is the list presentation.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// State is the complete view-model state.
type State struct {
	Tickets      []domain.Ticket
	FilterStatus StatusFilter
	FilterTag    TagFilter
	SearchQuery  string
	SortBy       SortOrder
	ViewMode     ViewMode
	Loading      bool
	Error        string
}

// InitialState is the state before the first load.
func InitialState() State {
	return State{
		Tickets:      []domain.Ticket{},
		FilterStatus: StatusAll,
		FilterTag:    TagAll,
		SortBy:       SortNewest,
		ViewMode:     ViewGrid,
	}
}

// Action is a state transition.
type Action interface {
	apply(State) State
}

// Reduce returns the state after a. The input state is not modified.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}

// LoadStarted marks a list load in flight.
type LoadStarted struct{}

func (LoadStarted) apply(s State) State {
	s.Loading = true
	return s
}

// TicketsLoaded replaces the collection wholesale.
type TicketsLoaded struct {
	Tickets []domain.Ticket
}

func (a TicketsLoaded) apply(s State) State {
	tickets := make([]domain.Ticket, len(a.Tickets))
	for i, t := range a.Tickets {
		tickets[i] = t.Clone()
	}
	s.Tickets = tickets
	s.Loading = false
	s.Error = ""
	return s
}

// LoadFailed ends a load and raises the banner; tickets stay as they were.
type LoadFailed struct {
	Err error
}

func (a LoadFailed) apply(s State) State {
	s.Loading = false
	s.Error = errorText(a.Err)
	return s
}

// MutationFailed raises the banner after a failed write.
type MutationFailed struct {
	Err error
}

func (a MutationFailed) apply(s State) State {
	s.Error = errorText(a.Err)
	return s
}

// DismissError clears the banner.
type DismissError struct{}

func (DismissError) apply(s State) State {
	s.Error = ""
	return s
}

// StatusChanged patches one ticket's status.
type StatusChanged struct {
	ID     string
	Status domain.TicketStatus
}

func (a StatusChanged) apply(s State) State {
	return TicketPatched{ID: a.ID, Patch: domain.StatusPatch(a.Status)}.apply(s)
}

// TicketPatched overlays a patch on the ticket with ID.
type TicketPatched struct {
	ID    string
	Patch domain.TicketPatch
}

func (a TicketPatched) apply(s State) State {
	tickets := make([]domain.Ticket, len(s.Tickets))
	for i, t := range s.Tickets {
		if t.ID == a.ID {
			tickets[i] = a.Patch.Apply(t)
			continue
		}
		tickets[i] = t
	}
	s.Tickets = tickets
	return s
}

// TicketRemoved drops the ticket with ID.
type TicketRemoved struct {
	ID string
}

func (a TicketRemoved) apply(s State) State {
	tickets := make([]domain.Ticket, 0, len(s.Tickets))
	for _, t := range s.Tickets {
		if t.ID != a.ID {
			tickets = append(tickets, t)
		}
	}
	s.Tickets = tickets
	return s
}

// SetFilterStatus selects the status filter.
type SetFilterStatus struct {
	Status StatusFilter
}

func (a SetFilterStatus) apply(s State) State {
	s.FilterStatus = a.Status
	return s
}

// SetFilterTag selects the tag filter.
type SetFilterTag struct {
	Tag TagFilter
}

func (a SetFilterTag) apply(s State) State {
	s.FilterTag = a.Tag
	return s
}

// SetSearch updates the search query.
type SetSearch struct {
	Query string
}

func (a SetSearch) apply(s State) State {
	s.SearchQuery = a.Query
	return s
}

// SetSort selects the sort order.
type SetSort struct {
	Order SortOrder
}

func (a SetSort) apply(s State) State {
	s.SortBy = a.Order
	return s
}

// SetViewMode selects the presentation.
type SetViewMode struct {
	Mode ViewMode
}

func (a SetViewMode) apply(s State) State {
	s.ViewMode = a.Mode
	return s
}

// Reset returns to the initial state, used on logout.
type Reset struct{}

func (Reset) apply(State) State {
	return InitialState()
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
