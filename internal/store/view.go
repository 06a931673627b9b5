package store

import (
	"sort"
	"strings"

	"github.com/labdesk/helpdesk/internal/domain"
)

// Visible derives the list to show: status filter, tag filter, search, then a
// stable sort. It never modifies s.
func Visible(s State) []domain.Ticket {
	query := strings.ToLower(s.SearchQuery)

	out := make([]domain.Ticket, 0, len(s.Tickets))
	for _, t := range s.Tickets {
		if s.FilterStatus != "" && s.FilterStatus != StatusAll && string(t.Status) != string(s.FilterStatus) {
			continue
		}
		if s.FilterTag != "" && s.FilterTag != TagAll && !t.HasTag(domain.Tag(s.FilterTag)) {
			continue
		}
		if query != "" && !matches(t, query) {
			continue
		}
		out = append(out, t)
	}

	sortTickets(out, s.SortBy)
	return out
}

func matches(t domain.Ticket, query string) bool {
	fields := []string{t.Title, t.Description, t.UserName, t.UserID, t.UserEmail, t.ID}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func sortTickets(tickets []domain.Ticket, order SortOrder) {
	var less func(a, b domain.Ticket) bool
	switch order {
	case SortOldest:
		less = func(a, b domain.Ticket) bool { return a.CreatedTime().Before(b.CreatedTime()) }
	case SortPriority:
		less = func(a, b domain.Ticket) bool { return a.Priority.Rank() < b.Priority.Rank() }
	case SortTitle:
		less = func(a, b domain.Ticket) bool { return a.Title < b.Title }
	default:
		less = func(a, b domain.Ticket) bool { return a.CreatedTime().After(b.CreatedTime()) }
	}
	sort.SliceStable(tickets, func(i, j int) bool { return less(tickets[i], tickets[j]) })
}

// Stats counts the whole collection regardless of filters.
type Stats struct {
	Total      int
	Open       int
	Processing int
	Closed     int
}

// ComputeStats counts tickets per status.
func ComputeStats(tickets []domain.Ticket) Stats {
	stats := Stats{Total: len(tickets)}
	for _, t := range tickets {
		switch t.Status {
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusProcessing:
			stats.Processing++
		case domain.TicketStatusClosed:
			stats.Closed++
		}
	}
	return stats
}
