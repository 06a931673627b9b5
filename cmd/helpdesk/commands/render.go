package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/labdesk/helpdesk/internal/detail"
	"github.com/labdesk/helpdesk/internal/domain"
	"github.com/labdesk/helpdesk/internal/store"
)

var (
	statusColors = map[domain.TicketStatus]lipgloss.Color{
		domain.TicketStatusOpen:       lipgloss.Color("#2563EB"),
		domain.TicketStatusProcessing: lipgloss.Color("#F59E0B"),
		domain.TicketStatusClosed:     lipgloss.Color("#10B981"),
	}
	priorityColors = map[domain.TicketPriority]lipgloss.Color{
		domain.TicketPriorityHigh:   lipgloss.Color("#EF4444"),
		domain.TicketPriorityMedium: lipgloss.Color("#F59E0B"),
		domain.TicketPriorityLow:    lipgloss.Color("#64748B"),
	}

	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	cardStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#CBD5E1")).
			Padding(0, 1).
			Width(44)
)

func statusBadge(status domain.TicketStatus) string {
	return lipgloss.NewStyle().Foreground(statusColors[status]).Bold(true).Render(string(status))
}

func priorityBadge(priority domain.TicketPriority) string {
	return lipgloss.NewStyle().Foreground(priorityColors[priority]).Render(string(priority))
}

func renderStats(stats store.Stats) string {
	parts := []string{
		titleStyle.Render(fmt.Sprintf("Total %d", stats.Total)),
		statusBadge(domain.TicketStatusOpen) + fmt.Sprintf(" %d", stats.Open),
		statusBadge(domain.TicketStatusProcessing) + fmt.Sprintf(" %d", stats.Processing),
		statusBadge(domain.TicketStatusClosed) + fmt.Sprintf(" %d", stats.Closed),
	}
	return strings.Join(parts, "   ")
}

func renderTickets(tickets []domain.Ticket, mode store.ViewMode) string {
	if len(tickets) == 0 {
		return faintStyle.Render("No tickets match the current filters.")
	}
	if mode == store.ViewList {
		rows := make([]string, 0, len(tickets))
		for _, t := range tickets {
			rows = append(rows, renderRow(t))
		}
		return strings.Join(rows, "\n")
	}

	cards := make([]string, 0, len(tickets))
	for _, t := range tickets {
		cards = append(cards, renderCard(t))
	}
	var rows []string
	for i := 0; i < len(cards); i += 2 {
		end := i + 2
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderRow(t domain.Ticket) string {
	return fmt.Sprintf("%s  %s  %s  %s  %s",
		faintStyle.Render(shortID(t.ID)),
		statusBadge(t.Status),
		priorityBadge(t.Priority),
		titleStyle.Render(t.Title),
		faintStyle.Render(t.CreatorName()))
}

func renderCard(t domain.Ticket) string {
	lines := []string{
		titleStyle.Render(t.Title),
		statusBadge(t.Status) + "  " + priorityBadge(t.Priority),
		faintStyle.Render(shortID(t.ID) + " · " + t.CreatorName()),
	}
	if len(t.Tags) > 0 {
		lines = append(lines, faintStyle.Render(joinTags(t.Tags)))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func renderDetail(p *detail.Presenter) string {
	t := p.Ticket()
	perms := p.Permissions()

	var b strings.Builder
	b.WriteString(titleStyle.Render(t.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s  %s  %s\n", statusBadge(t.Status), priorityBadge(t.Priority), faintStyle.Render(t.ID))
	fmt.Fprintf(&b, "Created by %s", t.CreatorName())
	if created := t.CreatedTime(); !created.IsZero() {
		fmt.Fprintf(&b, " on %s", created.Local().Format("2006-01-02 15:04"))
	}
	b.WriteString("\n")
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", joinTags(t.Tags))
	}
	b.WriteString("\n")
	b.WriteString(t.Description)
	b.WriteString("\n")
	if len(t.Images) > 0 {
		b.WriteString("\nImages:\n")
		for _, img := range t.Images {
			fmt.Fprintf(&b, "  %s\n", img)
		}
	}

	var actions []string
	if perms.CanEdit {
		actions = append(actions, "edit")
	}
	if perms.CanDelete {
		actions = append(actions, "delete")
	}
	for _, action := range p.StatusActions() {
		label := "status " + string(action.Status)
		if action.Current {
			label += " (current)"
		}
		actions = append(actions, label)
	}
	if len(actions) > 0 {
		b.WriteString("\n")
		b.WriteString(faintStyle.Render("Actions: " + strings.Join(actions, ", ")))
		b.WriteString("\n")
	}
	return b.String()
}

func joinTags(tags []domain.Tag) string {
	out := make([]string, len(tags))
	for i, tag := range tags {
		out[i] = "#" + string(tag)
	}
	return strings.Join(out, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
