package ticketlist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticket-desk/internal/model"
	"github.com/nhle/ticket-desk/internal/theme"
)

// TicketItem wraps a model.Ticket so it can be used in a bubbles/list.
type TicketItem struct {
	Ticket model.Ticket
	Unread bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i TicketItem) FilterValue() string { return i.Ticket.Title }

// Title returns the ticket title for the list.
func (i TicketItem) Title() string { return i.Ticket.Title }

// Description returns a short summary line for the list.
func (i TicketItem) Description() string {
	return fmt.Sprintf(
		"#%s | %s | %s",
		i.Ticket.ID,
		i.Ticket.Status.DisplayName(),
		relativeTime(i.Ticket.UpdatedAt),
	)
}

// ItemDelegate implements list.ItemDelegate for rendering ticket rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused for now).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single ticket row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TicketItem)
	if !ok {
		return
	}

	t := ti.Ticket
	isSelected := index == m.Index()

	// Unread activity marker
	prefix := "  "
	if ti.Unread {
		prefix = theme.UnreadBadgeStyle.Render("●") + " "
	}

	idLabel := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("#" + t.ID)

	statusBadge := theme.StatusStyle(t.Status).Render(t.Status.DisplayName())
	catBadge := theme.CategoryStyle(t.Category).Render(t.Category.DisplayName())

	agent := "unassigned"
	if t.AssignedAgent != nil {
		agent = t.AssignedAgent.Name
	}
	agentLabel := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(agent)

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(t.UpdatedAt))

	line := fmt.Sprintf(
		"%s%s %s %s %s  %s  %s",
		prefix, idLabel, statusBadge, catBadge, t.Title, agentLabel, timeStr,
	)

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
