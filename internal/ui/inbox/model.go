package inbox

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticket-desk/internal/keys"
	"github.com/nhle/ticket-desk/internal/model"
	"github.com/nhle/ticket-desk/internal/projection"
	"github.com/nhle/ticket-desk/internal/theme"
)

// CloseMsg signals the parent to close the inbox.
type CloseMsg struct{}

// MarkReadMsg asks the parent to mark one notification read.
type MarkReadMsg struct {
	NotificationID string
}

// MarkAllReadMsg asks the parent to mark every notification read.
type MarkAllReadMsg struct{}

// OpenTicketMsg asks the parent to open the ticket a notification
// points at.
type OpenTicketMsg struct {
	TicketID       string
	NotificationID string
}

// Model is the notification inbox view, rendered from the
// NotificationStore projection grouped by day.
type Model struct {
	proj        *projection.NotificationStore
	viewport    viewport.Model
	keys        *keys.KeyMap
	selectedIdx int
	width       int
	height      int
}

// New creates an inbox view over the given projection.
func New(proj *projection.NotificationStore, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)

	return Model{
		proj:     proj,
		viewport: vp,
		keys:     k,
		width:    width,
		height:   height,
	}
}

// Refresh re-renders the inbox from the projection.
func (m *Model) Refresh() {
	total := len(m.proj.Notifications())
	if m.selectedIdx >= total {
		m.selectedIdx = total - 1
	}
	if m.selectedIdx < 0 {
		m.selectedIdx = 0
	}
	m.viewport.SetContent(m.renderContent())
}

// Init returns the initial command for the inbox view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the inbox view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	notifications := m.proj.Notifications()

	switch {
	case key.Matches(keyMsg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(keyMsg, m.keys.Down):
		if m.selectedIdx < len(notifications)-1 {
			m.selectedIdx++
			m.Refresh()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
			m.Refresh()
		}
		return m, nil

	case key.Matches(keyMsg, m.keys.MarkRead):
		if m.selectedIdx >= len(notifications) {
			return m, nil
		}
		n := notifications[m.selectedIdx]
		if n.IsRead() {
			return m, nil
		}
		return m, func() tea.Msg { return MarkReadMsg{NotificationID: n.ID} }

	case key.Matches(keyMsg, m.keys.MarkAllRead):
		return m, func() tea.Msg { return MarkAllReadMsg{} }

	case key.Matches(keyMsg, m.keys.Select):
		if m.selectedIdx >= len(notifications) {
			return m, nil
		}
		n := notifications[m.selectedIdx]
		ticketID := n.ActionTicketID()
		if ticketID == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			return OpenTicketMsg{TicketID: ticketID, NotificationID: n.ID}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the inbox view.
func (m Model) View() string {
	if len(m.proj.Notifications()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notifications.")
	}

	return m.viewport.View()
}

// renderContent builds the grouped inbox content for the viewport.
func (m Model) renderContent() string {
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	title := "Notifications"
	if unread := m.proj.UnreadCount(); unread > 0 {
		title = fmt.Sprintf("Notifications (%d unread)", unread)
	}
	sections = append(sections, titleStyle.Render(title))
	sections = append(sections, "")

	dayStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray)

	idx := 0
	for _, group := range m.proj.GroupedByDay() {
		sections = append(sections, dayStyle.Render(group.Date))
		for _, n := range group.Items {
			sections = append(sections, m.renderNotification(idx, n))
			idx++
		}
		sections = append(sections, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderNotification draws one inbox row.
func (m Model) renderNotification(idx int, n model.Notification) string {
	marker := "  "
	if !n.IsRead() {
		marker = theme.UnreadBadgeStyle.Render("●") + " "
	}

	typeLabel := lipgloss.NewStyle().
		Foreground(typeColor(n.Data.Type)).
		Render("[" + string(n.Data.Type) + "]")

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(n.CreatedAt.Local().Format("15:04"))

	line := fmt.Sprintf("%s%s %s  %s", marker, typeLabel, n.Data.Message, timeStr)
	if n.IsRead() {
		line = lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
			fmt.Sprintf("%s%s %s  %s",
				strings.Repeat(" ", 2),
				"["+string(n.Data.Type)+"]", n.Data.Message,
				n.CreatedAt.Local().Format("15:04")),
		)
	}

	if idx == m.selectedIdx {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// typeColor maps a notification type to its accent color.
func typeColor(t model.NotificationType) lipgloss.AdaptiveColor {
	switch t {
	case model.NotifyNewTicket:
		return theme.ColorBlue
	case model.NotifyNewComment:
		return theme.ColorGreen
	case model.NotifyStatusUpdated:
		return theme.ColorYellow
	case model.NotifyAttachment:
		return theme.ColorMagenta
	default:
		return theme.ColorGray
	}
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
