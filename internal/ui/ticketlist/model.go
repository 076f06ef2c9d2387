package ticketlist

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticket-desk/internal/keys"
	"github.com/nhle/ticket-desk/internal/model"
	"github.com/nhle/ticket-desk/internal/projection"
	"github.com/nhle/ticket-desk/internal/theme"
)

// SelectedTicketMsg is sent when the user opens a ticket.
type SelectedTicketMsg struct {
	TicketID string
}

// ScopeToggleMsg asks the parent to switch between the mine/all listings.
type ScopeToggleMsg struct{}

// NewTicketMsg asks the parent to open the new-ticket form.
type NewTicketMsg struct{}

// DeleteTicketMsg asks the parent to start the delete confirmation flow.
type DeleteTicketMsg struct {
	TicketID string
}

// Model is the ticket list view. It renders a TicketList projection; the
// parent owns the projection and calls Reload after mutating it.
type Model struct {
	list        list.Model
	proj        *projection.TicketList
	keys        *keys.KeyMap
	filters     projection.Filters
	statusIdx   int
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// statusCycle is the status filter rotation: no filter, then each status.
var statusCycle = append([]model.TicketStatus{""}, model.Statuses...)

// New creates a ticket list view over the given projection.
func New(proj *projection.TicketList, k *keys.KeyMap, width, height int) Model {
	delegate := ItemDelegate{}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = listTitle(proj.Scope())
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search tickets..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		proj:        proj,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

func listTitle(scope projection.Scope) string {
	if scope == projection.ScopeMine {
		return "My Tickets"
	}
	return "All Tickets"
}

// SetProjection swaps the underlying projection (on scope toggle) and
// re-renders.
func (m *Model) SetProjection(proj *projection.TicketList) tea.Cmd {
	m.proj = proj
	m.list.Title = listTitle(proj.Scope())
	return m.Reload()
}

// Reload rebuilds the visible rows from the projection, applying the
// active client-side filters.
func (m *Model) Reload() tea.Cmd {
	tickets := projection.ApplyFilters(m.proj.Tickets(), m.filters)
	items := make([]list.Item, len(tickets))
	for i, t := range tickets {
		items[i] = TicketItem{Ticket: t, Unread: m.proj.IsUnread(t.ID)}
	}
	return m.list.SetItems(items)
}

// SelectedTicket returns the currently highlighted ticket, if any.
func (m Model) SelectedTicket() (model.Ticket, bool) {
	item, ok := m.list.SelectedItem().(TicketItem)
	if !ok {
		return model.Ticket{}, false
	}
	return item.Ticket, true
}

// Init returns the initial command for the list view.
func (m Model) Init() tea.Cmd {
	return m.Reload()
}

// Update handles messages for the ticket list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(keyMsg)
		}
		return m.handleNormalKeys(keyMsg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filters.Search = m.searchInput.Value()
		return m, m.Reload()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filters.Search = ""
		return m, m.Reload()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(TicketItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTicketMsg{TicketID: item.Ticket.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.ToggleScope):
		return m, func() tea.Msg { return ScopeToggleMsg{} }

	case key.Matches(msg, m.keys.NewTicket):
		return m, func() tea.Msg { return NewTicketMsg{} }

	case key.Matches(msg, m.keys.Delete):
		item, ok := m.list.SelectedItem().(TicketItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return DeleteTicketMsg{TicketID: item.Ticket.ID}
		}

	case msg.String() == "f":
		m.statusIdx = (m.statusIdx + 1) % len(statusCycle)
		m.filters.Status = statusCycle[m.statusIdx]
		return m, m.Reload()

	case msg.String() == "F":
		m.filters = projection.Filters{}
		m.statusIdx = 0
		m.searchInput.Reset()
		return m, m.Reload()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// FilterSummary returns a short description of the active filters for
// the status bar, or "" when no filter is active.
func (m Model) FilterSummary() string {
	if !m.filters.Active() {
		return ""
	}
	var parts []string
	if m.filters.Search != "" {
		parts = append(parts, fmt.Sprintf("search:%q", m.filters.Search))
	}
	if m.filters.Status != "" {
		parts = append(parts, "status:"+string(m.filters.Status))
	}
	if m.filters.Category != "" {
		parts = append(parts, "category:"+string(m.filters.Category))
	}
	if m.filters.AgentID != "" {
		parts = append(parts, "agent:"+m.filters.AgentID)
	}
	return strings.Join(parts, " ")
}

// View renders the ticket list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no tickets are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filters.Active() {
		return style.Render("No matching tickets.\nPress F to clear filters.")
	}

	return style.Render("No tickets.\n\nPress c to open a new ticket.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
