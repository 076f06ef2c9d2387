package ticket

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticket-desk/internal/keys"
	"github.com/nhle/ticket-desk/internal/projection"
	"github.com/nhle/ticket-desk/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// ReplyMsg asks the parent to submit a comment on the current ticket.
type ReplyMsg struct {
	TicketID string
	Content  string
}

// AttachMsg asks the parent to upload a file to the current ticket.
type AttachMsg struct {
	TicketID string
	Path     string
}

// StatusChangeMsg asks the parent to open the status picker.
type StatusChangeMsg struct {
	TicketID string
}

// AssignMsg asks the parent to open the agent picker.
type AssignMsg struct {
	TicketID string
}

// DeleteEntryMsg asks the parent to delete a confirmed conversation entry.
type DeleteEntryMsg struct {
	TicketID string
	EntryID  string
	Kind     projection.EntryKind
}

// inputMode tracks what the bottom input line is collecting.
type inputMode int

const (
	inputNone inputMode = iota
	inputReply
	inputAttachPath
)

// Model is the single-ticket conversation view. It renders a
// TicketDetail projection owned by the parent; mutations go through
// messages so the parent can run the REST calls.
type Model struct {
	proj     *projection.TicketDetail
	viewport viewport.Model
	keys     *keys.KeyMap
	input    textinput.Model
	mode     inputMode

	// pendingDelete holds the entry id awaiting the second keypress of
	// the two-step delete confirmation.
	pendingDelete string
	pendingKind   projection.EntryKind

	selectedEntry int
	width         int
	height        int
	loading       bool
}

// New creates a conversation view over the given projection.
func New(proj *projection.TicketDetail, k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-4)
	vp.Style = lipgloss.NewStyle()

	in := textinput.New()
	in.Prompt = "> "
	in.Width = width - 4

	return Model{
		proj:     proj,
		viewport: vp,
		keys:     k,
		input:    in,
		width:    width,
		height:   height,
	}
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
	if loading {
		m.selectedEntry = 0
		m.pendingDelete = ""
	}
}

// Refresh re-renders the conversation from the projection.
func (m *Model) Refresh() {
	m.loading = false
	entries := m.proj.Conversation()
	if m.selectedEntry >= len(entries) {
		m.selectedEntry = len(entries) - 1
	}
	if m.selectedEntry < 0 {
		m.selectedEntry = 0
	}
	m.viewport.SetContent(m.renderContent())
}

// GotoBottom scrolls to the newest entry, used after appending a reply.
func (m *Model) GotoBottom() {
	m.viewport.GotoBottom()
}

// Init returns the initial command for the conversation view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the conversation view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.mode != inputNone {
		return m.handleInputKeys(keyMsg)
	}
	return m.handleNormalKeys(keyMsg)
}

// handleInputKeys processes keys while the reply/attach input is focused.
func (m Model) handleInputKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = inputNone
		m.input.Blur()
		m.input.Reset()

		if value == "" || m.proj.TicketID() == "" {
			return m, nil
		}

		ticketID := m.proj.TicketID()
		if mode == inputReply {
			return m, func() tea.Msg {
				return ReplyMsg{TicketID: ticketID, Content: value}
			}
		}
		return m, func() tea.Msg {
			return AttachMsg{TicketID: ticketID, Path: value}
		}

	case "esc":
		m.mode = inputNone
		m.input.Blur()
		m.input.Reset()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleNormalKeys processes keys in browse mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	entries := m.proj.Conversation()

	switch {
	case key.Matches(msg, m.keys.Back):
		if m.pendingDelete != "" {
			m.pendingDelete = ""
			m.Refresh()
			return m, nil
		}
		return m, func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.Reply):
		if m.proj.TicketID() == "" {
			return m, nil
		}
		m.mode = inputReply
		m.input.Placeholder = "write a reply..."
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Attach):
		if m.proj.TicketID() == "" {
			return m, nil
		}
		m.mode = inputAttachPath
		m.input.Placeholder = "path to file..."
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Status):
		if m.proj.TicketID() == "" {
			return m, nil
		}
		ticketID := m.proj.TicketID()
		return m, func() tea.Msg { return StatusChangeMsg{TicketID: ticketID} }

	case key.Matches(msg, m.keys.Assign):
		if m.proj.TicketID() == "" {
			return m, nil
		}
		ticketID := m.proj.TicketID()
		return m, func() tea.Msg { return AssignMsg{TicketID: ticketID} }

	case key.Matches(msg, m.keys.Down):
		if m.selectedEntry < len(entries)-1 {
			m.selectedEntry++
			m.pendingDelete = ""
			m.Refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selectedEntry > 0 {
			m.selectedEntry--
			m.pendingDelete = ""
			m.Refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		return m.handleDeleteKey(entries)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleDeleteKey implements the two-step delete confirmation: the first
// press arms the delete for the selected entry, the second press on the
// same entry commits it.
func (m Model) handleDeleteKey(entries []projection.Entry) (Model, tea.Cmd) {
	if m.selectedEntry >= len(entries) {
		return m, nil
	}
	e := entries[m.selectedEntry]
	if e.IsDescription() {
		return m, nil
	}

	if m.pendingDelete != e.ID() {
		m.pendingDelete = e.ID()
		m.pendingKind = e.Kind
		m.Refresh()
		return m, nil
	}

	m.pendingDelete = ""
	ticketID := m.proj.TicketID()
	id := e.ID()
	kind := e.Kind
	return m, func() tea.Msg {
		return DeleteEntryMsg{TicketID: ticketID, EntryID: id, Kind: kind}
	}
}

// View renders the conversation view.
func (m Model) View() string {
	if m.loading {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("Loading ticket...")
	}

	if m.proj.Ticket() == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No ticket selected")
	}

	if m.mode != inputNone {
		inputBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.input.View())
		return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), inputBar)
	}

	return m.viewport.View()
}

// renderContent builds the full conversation content for the viewport.
func (m Model) renderContent() string {
	t := m.proj.Ticket()
	if t == nil {
		return ""
	}

	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(
		fmt.Sprintf("#%s  %s", t.ID, t.Title),
	))

	statusBadge := theme.StatusStyle(t.Status).Render(t.Status.DisplayName())
	catBadge := theme.CategoryStyle(t.Category).Render(t.Category.DisplayName())
	badgeLine := lipgloss.JoinHorizontal(lipgloss.Top, statusBadge, "  ", catBadge)
	sections = append(sections, badgeLine)
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	sections = append(sections, fmt.Sprintf(
		"%s  %s",
		metaStyle.Render("Opened by:"),
		valStyle.Render(t.Creator.Name),
	))
	agent := "unassigned"
	if t.AssignedAgent != nil {
		agent = t.AssignedAgent.Name
	}
	sections = append(sections, fmt.Sprintf(
		"%s      %s",
		metaStyle.Render("Agent:"),
		valStyle.Render(agent),
	))
	sections = append(sections, fmt.Sprintf(
		"%s    %s",
		metaStyle.Render("Created:"),
		valStyle.Render(t.CreatedAt.Format("2006-01-02 15:04")),
	))

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	entries := m.proj.Conversation()
	for i, e := range entries {
		sections = append(sections, m.renderEntry(i, e))
		sections = append(sections, "")
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderEntry draws one conversation entry.
func (m Model) renderEntry(idx int, e projection.Entry) string {
	authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	author := ""
	if a := e.Author(); a != nil {
		author = a.Name
	}

	label := ""
	if e.IsDescription() {
		label = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(" [description]")
	}

	marker := "  "
	if idx == m.selectedEntry {
		marker = theme.SelectedItemStyle.Render("▌") + " "
	}

	header := fmt.Sprintf(
		"%s%s%s  %s",
		marker,
		authorStyle.Render(author),
		label,
		timeStyle.Render(e.CreatedAt().Format("2006-01-02 15:04")),
	)

	var body string
	if e.Kind == projection.EntryAttachment {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGreen).
			Render(fmt.Sprintf("📎 %s (%d bytes)", e.Attachment.Filename, e.Attachment.Size))
	} else {
		body = e.Comment.Content
	}

	if idx == m.selectedEntry && m.pendingDelete == e.ID() {
		warn := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed).
			Render("press x again to delete")
		return lipgloss.JoinVertical(lipgloss.Left, header, body, warn)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 4
	m.input.Width = width - 4
}
