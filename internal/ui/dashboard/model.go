package dashboard

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticket-desk/internal/api"
	"github.com/nhle/ticket-desk/internal/keys"
	"github.com/nhle/ticket-desk/internal/theme"
)

// CloseMsg signals the parent to close the dashboard.
type CloseMsg struct{}

// statsLoadedMsg carries the fetched counters.
type statsLoadedMsg struct {
	stats *api.Stats
	err   error
}

// Model is the dashboard counters view.
type Model struct {
	client  *api.Client
	keys    *keys.KeyMap
	stats   *api.Stats
	errMsg  string
	loading bool
	width   int
	height  int
}

// New creates a dashboard view backed by the API client.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	return Model{
		client: client,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init fetches the counters.
func (m Model) Init() tea.Cmd {
	return m.loadStats()
}

// Update handles messages for the dashboard view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.stats = msg.stats
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			return m, m.loadStats()
		}
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	if m.loading || m.stats == nil {
		if m.errMsg != "" {
			return style.Render(lipgloss.NewStyle().
				Foreground(theme.ColorRed).
				Render("Failed to load stats: " + m.errMsg))
		}
		return style.Render(lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render("Loading stats..."))
	}

	var b strings.Builder
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Dashboard"))
	b.WriteString("\n\n")

	b.WriteString(m.renderCounter("Total tickets", m.stats.TotalTickets, theme.ColorWhite))
	b.WriteString(m.renderCounter("Open", m.stats.OpenTickets, theme.ColorBlue))
	b.WriteString(m.renderCounter("In progress", m.stats.InProgressTickets, theme.ColorYellow))
	b.WriteString(m.renderCounter("Resolved", m.stats.ResolvedTickets, theme.ColorGreen))
	b.WriteString(m.renderCounter("Closed", m.stats.ClosedTickets, theme.ColorGray))
	b.WriteString(m.renderCounter("Unassigned", m.stats.UnassignedTickets, theme.ColorOrange))

	if m.stats.TotalUsers > 0 || m.stats.TotalAgents > 0 {
		b.WriteString("\n")
		b.WriteString(m.renderCounter("Users", m.stats.TotalUsers, theme.ColorWhite))
		b.WriteString(m.renderCounter("Agents", m.stats.TotalAgents, theme.ColorWhite))
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"r refresh | esc back",
	))

	return style.Render(b.String())
}

func (m Model) renderCounter(label string, value int, color lipgloss.AdaptiveColor) string {
	labelStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(16)
	valStyle := lipgloss.NewStyle().Bold(true).Foreground(color)
	return fmt.Sprintf("%s %s\n", labelStyle.Render(label), valStyle.Render(fmt.Sprintf("%d", value)))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) loadStats() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		stats, err := client.GetStats(context.Background())
		return statsLoadedMsg{stats: stats, err: err}
	}
}
