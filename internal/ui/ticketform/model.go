package ticketform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticket-desk/internal/model"
	"github.com/nhle/ticket-desk/internal/theme"
)

// SubmitMsg is dispatched when the user submits the new-ticket form.
type SubmitMsg struct {
	Title       string
	Description string
	Category    model.TicketCategory
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	category    model.TicketCategory
}

// Model is the Bubble Tea model for the new-ticket form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new ticket form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{category: model.CategoryQuestion},
		width:  width,
		height: height,
	}
}

// Start initializes the form for a fresh ticket.
func (m *Model) Start() tea.Cmd {
	m.fb.title = ""
	m.fb.description = ""
	m.fb.category = model.CategoryQuestion
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the ticket form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		fb := m.fb
		return m, func() tea.Msg {
			return SubmitMsg{
				Title:       fb.title,
				Description: fb.description,
				Category:    fb.category,
			}
		}
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the ticket form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("New Ticket") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("Short summary of the problem").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Description").
				Placeholder("What happened? What did you expect?").
				Value(&m.fb.description).
				Validate(validateRequired("Description")),
			huh.NewSelect[model.TicketCategory]().
				Title("Category").
				Options(
					huh.NewOption("Question", model.CategoryQuestion),
					huh.NewOption("Request", model.CategoryRequest),
					huh.NewOption("Blocking", model.CategoryBlocking),
				).
				Value(&m.fb.category),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
