package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/ticket-desk/internal/model"
)

// pickerBindings holds picker form values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type pickerBindings struct {
	status  model.TicketStatus
	agentID string
	confirm bool
}

// pickerState is the shared state of the modal status/assign/delete
// forms launched from the root model.
type pickerState struct {
	form     *huh.Form
	fb       *pickerBindings
	ticketID string
}

// startStatusPick opens the status transition form for a ticket.
func (m Model) startStatusPick(ticketID string) (tea.Model, tea.Cmd) {
	fb := &pickerBindings{}
	if t, ok := m.lists[m.scope].Get(ticketID); ok {
		fb.status = t.Status
	} else if m.detail != nil && m.detail.TicketID() == ticketID {
		fb.status = m.detail.Ticket().Status
	}

	options := make([]huh.Option[model.TicketStatus], 0, len(model.Statuses))
	for _, s := range model.Statuses {
		options = append(options, huh.NewOption(s.DisplayName(), s))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.TicketStatus]().
				Title("Status").
				Options(options...).
				Value(&fb.status),
		),
	).WithWidth(m.pickerWidth())

	m.picker = pickerState{form: form, fb: fb, ticketID: ticketID}
	m.previousView = m.currentView
	m.currentView = ViewStatusPick
	return m, form.Init()
}

// handleAgentsLoaded opens the assignment form once the roster arrives.
func (m Model) handleAgentsLoaded(msg agentsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("loading agents: %v", msg.err)
		return m, nil
	}
	if len(msg.agents) == 0 {
		m.statusMsg = "No agents available to assign."
		return m, nil
	}

	fb := &pickerBindings{}
	options := make([]huh.Option[string], 0, len(msg.agents))
	for _, a := range msg.agents {
		options = append(options, huh.NewOption(a.Name, a.ID))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Assign agent").
				Options(options...).
				Value(&fb.agentID),
		),
	).WithWidth(m.pickerWidth())

	m.picker = pickerState{form: form, fb: fb, ticketID: msg.ticketID}
	m.previousView = m.currentView
	m.currentView = ViewAssignPick
	return m, form.Init()
}

// startDeleteTicket opens the delete confirmation for a ticket. The
// action is only offered to the creator or an admin; the backend
// enforces the rule regardless.
func (m Model) startDeleteTicket(ticketID string) (tea.Model, tea.Cmd) {
	t, ok := m.lists[m.scope].Get(ticketID)
	if !ok || m.user == nil {
		return m, nil
	}
	if !m.lists[m.scope].CanDelete(t, *m.user) {
		m.statusMsg = "Only the ticket creator or an admin can delete a ticket."
		return m, nil
	}

	fb := &pickerBindings{}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete ticket #%s?", t.ID)).
				Description("Its conversation and attachments are removed permanently.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&fb.confirm),
		),
	).WithWidth(m.pickerWidth())

	m.picker = pickerState{form: form, fb: fb, ticketID: ticketID}
	m.previousView = m.currentView
	m.currentView = ViewConfirmDelete
	return m, form.Init()
}

// updatePicker runs the active modal form and dispatches its outcome.
func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.picker.form == nil {
		m.currentView = m.previousView
		return m, nil
	}

	mdl, cmd := m.picker.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.picker.form = f
	}

	switch m.picker.form.State {
	case huh.StateCompleted:
		view := m.currentView
		ticketID := m.picker.ticketID
		fb := m.picker.fb
		m.currentView = m.previousView
		m.picker = pickerState{}

		switch view {
		case ViewStatusPick:
			return m, m.updateStatus(ticketID, fb.status)
		case ViewAssignPick:
			return m, m.assignAgent(ticketID, fb.agentID)
		case ViewConfirmDelete:
			if fb.confirm {
				return m, m.deleteTicket(ticketID)
			}
			return m, nil
		}
		return m, nil

	case huh.StateAborted:
		m.currentView = m.previousView
		m.picker = pickerState{}
		return m, nil
	}

	return m, cmd
}

// pickerView renders the active modal form.
func (m Model) pickerView() string {
	if m.picker.form == nil {
		return ""
	}
	return m.picker.form.View()
}

func (m Model) pickerWidth() int {
	w := m.layout.ContentWidth() - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}
