package usermgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticket-desk/internal/api"
	"github.com/nhle/ticket-desk/internal/keys"
	"github.com/nhle/ticket-desk/internal/model"
	"github.com/nhle/ticket-desk/internal/theme"
)

// CloseMsg signals the parent to close the user admin view.
type CloseMsg struct{}

type userMode int

const (
	modeList userMode = iota
	modeForm
	modeRole
	modeConfirmDelete
)

type formBindings struct {
	name     string
	email    string
	password string
	role     model.Role
	confirm  bool
}

type usersLoadedMsg struct {
	users []model.User
	err   error
}

type userSavedMsg struct{ err error }
type userDeletedMsg struct{ err error }
type roleAssignedMsg struct{ err error }

// Model is the Bubble Tea model for admin user management.
type Model struct {
	mode        userMode
	client      *api.Client
	keys        *keys.KeyMap
	users       []model.User
	selectedIdx int
	editingID   string
	isNew       bool
	form        *huh.Form
	roleForm    *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	statusMsg   string
	width       int
	height      int
}

// New creates a user manager model backed by the API client.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:   modeList,
		client: client,
		keys:   k,
		fb:     &formBindings{},
		width:  width, height: height,
	}
}

// Init loads users from the backend.
func (m Model) Init() tea.Cmd {
	return m.loadUsers()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case usersLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error loading users: %v", msg.err)
			return m, nil
		}
		m.users = msg.users
		if m.selectedIdx >= len(m.users) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.users) - 1
		}
		return m, nil

	case userSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "User saved"
		}
		m.mode = modeList
		return m, m.loadUsers()

	case userDeletedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "User deleted"
		}
		m.mode = modeList
		return m, m.loadUsers()

	case roleAssignedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Role updated"
		}
		m.mode = modeList
		return m, m.loadUsers()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeRole:
		return m.updateRoleForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.users) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.users)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.users) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.users) - 1
			}
		}
		return m, nil

	case msg.String() == "n":
		m.isNew = true
		m.editingID = ""
		m.fb.name = ""
		m.fb.email = ""
		m.fb.password = ""
		m.fb.role = model.RoleClient
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "e":
		if len(m.users) == 0 {
			return m, nil
		}
		u := m.users[m.selectedIdx]
		m.isNew = false
		m.editingID = u.ID
		m.fb.name = u.Name
		m.fb.email = u.Email
		m.fb.password = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "r":
		if len(m.users) == 0 {
			return m, nil
		}
		u := m.users[m.selectedIdx]
		m.fb.role = u.Role
		m.roleForm = m.buildRoleForm(u)
		m.mode = modeRole
		return m, m.roleForm.Init()

	case msg.String() == "d":
		if len(m.users) == 0 {
			return m, nil
		}
		m.fb.confirm = false
		m.confirmForm = m.buildConfirmForm()
		m.mode = modeConfirmDelete
		return m, m.confirmForm.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Name").
			Value(&m.fb.name).
			Validate(validateRequired("Name")),
		huh.NewInput().
			Title("Email").
			Placeholder("user@example.com").
			Value(&m.fb.email).
			Validate(validateRequired("Email")),
	}
	if m.isNew {
		fields = append(fields,
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
			huh.NewSelect[model.Role]().
				Title("Role").
				Options(
					huh.NewOption("Client", model.RoleClient),
					huh.NewOption("Agent", model.RoleAgent),
					huh.NewOption("Admin", model.RoleAdmin),
				).
				Value(&m.fb.role),
		)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildRoleForm(u model.User) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.Role]().
				Title(fmt.Sprintf("Role for %s", u.Name)).
				Options(
					huh.NewOption("Client", model.RoleClient),
					huh.NewOption("Agent", model.RoleAgent),
					huh.NewOption("Admin", model.RoleAdmin),
				).
				Value(&m.fb.role),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConfirmForm() *huh.Form {
	name := ""
	if m.selectedIdx < len(m.users) {
		name = m.users[m.selectedIdx].Name
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete user %q?", name)).
				Description("Their tickets remain but lose the account link.").
				Affirmative("Yes, delete").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}
	if m.form.State == huh.StateCompleted {
		return m, m.saveUser()
	}
	if m.form.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateRoleForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.roleForm == nil {
		return m, nil
	}
	mdl, cmd := m.roleForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.roleForm = f
	}
	if m.roleForm.State == huh.StateCompleted {
		u := m.users[m.selectedIdx]
		return m, m.assignRole(u.ID, m.fb.role)
	}
	if m.roleForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			u := m.users[m.selectedIdx]
			return m, m.deleteUser(u.ID)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeRole:
		return m.updateRoleForm(msg)
	case modeConfirmDelete:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// View renders the user manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeRole:
		return m.viewForm(m.roleForm)
	case modeConfirmDelete:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Users"))
	b.WriteString("\n\n")

	if len(m.users) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No users loaded."))
	} else {
		for i, u := range m.users {
			roleBadge := theme.RoleStyle(u.Role).Render(string(u.Role))
			label := fmt.Sprintf("%s  %s  %s", roleBadge, u.Name, u.Email)

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n new | e edit | r role | d delete | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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

func (m Model) loadUsers() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		users, err := client.ListUsers(context.Background())
		return usersLoadedMsg{users: users, err: err}
	}
}

func (m Model) saveUser() tea.Cmd {
	client := m.client
	fb := m.fb
	editID := m.editingID
	isNew := m.isNew
	return func() tea.Msg {
		ctx := context.Background()
		if isNew {
			_, err := client.CreateUser(ctx, api.NewUser{
				Name:     fb.name,
				Email:    fb.email,
				Password: fb.password,
				Role:     fb.role,
			})
			return userSavedMsg{err: err}
		}
		_, err := client.UpdateUser(ctx, editID, api.UserUpdate{
			Name:  fb.name,
			Email: fb.email,
		})
		return userSavedMsg{err: err}
	}
}

func (m Model) deleteUser(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.DeleteUser(context.Background(), id)
		return userDeletedMsg{err: err}
	}
}

func (m Model) assignRole(id string, role model.Role) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		_, err := client.AssignRole(context.Background(), id, role)
		return roleAssignedMsg{err: err}
	}
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
