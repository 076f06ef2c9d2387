package login

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/ticket-desk/internal/api"
	"github.com/nhle/ticket-desk/internal/theme"
)

// loginMode tracks which screen the login view shows.
type loginMode int

const (
	modeChoice loginMode = iota
	modeLogin
	modeRegister
	modeSubmitting
)

// DoneMsg carries the authenticated session to the parent.
type DoneMsg struct {
	Session *api.Session
}

// resultMsg is the internal outcome of a login/register attempt.
type resultMsg struct {
	session *api.Session
	err     error
}

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	choice   string
	name     string
	email    string
	password string
	confirm  string
}

// Model is the Bubble Tea model for the sign-in screen.
type Model struct {
	mode   loginMode
	client *api.Client
	form   *huh.Form
	fb     *formBindings

	spinner spinner.Model
	errMsg  string
	width   int
	height  int
}

// New creates a login view using the given API client.
func New(client *api.Client, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    modeChoice,
		client:  client,
		fb:      &formBindings{choice: "login"},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init shows the sign-in/register choice.
func (m Model) Init() tea.Cmd {
	return m.startChoice()
}

func (m *Model) startChoice() tea.Cmd {
	m.mode = modeChoice
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Welcome").
				Description("Sign in to your helpdesk account").
				Options(
					huh.NewOption("Sign in", "login"),
					huh.NewOption("Create an account", "register"),
				).
				Value(&m.fb.choice),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

func (m *Model) startLogin() tea.Cmd {
	m.mode = modeLogin
	m.fb.password = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

func (m *Model) startRegister() tea.Cmd {
	m.mode = modeRegister
	m.fb.password = ""
	m.fb.confirm = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Value(&m.fb.name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.fb.email).
				Validate(validateRequired("Email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			if m.mode == modeSubmitting {
				return m, m.startLogin()
			}
			return m, nil
		}
		session := msg.session
		return m, func() tea.Msg { return DoneMsg{Session: session} }

	case spinner.TickMsg:
		if m.mode == modeSubmitting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.form == nil || m.mode == modeSubmitting {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.handleCompleted()
	}
	if m.form.State == huh.StateAborted {
		if m.mode == modeChoice {
			return m, tea.Quit
		}
		return m, m.startChoice()
	}

	return m, cmd
}

func (m Model) handleCompleted() (Model, tea.Cmd) {
	switch m.mode {
	case modeChoice:
		m.errMsg = ""
		if m.fb.choice == "register" {
			return m, m.startRegister()
		}
		return m, m.startLogin()

	case modeLogin:
		m.mode = modeSubmitting
		return m, tea.Batch(m.spinner.Tick, m.submitLogin())

	case modeRegister:
		if m.fb.password != m.fb.confirm {
			m.errMsg = "passwords do not match"
			return m, m.startRegister()
		}
		m.mode = modeSubmitting
		return m, tea.Batch(m.spinner.Tick, m.submitRegister())
	}
	return m, nil
}

func (m Model) submitLogin() tea.Cmd {
	client := m.client
	creds := api.Credentials{Email: m.fb.email, Password: m.fb.password}
	return func() tea.Msg {
		session, err := client.Login(context.Background(), creds)
		return resultMsg{session: session, err: err}
	}
}

func (m Model) submitRegister() tea.Cmd {
	client := m.client
	reg := api.Registration{
		Name:                 m.fb.name,
		Email:                m.fb.email,
		Password:             m.fb.password,
		PasswordConfirmation: m.fb.confirm,
	}
	return func() tea.Msg {
		session, err := client.Register(context.Background(), reg)
		return resultMsg{session: session, err: err}
	}
}

// View renders the login view.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	if m.mode == modeSubmitting {
		return style.Render(fmt.Sprintf("%s Signing in...", m.spinner.View()))
	}

	var b strings.Builder
	if m.form != nil {
		b.WriteString(m.form.View())
	}
	if m.errMsg != "" {
		b.WriteString("\n\n")
		b.WriteString(lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed).
			Render(m.errMsg))
	}

	return style.Render(b.String())
}

// SetSize updates the view dimensions.
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

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}
