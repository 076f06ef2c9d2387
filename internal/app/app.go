// Package app wires the projections, the REST client, the push channel,
// and the local cache into the root Bubble Tea model.
package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ticket-desk/internal/api"
	"github.com/nhle/ticket-desk/internal/credential"
	"github.com/nhle/ticket-desk/internal/model"
	"github.com/nhle/ticket-desk/internal/projection"
	"github.com/nhle/ticket-desk/internal/realtime"
	"github.com/nhle/ticket-desk/internal/store"
	"github.com/nhle/ticket-desk/internal/ui"
	"github.com/nhle/ticket-desk/internal/ui/command"
	"github.com/nhle/ticket-desk/internal/ui/dashboard"
	helpview "github.com/nhle/ticket-desk/internal/ui/help"
	"github.com/nhle/ticket-desk/internal/ui/inbox"
	loginview "github.com/nhle/ticket-desk/internal/ui/login"
	ticketview "github.com/nhle/ticket-desk/internal/ui/ticket"
	"github.com/nhle/ticket-desk/internal/ui/ticketform"
	"github.com/nhle/ticket-desk/internal/ui/ticketlist"
	"github.com/nhle/ticket-desk/internal/ui/usermgr"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewList
	ViewTicket
	ViewInbox
	ViewTicketForm
	ViewUsers
	ViewDashboard
	ViewHelp
	ViewCommand
	ViewStatusPick
	ViewAssignPick
	ViewConfirmDelete
)

// Model is the root Bubble Tea model that manages view routing, the
// session lifecycle, and synchronization between the backend and the
// local projections.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	cfg          *model.AppConfig
	store        store.Store
	client       *api.Client
	sub          *realtime.Subscriber
	wsURL        string
	keys         *KeyMap

	user  *model.User
	scope projection.Scope

	notifications *projection.NotificationStore
	lists         map[projection.Scope]*projection.TicketList
	detail        *projection.TicketDetail

	// openTicketID guards against stale detail loads after navigation.
	openTicketID string

	loginView   loginview.Model
	listView    ticketlist.Model
	ticketView  ticketview.Model
	inboxView   inbox.Model
	formView    ticketform.Model
	userView    usermgr.Model
	dashView    dashboard.Model
	helpView    helpview.Model
	commandView command.Model

	picker pickerState

	connState realtime.ConnState
	ready     bool
	statusMsg string
	width     int
	height    int
}

// New creates the root application model.
func New(cfg *model.AppConfig, s store.Store, client *api.Client, wsURL string) Model {
	keys := DefaultKeyMap()

	return Model{
		currentView: ViewLogin,
		cfg:         cfg,
		store:       s,
		client:      client,
		wsURL:       wsURL,
		keys:        keys,
		connState:   realtime.ConnOffline,
		loginView:   loginview.New(client, 80, 24),
		helpView:    helpview.New(keys, 80, 24),
		commandView: command.New(80, 24),
	}
}

// Init validates a cached session token when present, otherwise shows
// the sign-in screen.
func (m Model) Init() tea.Cmd {
	if m.client.Token() != "" {
		return m.checkSession()
	}
	return m.loginView.Init()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case loginview.DoneMsg:
		// Best effort: a missing keyring only costs a login next start.
		_ = credential.Set(credential.SessionTokenKey, msg.Session.Token)
		return m.startSession(msg.Session.User)

	case sessionReadyMsg:
		return m.startSession(msg.user)

	case sessionInvalidMsg:
		m.client.SetToken("")
		_ = credential.Delete(credential.SessionTokenKey)
		m.currentView = ViewLogin
		return m, m.loginView.Init()

	case realtime.EventMsg:
		return m.handlePushEvent(msg.Event)

	case realtime.ConnStateMsg:
		return m.handleConnState(msg)

	case cachedTicketsMsg:
		return m.handleCachedTickets(msg)

	case ticketsLoadedMsg:
		return m.handleTicketsLoaded(msg)

	case notificationsLoadedMsg:
		return m.handleNotificationsLoaded(msg)

	case ticketLoadedMsg:
		return m.handleTicketLoaded(msg)

	case commentCreatedMsg:
		return m.handleCommentCreated(msg)

	case attachmentCreatedMsg:
		return m.handleAttachmentCreated(msg)

	case entryDeletedMsg:
		return m.handleEntryDeleted(msg)

	case ticketCreatedMsg:
		return m.handleTicketCreated(msg)

	case ticketMutatedMsg:
		return m.handleTicketMutated(msg)

	case ticketDeletedMsg:
		return m.handleTicketDeleted(msg)

	case markReadResultMsg:
		if msg.err != nil {
			// Reconcile: the optimistic flip may be wrong.
			return m, m.loadNotifications()
		}
		return m, nil

	case markAllReadResultMsg:
		if msg.err != nil {
			return m, m.loadNotifications()
		}
		return m, nil

	case agentsLoadedMsg:
		return m.handleAgentsLoaded(msg)

	case persistDoneMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("cache write failed: %v", msg.err)
		}
		return m, nil

	case ticketlist.SelectedTicketMsg:
		return m.openTicket(msg.TicketID)

	case ticketlist.ScopeToggleMsg:
		return m.toggleScope()

	case ticketlist.NewTicketMsg:
		m.previousView = m.currentView
		m.currentView = ViewTicketForm
		return m, m.formView.Start()

	case ticketlist.DeleteTicketMsg:
		return m.startDeleteTicket(msg.TicketID)

	case ticketview.BackMsg:
		return m.closeTicket()

	case ticketview.ReplyMsg:
		return m, m.submitComment(msg.TicketID, msg.Content)

	case ticketview.AttachMsg:
		return m, m.uploadAttachment(msg.TicketID, msg.Path)

	case ticketview.StatusChangeMsg:
		return m.startStatusPick(msg.TicketID)

	case ticketview.AssignMsg:
		return m, m.loadAgents(msg.TicketID)

	case ticketview.DeleteEntryMsg:
		return m, m.deleteEntry(msg.Kind, msg.EntryID)

	case ticketform.SubmitMsg:
		m.currentView = ViewList
		return m, m.createTicket(api.NewTicket{
			Title:       msg.Title,
			Description: msg.Description,
			Category:    msg.Category,
		})

	case ticketform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case inbox.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case inbox.MarkReadMsg:
		return m.markNotificationRead(msg.NotificationID)

	case inbox.MarkAllReadMsg:
		return m.markAllNotificationsRead()

	case inbox.OpenTicketMsg:
		next, readCmd := m.markNotificationRead(msg.NotificationID)
		next, openCmd := next.openTicket(msg.TicketID)
		return next, tea.Batch(readCmd, openCmd)

	case usermgr.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case dashboard.CloseMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case tea.KeyMsg:
		// Any keypress clears a transient status line.
		m.statusMsg = ""
		if handled, next, cmd := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleResize recomputes the layout and propagates new dimensions.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.layout = ui.NewLayout(msg.Width, msg.Height)
	m.ready = true

	contentWidth := m.layout.ContentWidth()
	contentHeight := m.layout.ContentHeight()

	m.loginView.SetSize(contentWidth, contentHeight)
	m.helpView.SetSize(contentWidth, contentHeight)
	m.commandView.SetSize(contentWidth, contentHeight)

	if m.user != nil {
		m.listView.SetSize(contentWidth, contentHeight)
		m.ticketView.SetSize(contentWidth, contentHeight)
		m.inboxView.SetSize(contentWidth, contentHeight)
		m.formView.SetSize(contentWidth, contentHeight)
		m.userView.SetSize(contentWidth, contentHeight)
		m.dashView.SetSize(contentWidth, contentHeight)
	}

	// Forward to the active view so huh forms can calculate their layout.
	return m.updateActiveView(msg)
}

// startSession builds the per-user projections and views, opens the
// push channel, and kicks off the initial loads.
func (m Model) startSession(user model.User) (tea.Model, tea.Cmd) {
	m.user = &user

	m.scope = projection.ScopeMine
	if user.IsStaff() && m.cfg.Display.DefaultScope == string(projection.ScopeAll) {
		m.scope = projection.ScopeAll
	}

	m.notifications = projection.NewNotificationStore()
	m.lists = map[projection.Scope]*projection.TicketList{
		projection.ScopeMine: projection.NewTicketList(projection.ScopeMine, user.ID),
	}
	if user.IsStaff() {
		m.lists[projection.ScopeAll] = projection.NewTicketList(projection.ScopeAll, user.ID)
	}
	m.detail = projection.NewTicketDetail(user.ID)

	contentWidth := m.layout.ContentWidth()
	contentHeight := m.layout.ContentHeight()
	if contentWidth <= 0 {
		contentWidth, contentHeight = 80, 22
	}
	m.listView = ticketlist.New(m.lists[m.scope], m.keys, contentWidth, contentHeight)
	m.ticketView = ticketview.New(m.detail, m.keys, contentWidth, contentHeight)
	m.inboxView = inbox.New(m.notifications, m.keys, contentWidth, contentHeight)
	m.formView = ticketform.New(contentWidth, contentHeight)
	m.userView = usermgr.New(m.client, m.keys, contentWidth, contentHeight)
	m.dashView = dashboard.New(m.client, m.keys, contentWidth, contentHeight)

	m.sub = realtime.New(m.wsURL, m.client.Token())
	m.sub.Subscribe(realtime.UserChannel(user.ID))
	if user.IsStaff() {
		m.sub.Subscribe(realtime.TeamChannel)
	}

	m.currentView = ViewList

	cmds := []tea.Cmd{
		m.sub.Start(),
		m.loadNotifications(),
	}
	for scope := range m.lists {
		cmds = append(cmds, m.loadCachedTickets(scope), m.loadTickets(scope))
	}
	return m, tea.Batch(cmds...)
}

// toggleScope switches between the mine/all listings for staff.
func (m Model) toggleScope() (tea.Model, tea.Cmd) {
	if m.user == nil || !m.user.IsStaff() {
		return m, nil
	}

	if m.scope == projection.ScopeMine {
		m.scope = projection.ScopeAll
	} else {
		m.scope = projection.ScopeMine
	}
	return m, m.listView.SetProjection(m.lists[m.scope])
}

// openTicket navigates to a ticket's conversation, clears its
// unseen-activity markers, and joins its push channel.
func (m Model) openTicket(ticketID string) (Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewTicket
	m.openTicketID = ticketID
	m.ticketView.SetLoading(true)

	for _, l := range m.lists {
		l.MarkSeen(ticketID)
	}
	m.notifications.MarkTicketSeen(ticketID)

	m.sub.Subscribe(realtime.TicketChannel(ticketID))

	return m, tea.Batch(
		m.loadTicket(ticketID),
		m.persistTicketSeen(ticketID),
		m.listView.Reload(),
	)
}

// closeTicket leaves the conversation view and its push channel.
func (m Model) closeTicket() (tea.Model, tea.Cmd) {
	if m.openTicketID != "" {
		m.sub.Unsubscribe(realtime.TicketChannel(m.openTicketID))
	}
	m.openTicketID = ""
	m.currentView = ViewList
	return m, m.listView.Reload()
}

// handleGlobalKey processes keys that work regardless of the focused
// view. Returns handled=false when the key should fall through.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.sub != nil {
			m.sub.Stop()
		}
		return true, m, tea.Quit

	case "q":
		if m.currentView == ViewList {
			if m.sub != nil {
				m.sub.Stop()
			}
			return true, m, tea.Quit
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		if m.currentView == ViewList || m.currentView == ViewTicket ||
			m.currentView == ViewInbox || m.currentView == ViewDashboard {
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return true, m, nil
		}

	case ":":
		if m.currentView == ViewCommand {
			m.currentView = m.previousView
			return true, m, nil
		}
		if m.currentView == ViewList || m.currentView == ViewInbox ||
			m.currentView == ViewDashboard {
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return true, m, m.commandView.Focus()
		}

	case "n":
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewInbox
			m.inboxView.Refresh()
			return true, m, nil
		}

	case "g":
		if m.currentView == ViewList {
			m.previousView = m.currentView
			m.currentView = ViewDashboard
			return true, m, m.dashView.Init()
		}

	case "u":
		if m.currentView == ViewList && m.user != nil && m.user.IsAdmin() {
			m.previousView = m.currentView
			m.currentView = ViewUsers
			return true, m, m.userView.Init()
		}

	case "r":
		if m.currentView == ViewList && m.user != nil {
			var cmds []tea.Cmd
			for scope := range m.lists {
				cmds = append(cmds, m.loadTickets(scope))
			}
			cmds = append(cmds, m.loadNotifications())
			return true, m, tea.Batch(cmds...)
		}
	}

	return false, m, nil
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch cmd {
	case "quit", "q":
		if m.sub != nil {
			m.sub.Stop()
		}
		return m, tea.Quit

	case "refresh", "sync":
		if m.user == nil {
			return m, nil
		}
		var cmds []tea.Cmd
		for scope := range m.lists {
			cmds = append(cmds, m.loadTickets(scope))
		}
		cmds = append(cmds, m.loadNotifications())
		return m, tea.Batch(cmds...)

	case "inbox", "notifications":
		m.previousView = ViewList
		m.currentView = ViewInbox
		m.inboxView.Refresh()
		return m, nil

	case "dashboard", "stats":
		m.previousView = ViewList
		m.currentView = ViewDashboard
		return m, m.dashView.Init()

	case "users":
		if m.user != nil && m.user.IsAdmin() {
			m.previousView = ViewList
			m.currentView = ViewUsers
			return m, m.userView.Init()
		}
		return m, nil

	case "new", "new ticket":
		m.previousView = ViewList
		m.currentView = ViewTicketForm
		return m, m.formView.Start()

	case "mine", "all":
		if m.scope != projection.Scope(cmd) {
			return m.toggleScope()
		}
		return m, nil

	case "logout":
		return m, m.logout()

	default:
		return m, nil
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewList:
		m.listView, cmd = m.listView.Update(msg)
	case ViewTicket:
		m.ticketView, cmd = m.ticketView.Update(msg)
	case ViewInbox:
		m.inboxView, cmd = m.inboxView.Update(msg)
	case ViewTicketForm:
		m.formView, cmd = m.formView.Update(msg)
	case ViewUsers:
		m.userView, cmd = m.userView.Update(msg)
	case ViewDashboard:
		m.dashView, cmd = m.dashView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewStatusPick, ViewAssignPick, ViewConfirmDelete:
		return m.updatePicker(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.currentView == ViewLogin {
		return m.loginView.View()
	}

	headerTitle := "Ticket Desk"
	if m.notifications != nil {
		if unread := m.notifications.UnreadCount(); unread > 0 {
			headerTitle = fmt.Sprintf("Ticket Desk [%d new]", unread)
		}
	}
	header := m.layout.RenderHeader(headerTitle, m.connStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.listView.View()
	case ViewTicket:
		return m.ticketView.View()
	case ViewInbox:
		return m.inboxView.View()
	case ViewTicketForm:
		return m.formView.View()
	case ViewUsers:
		return m.userView.View()
	case ViewDashboard:
		return m.dashView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewStatusPick, ViewAssignPick, ViewConfirmDelete:
		return m.pickerView()
	default:
		return ""
	}
}

// connStatus describes the push channel state for the header.
func (m Model) connStatus() string {
	switch m.connState {
	case realtime.ConnOnline:
		return "live"
	case realtime.ConnConnecting:
		return "connecting..."
	default:
		return "offline"
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewTicket:
		return "esc back | R reply | A attach | s status | a assign | x delete | j/k scroll"
	case ViewInbox:
		return "enter open ticket | m mark read | M mark all read | esc back"
	case ViewTicketForm:
		return "enter submit | esc cancel"
	case ViewUsers:
		return "n new | e edit | r role | d delete | esc back"
	case ViewDashboard:
		return "r refresh | esc back"
	case ViewStatusPick, ViewAssignPick, ViewConfirmDelete:
		return "enter confirm | esc cancel"
	default:
		filterSummary := m.listView.FilterSummary()
		if filterSummary != "" {
			return filterSummary + " | F clear"
		}
		return "q quit | ? help | enter open | c new | n inbox | tab scope | / search | f filter"
	}
}
