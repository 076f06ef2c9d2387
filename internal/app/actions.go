package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/nhle/ticket-desk/internal/api"
	"github.com/nhle/ticket-desk/internal/credential"
	"github.com/nhle/ticket-desk/internal/model"
	"github.com/nhle/ticket-desk/internal/projection"
)

// sessionReadyMsg carries the validated viewer identity on startup.
type sessionReadyMsg struct {
	user model.User
}

// sessionInvalidMsg signals that the cached token was rejected.
type sessionInvalidMsg struct {
	err error
}

// ticketsLoadedMsg carries a bulk listing fetch result.
type ticketsLoadedMsg struct {
	scope   projection.Scope
	tickets []model.Ticket
	err     error
}

// cachedTicketsMsg seeds a listing from the local cache before the
// first fetch returns.
type cachedTicketsMsg struct {
	scope     projection.Scope
	tickets   []model.Ticket
	unreadIDs []string
	err       error
}

// notificationsLoadedMsg carries the inbox fetch result.
type notificationsLoadedMsg struct {
	list *api.NotificationList
	err  error
}

// ticketLoadedMsg carries a single-ticket aggregate fetch result.
type ticketLoadedMsg struct {
	ticketID string
	detail   *api.TicketDetail
	err      error
}

// commentCreatedMsg carries the canonical record of a submitted reply.
type commentCreatedMsg struct {
	comment *model.Comment
	err     error
}

// attachmentCreatedMsg carries the canonical record of an upload.
type attachmentCreatedMsg struct {
	attachment *model.Attachment
	err        error
}

// entryDeletedMsg confirms a conversation entry removal.
type entryDeletedMsg struct {
	kind    projection.EntryKind
	entryID string
	err     error
}

// ticketCreatedMsg carries the canonical record of a new ticket.
type ticketCreatedMsg struct {
	ticket *model.Ticket
	err    error
}

// ticketMutatedMsg carries the updated summary after a status change
// or an agent assignment.
type ticketMutatedMsg struct {
	ticket *model.Ticket
	err    error
}

// ticketDeletedMsg confirms a ticket removal.
type ticketDeletedMsg struct {
	ticketID string
	err      error
}

// markReadResultMsg confirms a single read transition; an error means
// the optimistic flip must be reconciled with a refetch.
type markReadResultMsg struct {
	err error
}

// markAllReadResultMsg confirms the bulk read transition.
type markAllReadResultMsg struct {
	err error
}

// agentsLoadedMsg carries the assignable agent roster for the picker.
type agentsLoadedMsg struct {
	ticketID string
	agents   []model.User
	err      error
}

// persistDoneMsg reports the outcome of a background cache write.
type persistDoneMsg struct {
	err error
}

// checkSession validates the cached bearer token against the backend.
func (m Model) checkSession() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		user, err := client.CurrentUser(context.Background())
		if err != nil {
			return sessionInvalidMsg{err: err}
		}
		return sessionReadyMsg{user: *user}
	}
}

// logout revokes the session server-side, clears the stored token, and
// quits.
func (m Model) logout() tea.Cmd {
	client := m.client
	sub := m.sub
	return func() tea.Msg {
		if sub != nil {
			sub.Stop()
		}
		_ = client.Logout(context.Background())
		_ = credential.Delete(credential.SessionTokenKey)
		return tea.Quit()
	}
}

// loadTickets fetches the listing for one scope.
func (m Model) loadTickets(scope projection.Scope) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		var (
			tickets []model.Ticket
			err     error
		)
		if scope == projection.ScopeAll {
			tickets, err = client.ListTickets(context.Background())
		} else {
			tickets, err = client.ListMyTickets(context.Background())
		}
		return ticketsLoadedMsg{scope: scope, tickets: tickets, err: err}
	}
}

// loadCachedTickets reads the last persisted listing so the UI has
// something to show before the first fetch completes.
func (m Model) loadCachedTickets(scope projection.Scope) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		tickets, err := s.GetCachedTickets(ctx, string(scope))
		if err != nil {
			return cachedTicketsMsg{scope: scope, err: err}
		}
		ids, err := s.GetUnreadTicketIDs(ctx, string(scope))
		return cachedTicketsMsg{
			scope:     scope,
			tickets:   tickets,
			unreadIDs: ids,
			err:       err,
		}
	}
}

// persistTickets snapshots a listing projection and writes it to the
// local cache. The snapshot is taken synchronously so the background
// write never races with projection mutations.
func (m Model) persistTickets(scope projection.Scope) tea.Cmd {
	l, ok := m.lists[scope]
	if !ok {
		return nil
	}
	tickets := make([]model.Ticket, len(l.Tickets()))
	copy(tickets, l.Tickets())
	unreadIDs := l.UnreadIDs()

	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		if err := s.UpsertTickets(ctx, string(scope), tickets); err != nil {
			return persistDoneMsg{err: err}
		}
		err := s.ReplaceUnreadTicketIDs(ctx, string(scope), unreadIDs)
		return persistDoneMsg{err: err}
	}
}

// persistTicketSeen clears the ticket's unseen marker in every view's
// persisted set.
func (m Model) persistTicketSeen(ticketID string) tea.Cmd {
	views := make([]string, 0, len(m.lists))
	for scope := range m.lists {
		views = append(views, string(scope))
	}
	s := m.store
	return func() tea.Msg {
		ctx := context.Background()
		for _, view := range views {
			if err := s.MarkTicketSeen(ctx, view, ticketID); err != nil {
				return persistDoneMsg{err: err}
			}
		}
		return persistDoneMsg{}
	}
}

// dropCachedTicket removes a deleted ticket from the local cache.
func (m Model) dropCachedTicket(ticketID string) tea.Cmd {
	s := m.store
	return func() tea.Msg {
		err := s.DeleteCachedTicket(context.Background(), ticketID)
		return persistDoneMsg{err: err}
	}
}

// loadNotifications fetches the full inbox.
func (m Model) loadNotifications() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		list, err := client.ListNotifications(context.Background())
		return notificationsLoadedMsg{list: list, err: err}
	}
}

// loadTicket fetches a single-ticket aggregate.
func (m Model) loadTicket(ticketID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		detail, err := client.GetTicket(context.Background(), ticketID)
		return ticketLoadedMsg{ticketID: ticketID, detail: detail, err: err}
	}
}

// submitComment posts a reply tagged with a client-generated
// correlation id, so the later push echo can be suppressed exactly.
func (m Model) submitComment(ticketID, content string) tea.Cmd {
	client := m.client
	correlationID := uuid.New().String()
	return func() tea.Msg {
		comment, err := client.CreateComment(
			context.Background(), ticketID, content, correlationID,
		)
		return commentCreatedMsg{comment: comment, err: err}
	}
}

// uploadAttachment reads a local file and uploads it onto the ticket.
func (m Model) uploadAttachment(ticketID, path string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		f, err := os.Open(path)
		if err != nil {
			return attachmentCreatedMsg{err: err}
		}
		defer f.Close()

		attachment, err := client.CreateAttachment(
			context.Background(), ticketID, filepath.Base(path), f,
		)
		return attachmentCreatedMsg{attachment: attachment, err: err}
	}
}

// deleteEntry removes a confirmed conversation entry server-side.
func (m Model) deleteEntry(kind projection.EntryKind, entryID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		var err error
		if kind == projection.EntryAttachment {
			err = client.DeleteAttachment(context.Background(), entryID)
		} else {
			err = client.DeleteComment(context.Background(), entryID)
		}
		return entryDeletedMsg{kind: kind, entryID: entryID, err: err}
	}
}

// createTicket submits a new ticket.
func (m Model) createTicket(t api.NewTicket) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		created, err := client.CreateTicket(context.Background(), t)
		return ticketCreatedMsg{ticket: created, err: err}
	}
}

// updateStatus transitions a ticket's status.
func (m Model) updateStatus(ticketID string, status model.TicketStatus) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		updated, err := client.UpdateTicketStatus(
			context.Background(), ticketID, status,
		)
		return ticketMutatedMsg{ticket: updated, err: err}
	}
}

// assignAgent assigns an agent to a ticket.
func (m Model) assignAgent(ticketID, agentID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		updated, err := client.AssignAgent(
			context.Background(), ticketID, agentID,
		)
		return ticketMutatedMsg{ticket: updated, err: err}
	}
}

// deleteTicket removes a ticket server-side.
func (m Model) deleteTicket(ticketID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.DeleteTicket(context.Background(), ticketID)
		return ticketDeletedMsg{ticketID: ticketID, err: err}
	}
}

// loadAgents fetches the assignable roster for the assignment picker.
func (m Model) loadAgents(ticketID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		agents, err := client.ListAgents(context.Background())
		return agentsLoadedMsg{ticketID: ticketID, agents: agents, err: err}
	}
}

// markNotificationRead applies the optimistic Unread → Read flip and
// confirms it server-side. When the flip is a no-op (unknown or already
// read) no call is made.
func (m Model) markNotificationRead(id string) (Model, tea.Cmd) {
	if m.notifications == nil {
		return m, nil
	}
	if !m.notifications.MarkOneRead(id, time.Now()) {
		return m, nil
	}
	m.inboxView.Refresh()

	client := m.client
	return m, func() tea.Msg {
		err := client.MarkNotificationRead(context.Background(), id)
		return markReadResultMsg{err: err}
	}
}

// markAllNotificationsRead applies the optimistic bulk flip and
// confirms it server-side.
func (m Model) markAllNotificationsRead() (Model, tea.Cmd) {
	if m.notifications == nil {
		return m, nil
	}
	if m.notifications.MarkAllRead(time.Now()) == 0 {
		return m, nil
	}
	m.inboxView.Refresh()

	client := m.client
	return m, func() tea.Msg {
		err := client.MarkAllNotificationsRead(context.Background())
		return markAllReadResultMsg{err: err}
	}
}
