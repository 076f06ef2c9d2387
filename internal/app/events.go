package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/ticket-desk/internal/model"
	"github.com/nhle/ticket-desk/internal/projection"
	"github.com/nhle/ticket-desk/internal/realtime"
)

// handlePushEvent dispatches one parsed push event to the projections
// and re-arms the wait for the next one.
func (m Model) handlePushEvent(ev model.Event) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.sub.WaitForNext()}

	if m.user == nil {
		return m, tea.Batch(cmds...)
	}

	switch ev.Type {
	case model.EventTicketCreated:
		if ev.Ticket == nil {
			break
		}
		for scope, l := range m.lists {
			if l.ApplyCreated(ev.ID, *ev.Ticket) {
				cmds = append(cmds, m.persistTickets(scope))
			}
		}
		cmds = append(cmds, m.listView.Reload())

	case model.EventTicketUpdated:
		if ev.Ticket == nil {
			break
		}
		for scope, l := range m.lists {
			if l.ApplyUpdated(ev.ID, *ev.Ticket) {
				cmds = append(cmds, m.persistTickets(scope))
			}
		}
		// The open aggregate is refetched whole; merging a summary
		// into a loaded conversation invites drift.
		if m.openTicketID == ev.Ticket.ID {
			cmds = append(cmds, m.loadTicket(ev.Ticket.ID))
		}
		cmds = append(cmds, m.listView.Reload())

	case model.EventTicketDeleted:
		if ev.TicketID == "" {
			break
		}
		for scope, l := range m.lists {
			if l.ApplyDeleted(ev.ID, ev.TicketID) {
				cmds = append(cmds, m.persistTickets(scope))
			}
		}
		cmds = append(cmds, m.dropCachedTicket(ev.TicketID))
		if m.openTicketID == ev.TicketID {
			m.sub.Unsubscribe(realtime.TicketChannel(ev.TicketID))
			m.openTicketID = ""
			m.currentView = ViewList
			m.statusMsg = "This ticket was deleted."
		}
		cmds = append(cmds, m.listView.Reload())

	case model.EventCommentAdded:
		if ev.Comment == nil || m.openTicketID != ev.Comment.TicketID {
			break
		}
		if m.detail.ApplyCommentPushed(ev.ID, *ev.Comment) {
			m.ticketView.Refresh()
			m.ticketView.GotoBottom()
		}

	case model.EventCommentDeleted:
		if ev.CommentID == "" || m.openTicketID == "" {
			break
		}
		if m.detail.RemoveComment(ev.CommentID) {
			m.ticketView.Refresh()
		}

	case model.EventAttachmentAdded:
		if ev.Attachment == nil || m.openTicketID != ev.Attachment.TicketID {
			break
		}
		if m.detail.ApplyAttachmentPushed(ev.ID, *ev.Attachment) {
			m.ticketView.Refresh()
			m.ticketView.GotoBottom()
		}

	case model.EventAttachmentDeleted:
		if ev.AttachmentID == "" || m.openTicketID == "" {
			break
		}
		if m.detail.RemoveAttachment(ev.AttachmentID) {
			m.ticketView.Refresh()
		}

	case model.EventNotificationCreated:
		if ev.Notification == nil {
			break
		}
		if m.notifications.ApplyPushed(ev.ID, *ev.Notification) {
			m.statusMsg = ev.Notification.Data.Message
			m.inboxView.Refresh()
			// New-comment activity badges the ticket in the listings,
			// unless its conversation is already on screen.
			if ev.Notification.Data.Type == model.NotifyNewComment {
				if id := ev.Notification.ActionTicketID(); id != "" && id != m.openTicketID {
					for scope, l := range m.lists {
						l.RestoreUnreadIDs([]string{id})
						cmds = append(cmds, m.persistTickets(scope))
					}
				}
			}
			cmds = append(cmds, m.listView.Reload())
		}
	}

	return m, tea.Batch(cmds...)
}

// handleConnState tracks the push channel health and resyncs every
// projection after a reconnect, since events may have been missed while
// offline.
func (m Model) handleConnState(msg realtime.ConnStateMsg) (tea.Model, tea.Cmd) {
	wasOffline := m.connState != realtime.ConnOnline
	m.connState = msg.State

	cmds := []tea.Cmd{m.sub.WaitForNext()}

	if msg.State == realtime.ConnOnline && wasOffline && m.user != nil {
		for scope := range m.lists {
			cmds = append(cmds, m.loadTickets(scope))
		}
		cmds = append(cmds, m.loadNotifications())
		if m.openTicketID != "" {
			cmds = append(cmds, m.loadTicket(m.openTicketID))
		}
	}

	return m, tea.Batch(cmds...)
}

// handleCachedTickets seeds a listing from the local cache, but only
// when the first fetch has not already populated it.
func (m Model) handleCachedTickets(msg cachedTicketsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("cache read failed: %v", msg.err)
		return m, nil
	}

	l, ok := m.lists[msg.scope]
	if !ok || len(l.Tickets()) > 0 {
		return m, nil
	}

	l.SetAll(msg.tickets)
	l.RestoreUnreadIDs(msg.unreadIDs)

	if msg.scope == m.scope {
		return m, m.listView.Reload()
	}
	return m, nil
}

// handleTicketsLoaded replaces a listing with a fetch result and
// persists it.
func (m Model) handleTicketsLoaded(msg ticketsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("fetch failed: %v", msg.err)
		return m, nil
	}

	l, ok := m.lists[msg.scope]
	if !ok {
		return m, nil
	}
	l.SetAll(msg.tickets)

	cmds := []tea.Cmd{m.persistTickets(msg.scope)}
	if msg.scope == m.scope {
		cmds = append(cmds, m.listView.Reload())
	}
	return m, tea.Batch(cmds...)
}

// handleNotificationsLoaded replaces the inbox projection and folds the
// rebuilt unseen-comment-activity set into the listing badges.
func (m Model) handleNotificationsLoaded(msg notificationsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("loading notifications: %v", msg.err)
		return m, nil
	}

	m.notifications.SetAll(msg.list.Unread, msg.list.Read)
	m.inboxView.Refresh()

	var cmds []tea.Cmd
	if activity := m.notifications.UnreadTicketIDs(); len(activity) > 0 {
		for scope, l := range m.lists {
			l.RestoreUnreadIDs(activity)
			cmds = append(cmds, m.persistTickets(scope))
		}
	}
	cmds = append(cmds, m.listView.Reload())
	return m, tea.Batch(cmds...)
}

// handleTicketLoaded installs a fetched aggregate into the detail
// projection, discarding results for tickets no longer open.
func (m Model) handleTicketLoaded(msg ticketLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.ticketID != m.openTicketID {
		return m, nil
	}

	m.ticketView.SetLoading(false)
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("loading ticket: %v", msg.err)
		return m, nil
	}

	m.detail.SetLoaded(
		msg.detail.Ticket, msg.detail.Comments, msg.detail.Attachments,
	)
	m.ticketView.Refresh()
	m.ticketView.GotoBottom()
	return m, nil
}

// handleCommentCreated applies the canonical reply record.
func (m Model) handleCommentCreated(msg commentCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("sending reply: %v", msg.err)
		return m, nil
	}

	if m.openTicketID == msg.comment.TicketID {
		m.detail.AppendComment(*msg.comment)
		m.ticketView.Refresh()
		m.ticketView.GotoBottom()
	}
	return m, nil
}

// handleAttachmentCreated applies the canonical upload record.
func (m Model) handleAttachmentCreated(msg attachmentCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("uploading attachment: %v", msg.err)
		return m, nil
	}

	if m.openTicketID == msg.attachment.TicketID {
		m.detail.AppendAttachment(*msg.attachment)
		m.ticketView.Refresh()
		m.ticketView.GotoBottom()
	}
	return m, nil
}

// handleEntryDeleted removes a confirmed entry from the conversation.
func (m Model) handleEntryDeleted(msg entryDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("deleting entry: %v", msg.err)
		return m, nil
	}

	if msg.kind == projection.EntryAttachment {
		m.detail.RemoveAttachment(msg.entryID)
	} else {
		m.detail.RemoveComment(msg.entryID)
	}
	m.ticketView.Refresh()
	return m, nil
}

// handleTicketCreated prepends the viewer's new ticket to the listings.
func (m Model) handleTicketCreated(msg ticketCreatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("creating ticket: %v", msg.err)
		return m, nil
	}

	var cmds []tea.Cmd
	for scope, l := range m.lists {
		// An empty event id applies unconditionally; the later push
		// echo is absorbed by the id-presence check.
		if l.ApplyCreated("", *msg.ticket) {
			cmds = append(cmds, m.persistTickets(scope))
		}
	}
	m.statusMsg = fmt.Sprintf("Ticket #%s created.", msg.ticket.ID)
	cmds = append(cmds, m.listView.Reload())
	return m, tea.Batch(cmds...)
}

// handleTicketMutated merges the updated summary after a status change
// or assignment the viewer made.
func (m Model) handleTicketMutated(msg ticketMutatedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("updating ticket: %v", msg.err)
		return m, nil
	}

	var cmds []tea.Cmd
	for scope, l := range m.lists {
		if l.ApplyUpdated("", *msg.ticket) {
			// The viewer made this change themselves.
			l.MarkSeen(msg.ticket.ID)
			cmds = append(cmds, m.persistTickets(scope))
		}
	}
	if m.openTicketID == msg.ticket.ID {
		cmds = append(cmds, m.loadTicket(msg.ticket.ID))
	}
	cmds = append(cmds, m.listView.Reload())
	return m, tea.Batch(cmds...)
}

// handleTicketDeleted removes a ticket the viewer deleted.
func (m Model) handleTicketDeleted(msg ticketDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("deleting ticket: %v", msg.err)
		return m, nil
	}

	cmds := []tea.Cmd{m.dropCachedTicket(msg.ticketID)}
	for scope, l := range m.lists {
		if l.ApplyDeleted("", msg.ticketID) {
			cmds = append(cmds, m.persistTickets(scope))
		}
	}
	if m.openTicketID == msg.ticketID {
		m.sub.Unsubscribe(realtime.TicketChannel(msg.ticketID))
		m.openTicketID = ""
		m.currentView = ViewList
	}
	cmds = append(cmds, m.listView.Reload())
	return m, tea.Batch(cmds...)
}
