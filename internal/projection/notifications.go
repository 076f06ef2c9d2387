package projection

import (
	"sort"
	"time"

	"github.com/nhle/ticket-desk/internal/model"
)

// NotificationStore is the local projection of the viewer's notification
// inbox: the list sorted newest-first, the derived unread count, and the
// set of ticket ids with unseen comment activity.
type NotificationStore struct {
	notifications []model.Notification
	unreadCount   int
	unreadTickets map[string]struct{}
	dedup         *Deduper
}

// NewNotificationStore creates an empty notification store.
func NewNotificationStore() *NotificationStore {
	return &NotificationStore{
		unreadTickets: make(map[string]struct{}),
		dedup:         NewDeduper(),
	}
}

// SetAll replaces the store with the bulk fetch result: the union of
// unread and read notifications sorted descending by creation time. The
// unread count is recomputed and the unread-ticket set is rebuilt from
// the unread new_comment notifications' action URLs.
func (s *NotificationStore) SetAll(unread, read []model.Notification) {
	all := make([]model.Notification, 0, len(unread)+len(read))
	all = append(all, unread...)
	all = append(all, read...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	s.notifications = all
	s.unreadCount = 0
	s.unreadTickets = make(map[string]struct{})
	for _, n := range all {
		if n.IsRead() {
			continue
		}
		s.unreadCount++
		s.trackTicket(n)
	}
}

// ApplyPushed merges a pushed notification. Returns false when the
// event was a duplicate or the notification is already present; the
// caller shows a transient alert only when true.
func (s *NotificationStore) ApplyPushed(eventID string, n model.Notification) bool {
	if s.dedup.Seen(eventID) {
		return false
	}
	for _, existing := range s.notifications {
		if existing.ID == n.ID {
			s.dedup.Mark(eventID)
			return false
		}
	}

	s.notifications = append([]model.Notification{n}, s.notifications...)
	if !n.IsRead() {
		s.unreadCount++
		s.trackTicket(n)
	}
	s.dedup.Mark(eventID)
	return true
}

// MarkOneRead applies the optimistic Unread → Read transition. Returns
// false when the notification is unknown or already read, in which case
// no confirmation call should be made.
func (s *NotificationStore) MarkOneRead(id string, now time.Time) bool {
	for i := range s.notifications {
		if s.notifications[i].ID != id {
			continue
		}
		if s.notifications[i].IsRead() {
			return false
		}
		t := now
		s.notifications[i].ReadAt = &t
		if s.unreadCount > 0 {
			s.unreadCount--
		}
		return true
	}
	return false
}

// MarkAllRead applies the optimistic bulk read transition and returns
// how many notifications changed state.
func (s *NotificationStore) MarkAllRead(now time.Time) int {
	changed := 0
	for i := range s.notifications {
		if s.notifications[i].IsRead() {
			continue
		}
		t := now
		s.notifications[i].ReadAt = &t
		changed++
	}
	s.unreadCount = 0
	return changed
}

// MarkTicketSeen clears a ticket from the unseen-activity set. Invoked
// when its detail view opens; read state of the notifications themselves
// is untouched.
func (s *NotificationStore) MarkTicketSeen(ticketID string) {
	delete(s.unreadTickets, ticketID)
}

// Notifications returns the inbox, newest first.
func (s *NotificationStore) Notifications() []model.Notification {
	return s.notifications
}

// UnreadCount returns the number of unread notifications.
func (s *NotificationStore) UnreadCount() int {
	return s.unreadCount
}

// TicketHasActivity reports whether the ticket has unseen comment activity.
func (s *NotificationStore) TicketHasActivity(ticketID string) bool {
	_, ok := s.unreadTickets[ticketID]
	return ok
}

// UnreadTicketIDs returns the ticket ids with unseen comment activity,
// sorted, for seeding the listing badges.
func (s *NotificationStore) UnreadTicketIDs() []string {
	ids := make([]string, 0, len(s.unreadTickets))
	for id := range s.unreadTickets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DayGroup is one day's slice of the inbox, for the grouped view.
type DayGroup struct {
	Date  string // YYYY-MM-DD, local time
	Items []model.Notification
}

// GroupedByDay returns the inbox partitioned by calendar day, newest
// day first, preserving newest-first order within each day.
func (s *NotificationStore) GroupedByDay() []DayGroup {
	var groups []DayGroup
	for _, n := range s.notifications {
		day := n.CreatedAt.Local().Format("2006-01-02")
		if len(groups) == 0 || groups[len(groups)-1].Date != day {
			groups = append(groups, DayGroup{Date: day})
		}
		last := len(groups) - 1
		groups[last].Items = append(groups[last].Items, n)
	}
	return groups
}

// trackTicket records unseen comment activity for the ticket referenced
// by a new_comment notification's action URL.
func (s *NotificationStore) trackTicket(n model.Notification) {
	if n.Data.Type != model.NotifyNewComment {
		return
	}
	if id := n.ActionTicketID(); id != "" {
		s.unreadTickets[id] = struct{}{}
	}
}
