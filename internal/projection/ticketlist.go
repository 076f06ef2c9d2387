package projection

import (
	"sort"
	"strings"

	"github.com/nhle/ticket-desk/internal/model"
)

// Scope selects which ticket listing a TicketList mirrors.
type Scope string

const (
	// ScopeAll is the team-wide listing visible to staff.
	ScopeAll Scope = "all"

	// ScopeMine is the listing restricted to tickets the viewer
	// created or is assigned to.
	ScopeMine Scope = "mine"
)

// Filters are the client-side list predicates. Empty fields match
// everything; active fields combine with logical AND.
type Filters struct {
	Search   string
	Status   model.TicketStatus
	Category model.TicketCategory
	AgentID  string
}

// Active reports whether any predicate is set.
func (f Filters) Active() bool {
	return f.Search != "" || f.Status != "" || f.Category != "" || f.AgentID != ""
}

// Matches reports whether a single ticket satisfies all active
// predicates. Search is a case-insensitive substring match on the
// ticket id, title, and creator name; the rest are exact.
func (f Filters) Matches(t model.Ticket) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.ID), q) &&
			!strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Creator.Name), q) {
			return false
		}
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if f.AgentID != "" {
		if t.AssignedAgent == nil || t.AssignedAgent.ID != f.AgentID {
			return false
		}
	}
	return true
}

// ApplyFilters returns the subset of tickets matching all active
// predicates, preserving order. With no active predicates the input is
// returned unchanged.
func ApplyFilters(tickets []model.Ticket, f Filters) []model.Ticket {
	if !f.Active() {
		return tickets
	}
	var out []model.Ticket
	for _, t := range tickets {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// TicketList is the per-listing-page projection of ticket summaries,
// kept in sync with create/update/delete push events. It also tracks
// which tickets have unseen activity; that set is persisted per view by
// the caller so it survives restarts.
type TicketList struct {
	scope    Scope
	viewerID string
	tickets  []model.Ticket
	unread   map[string]struct{}
	dedup    *Deduper
}

// NewTicketList creates an empty projection for the given scope and
// viewer identity.
func NewTicketList(scope Scope, viewerID string) *TicketList {
	return &TicketList{
		scope:    scope,
		viewerID: viewerID,
		unread:   make(map[string]struct{}),
		dedup:    NewDeduper(),
	}
}

// Scope returns the listing scope this projection mirrors.
func (l *TicketList) Scope() Scope {
	return l.scope
}

// SetAll replaces the projection with a bulk fetch result, sorted
// descending by last update.
func (l *TicketList) SetAll(tickets []model.Ticket) {
	sorted := make([]model.Ticket, len(tickets))
	copy(sorted, tickets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UpdatedAt.After(sorted[j].UpdatedAt)
	})
	l.tickets = sorted
}

// Tickets returns the projected summaries, most recently updated first.
func (l *TicketList) Tickets() []model.Ticket {
	return l.tickets
}

// Get returns the projected ticket with the given id, if present.
func (l *TicketList) Get(id string) (model.Ticket, bool) {
	for _, t := range l.tickets {
		if t.ID == id {
			return t, true
		}
	}
	return model.Ticket{}, false
}

// ApplyCreated prepends a ticket from a create push event. The prepend
// is idempotent (already-present ids are skipped) and scope-filtered:
// the mine-scope list ignores tickets that do not belong to the viewer.
// Returns true when the projection changed.
func (l *TicketList) ApplyCreated(eventID string, t model.Ticket) bool {
	if l.dedup.Seen(eventID) {
		return false
	}
	l.dedup.Mark(eventID)

	if !l.inScope(t) {
		return false
	}
	for _, existing := range l.tickets {
		if existing.ID == t.ID {
			return false
		}
	}

	l.tickets = append([]model.Ticket{t}, l.tickets...)
	if t.Creator.ID != l.viewerID {
		l.unread[t.ID] = struct{}{}
	}
	return true
}

// ApplyUpdated merges an updated summary in place by id. Tickets not
// already in this scope are ignored: update events never grow the
// projection. A push echo carrying the summary already projected (the
// viewer's own change, applied from the REST response) is a no-op and
// does not re-mark the ticket unread. Returns true when the projection
// changed.
func (l *TicketList) ApplyUpdated(eventID string, t model.Ticket) bool {
	if l.dedup.Seen(eventID) {
		return false
	}
	l.dedup.Mark(eventID)

	for i := range l.tickets {
		if l.tickets[i].ID != t.ID {
			continue
		}
		if summaryEqual(l.tickets[i], t) {
			return false
		}
		l.tickets[i] = t
		l.unread[t.ID] = struct{}{}
		return true
	}
	return false
}

// summaryEqual compares two ticket summaries field by field. Times are
// compared as instants, not struct values.
func summaryEqual(a, b model.Ticket) bool {
	if (a.AssignedAgent == nil) != (b.AssignedAgent == nil) {
		return false
	}
	if a.AssignedAgent != nil && *a.AssignedAgent != *b.AssignedAgent {
		return false
	}
	return a.ID == b.ID &&
		a.Title == b.Title &&
		a.Description == b.Description &&
		a.Status == b.Status &&
		a.Category == b.Category &&
		a.Creator == b.Creator &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt)
}

// ApplyDeleted removes a ticket by id. Returns true when the projection
// changed.
func (l *TicketList) ApplyDeleted(eventID string, ticketID string) bool {
	if l.dedup.Seen(eventID) {
		return false
	}
	l.dedup.Mark(eventID)

	for i := range l.tickets {
		if l.tickets[i].ID == ticketID {
			l.tickets = append(l.tickets[:i], l.tickets[i+1:]...)
			delete(l.unread, ticketID)
			return true
		}
	}
	return false
}

// CanDelete reports whether the delete action should be offered to the
// viewer for a ticket. This is UI hinting only; the backend enforces
// authorization.
func (l *TicketList) CanDelete(t model.Ticket, viewer model.User) bool {
	return viewer.IsAdmin() || t.Creator.ID == viewer.ID
}

// MarkSeen clears a ticket's unseen-activity marker, invoked when its
// detail view opens.
func (l *TicketList) MarkSeen(ticketID string) {
	delete(l.unread, ticketID)
}

// IsUnread reports whether a ticket has unseen activity.
func (l *TicketList) IsUnread(ticketID string) bool {
	_, ok := l.unread[ticketID]
	return ok
}

// UnreadIDs returns the ticket ids with unseen activity, for persistence.
func (l *TicketList) UnreadIDs() []string {
	ids := make([]string, 0, len(l.unread))
	for id := range l.unread {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RestoreUnreadIDs seeds the unseen-activity set from persisted state.
func (l *TicketList) RestoreUnreadIDs(ids []string) {
	for _, id := range ids {
		l.unread[id] = struct{}{}
	}
}

// inScope reports whether a ticket belongs in this projection.
func (l *TicketList) inScope(t model.Ticket) bool {
	if l.scope == ScopeAll {
		return true
	}
	if t.Creator.ID == l.viewerID {
		return true
	}
	return t.AssignedAgent != nil && t.AssignedAgent.ID == l.viewerID
}
