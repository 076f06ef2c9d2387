package projection

import (
	"testing"
	"time"

	"github.com/nhle/ticket-desk/internal/model"
)

func makeTicket(id, title string, status model.TicketStatus) model.Ticket {
	return model.Ticket{
		ID:        id,
		Title:     title,
		Status:    status,
		Category:  model.CategoryQuestion,
		Creator:   model.UserRef{ID: "u-creator", Name: "Dana Creator"},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestApplyFilters(t *testing.T) {
	agent := &model.UserRef{ID: "a1", Name: "Agent One"}
	tickets := []model.Ticket{
		makeTicket("5", "Order not delivered", model.StatusOpen),
		makeTicket("6", "Billing question", model.StatusResolved),
		{
			ID:            "7",
			Title:         "VPN down",
			Status:        model.StatusOpen,
			Category:      model.CategoryBlocking,
			Creator:       model.UserRef{ID: "u2", Name: "Marc"},
			AssignedAgent: agent,
		},
	}

	tests := []struct {
		name    string
		filters Filters
		wantIDs []string
	}{
		{"empty filters return all", Filters{}, []string{"5", "6", "7"}},
		{"status only", Filters{Status: model.StatusOpen}, []string{"5", "7"}},
		{"category only", Filters{Category: model.CategoryBlocking}, []string{"7"}},
		{"agent only", Filters{AgentID: "a1"}, []string{"7"}},
		{"search title case-insensitive", Filters{Search: "BILLING"}, []string{"6"}},
		{"search creator name", Filters{Search: "marc"}, []string{"7"}},
		{"search id", Filters{Search: "5"}, []string{"5"}},
		{
			"all predicates AND",
			Filters{Search: "vpn", Status: model.StatusOpen, Category: model.CategoryBlocking, AgentID: "a1"},
			[]string{"7"},
		},
		{
			"conjunction excludes partial matches",
			Filters{Search: "vpn", Status: model.StatusResolved},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(tickets, tt.filters)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d tickets, want %d", len(got), len(tt.wantIDs))
			}
			for i, want := range tt.wantIDs {
				if got[i].ID != want {
					t.Errorf("result[%d].ID = %s, want %s", i, got[i].ID, want)
				}
			}
		})
	}
}

func TestApplyCreatedIsIdempotentAndScoped(t *testing.T) {
	mine := NewTicketList(ScopeMine, "viewer-1")

	owned := makeTicket("10", "My ticket", model.StatusOpen)
	owned.Creator = model.UserRef{ID: "viewer-1", Name: "Viewer"}
	foreign := makeTicket("11", "Someone else's", model.StatusOpen)

	if !mine.ApplyCreated("ev-1", owned) {
		t.Fatal("owned ticket not applied to mine scope")
	}
	if mine.ApplyCreated("ev-1", owned) {
		t.Error("duplicate event id applied again")
	}
	if mine.ApplyCreated("ev-2", owned) {
		t.Error("already-present ticket id prepended again")
	}
	if mine.ApplyCreated("ev-3", foreign) {
		t.Error("out-of-scope ticket applied to mine scope")
	}
	if len(mine.Tickets()) != 1 {
		t.Errorf("got %d tickets, want 1", len(mine.Tickets()))
	}

	all := NewTicketList(ScopeAll, "viewer-1")
	if !all.ApplyCreated("ev-3", foreign) {
		t.Error("ticket not applied to all scope")
	}
}

func TestApplyCreatedAssignedToViewer(t *testing.T) {
	mine := NewTicketList(ScopeMine, "agent-1")
	assigned := makeTicket("12", "Assigned to me", model.StatusOpen)
	assigned.AssignedAgent = &model.UserRef{ID: "agent-1", Name: "Me"}

	if !mine.ApplyCreated("ev-1", assigned) {
		t.Error("ticket assigned to viewer not applied to mine scope")
	}
}

func TestApplyUpdatedMergesInPlace(t *testing.T) {
	l := NewTicketList(ScopeAll, "viewer-1")
	l.SetAll([]model.Ticket{makeTicket("5", "Order not delivered", model.StatusOpen)})

	updated := makeTicket("5", "Order not delivered", model.StatusResolved)
	if !l.ApplyUpdated("ev-1", updated) {
		t.Fatal("update for known ticket not applied")
	}

	got := l.Tickets()
	if len(got) != 1 {
		t.Fatalf("got %d tickets, want 1 (no duplicate)", len(got))
	}
	if got[0].Status != model.StatusResolved {
		t.Errorf("status = %s, want resolved", got[0].Status)
	}

	// Unknown ids are ignored: update events never grow the projection.
	if l.ApplyUpdated("ev-2", makeTicket("99", "Unknown", model.StatusOpen)) {
		t.Error("update for unknown ticket applied")
	}
	if len(l.Tickets()) != 1 {
		t.Errorf("projection grew from an update event")
	}
}

func TestApplyUpdatedEchoDoesNotRebadge(t *testing.T) {
	l := NewTicketList(ScopeAll, "viewer-1")
	l.SetAll([]model.Ticket{makeTicket("5", "a", model.StatusOpen)})

	// The viewer's own status change: the canonical REST response is
	// merged, then the ticket is marked seen.
	updated := makeTicket("5", "a", model.StatusResolved)
	if !l.ApplyUpdated("", updated) {
		t.Fatal("canonical update not applied")
	}
	l.MarkSeen("5")

	// The team-channel echo of that same change carries an identical
	// summary and must not re-mark the ticket unread.
	if l.ApplyUpdated("ev-echo", updated) {
		t.Error("identical echo reported a change")
	}
	if l.IsUnread("5") {
		t.Error("identical echo re-badged the viewer's own change")
	}

	// A genuinely newer summary still badges.
	newer := updated
	newer.Status = model.StatusClosed
	newer.UpdatedAt = updated.UpdatedAt.Add(time.Minute)
	if !l.ApplyUpdated("ev-2", newer) {
		t.Fatal("changed summary not applied")
	}
	if !l.IsUnread("5") {
		t.Error("changed summary did not badge the ticket")
	}
}

func TestApplyDeleted(t *testing.T) {
	l := NewTicketList(ScopeAll, "viewer-1")
	l.SetAll([]model.Ticket{
		makeTicket("3", "a", model.StatusOpen),
		makeTicket("5", "b", model.StatusOpen),
		makeTicket("7", "c", model.StatusOpen),
	})

	if !l.ApplyDeleted("ev-1", "5") {
		t.Fatal("delete for known ticket not applied")
	}

	got := l.Tickets()
	if len(got) != 2 || got[0].ID != "3" || got[1].ID != "7" {
		ids := make([]string, len(got))
		for i, tk := range got {
			ids[i] = tk.ID
		}
		t.Errorf("remaining ids = %v, want [3 7]", ids)
	}

	if l.ApplyDeleted("ev-2", "5") {
		t.Error("delete for absent ticket reported a change")
	}
}

func TestUnreadTracking(t *testing.T) {
	l := NewTicketList(ScopeAll, "viewer-1")
	l.SetAll([]model.Ticket{makeTicket("5", "a", model.StatusOpen)})

	l.ApplyUpdated("ev-1", makeTicket("5", "a", model.StatusInProgress))
	if !l.IsUnread("5") {
		t.Error("updated ticket not marked unread")
	}

	l.MarkSeen("5")
	if l.IsUnread("5") {
		t.Error("ticket still unread after MarkSeen")
	}

	// Own creations arrive already seen; foreign ones do not.
	own := makeTicket("8", "mine", model.StatusOpen)
	own.Creator = model.UserRef{ID: "viewer-1", Name: "Viewer"}
	l.ApplyCreated("ev-2", own)
	if l.IsUnread("8") {
		t.Error("viewer's own ticket marked unread")
	}

	l.ApplyCreated("ev-3", makeTicket("9", "foreign", model.StatusOpen))
	if !l.IsUnread("9") {
		t.Error("foreign created ticket not marked unread")
	}
}

func TestUnreadPersistenceRoundTrip(t *testing.T) {
	l := NewTicketList(ScopeMine, "viewer-1")
	l.RestoreUnreadIDs([]string{"2", "4"})

	if !l.IsUnread("2") || !l.IsUnread("4") {
		t.Error("restored ids not unread")
	}

	ids := l.UnreadIDs()
	if len(ids) != 2 || ids[0] != "2" || ids[1] != "4" {
		t.Errorf("UnreadIDs() = %v, want [2 4]", ids)
	}
}

func TestCanDelete(t *testing.T) {
	l := NewTicketList(ScopeAll, "u1")
	ticket := makeTicket("5", "a", model.StatusOpen)
	ticket.Creator = model.UserRef{ID: "u1", Name: "Creator"}

	creator := model.User{ID: "u1", Role: model.RoleClient}
	admin := model.User{ID: "u9", Role: model.RoleAdmin}
	agent := model.User{ID: "u5", Role: model.RoleAgent}

	if !l.CanDelete(ticket, creator) {
		t.Error("creator should be offered delete")
	}
	if !l.CanDelete(ticket, admin) {
		t.Error("admin should be offered delete")
	}
	if l.CanDelete(ticket, agent) {
		t.Error("unrelated agent should not be offered delete")
	}
}
