package projection

import (
	"fmt"
	"testing"
	"time"

	"github.com/nhle/ticket-desk/internal/model"
)

func makeNotification(id string, createdAt time.Time, read bool) model.Notification {
	n := model.Notification{
		ID:        id,
		CreatedAt: createdAt,
		Data: model.NotificationData{
			Type:    model.NotifyNewTicket,
			Message: "notification " + id,
		},
	}
	if read {
		readAt := createdAt.Add(time.Minute)
		n.ReadAt = &readAt
	}
	return n
}

// checkUnreadInvariant verifies that the derived unread count always
// equals the number of list entries without a read timestamp.
func checkUnreadInvariant(t *testing.T, s *NotificationStore) {
	t.Helper()
	want := 0
	for _, n := range s.Notifications() {
		if !n.IsRead() {
			want++
		}
	}
	if got := s.UnreadCount(); got != want {
		t.Errorf("UnreadCount() = %d, want %d (entries without ReadAt)", got, want)
	}
}

func TestSetAllSortsDescendingAndCounts(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	unread := []model.Notification{
		makeNotification("n1", base, false),
		makeNotification("n3", base.Add(2*time.Hour), false),
	}
	read := []model.Notification{
		makeNotification("n2", base.Add(time.Hour), true),
	}

	s := NewNotificationStore()
	s.SetAll(unread, read)

	got := s.Notifications()
	if len(got) != 3 {
		t.Fatalf("got %d notifications, want 3", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].CreatedAt.After(got[i-1].CreatedAt) {
			t.Errorf("list not sorted descending at index %d", i)
		}
	}
	if got[0].ID != "n3" {
		t.Errorf("newest notification is %s, want n3", got[0].ID)
	}
	checkUnreadInvariant(t, s)
}

func TestSetAllRebuildsUnreadTicketSet(t *testing.T) {
	base := time.Now()
	comment := makeNotification("n1", base, false)
	comment.Data.Type = model.NotifyNewComment
	comment.Data.ActionURL = "/tickets/42"

	readComment := makeNotification("n2", base, true)
	readComment.Data.Type = model.NotifyNewComment
	readComment.Data.ActionURL = "/tickets/77"

	s := NewNotificationStore()
	s.SetAll([]model.Notification{comment}, []model.Notification{readComment})

	if !s.TicketHasActivity("42") {
		t.Error("ticket 42 should have unseen activity")
	}
	if s.TicketHasActivity("77") {
		t.Error("ticket 77 from a read notification should not be tracked")
	}

	s.MarkTicketSeen("42")
	if s.TicketHasActivity("42") {
		t.Error("ticket 42 still tracked after MarkTicketSeen")
	}
	// Seeing a ticket must not touch notification read state.
	checkUnreadInvariant(t, s)
}

func TestUnreadTicketIDsSeedListBadges(t *testing.T) {
	base := time.Now()
	c1 := makeNotification("n1", base, false)
	c1.Data.Type = model.NotifyNewComment
	c1.Data.ActionURL = "/tickets/5"

	c2 := makeNotification("n2", base, true)
	c2.Data.Type = model.NotifyNewComment
	c2.Data.ActionURL = "/tickets/77"

	s := NewNotificationStore()
	s.SetAll([]model.Notification{c1}, []model.Notification{c2})

	ids := s.UnreadTicketIDs()
	if len(ids) != 1 || ids[0] != "5" {
		t.Fatalf("UnreadTicketIDs() = %v, want [5]", ids)
	}

	// The set feeds the listing badge: a ticket whose only activity is
	// an unread comment notification must show as unread.
	l := NewTicketList(ScopeAll, "viewer-1")
	l.SetAll([]model.Ticket{makeTicket("5", "Order not delivered", model.StatusOpen)})
	l.RestoreUnreadIDs(ids)
	if !l.IsUnread("5") {
		t.Error("ticket with unseen comment activity not badged in the listing")
	}

	s.MarkTicketSeen("5")
	if got := s.UnreadTicketIDs(); len(got) != 0 {
		t.Errorf("UnreadTicketIDs() after MarkTicketSeen = %v, want empty", got)
	}
}

func TestApplyPushedIsIdempotent(t *testing.T) {
	s := NewNotificationStore()
	n := makeNotification("n1", time.Now(), false)

	// The same event delivered N times yields exactly one entry.
	for i := 0; i < 5; i++ {
		applied := s.ApplyPushed("ev-1", n)
		if i == 0 && !applied {
			t.Fatal("first delivery not applied")
		}
		if i > 0 && applied {
			t.Errorf("redelivery %d applied again", i)
		}
	}

	if len(s.Notifications()) != 1 {
		t.Errorf("got %d entries, want 1", len(s.Notifications()))
	}
	checkUnreadInvariant(t, s)
}

func TestApplyPushedWithoutEventID(t *testing.T) {
	s := NewNotificationStore()

	// Non-deduplicable events are applied unconditionally, but the
	// presence check by notification id still prevents a duplicate row.
	n := makeNotification("n1", time.Now(), false)
	if !s.ApplyPushed("", n) {
		t.Fatal("first no-id delivery not applied")
	}
	if s.ApplyPushed("", n) {
		t.Error("duplicate notification id applied twice")
	}
	if len(s.Notifications()) != 1 {
		t.Errorf("got %d entries, want 1", len(s.Notifications()))
	}
}

func TestMarkOneRead(t *testing.T) {
	base := time.Now()
	s := NewNotificationStore()
	s.SetAll([]model.Notification{
		makeNotification("1", base.Add(time.Minute), false),
		makeNotification("2", base, false),
	}, nil)

	now := time.Now()
	if !s.MarkOneRead("1", now) {
		t.Fatal("MarkOneRead(1) = false, want true")
	}

	var one, two model.Notification
	for _, n := range s.Notifications() {
		switch n.ID {
		case "1":
			one = n
		case "2":
			two = n
		}
	}
	if one.ReadAt == nil || !one.ReadAt.Equal(now) {
		t.Errorf("notification 1 ReadAt = %v, want %v", one.ReadAt, now)
	}
	if two.ReadAt != nil {
		t.Error("notification 2 should remain unread")
	}
	if s.UnreadCount() != 1 {
		t.Errorf("UnreadCount() = %d, want 1", s.UnreadCount())
	}

	// Already read: no state change, no confirmation call needed.
	if s.MarkOneRead("1", now.Add(time.Hour)) {
		t.Error("MarkOneRead on a read notification returned true")
	}
	if s.MarkOneRead("missing", now) {
		t.Error("MarkOneRead on an unknown id returned true")
	}
	checkUnreadInvariant(t, s)
}

func TestReadStateIsMonotonic(t *testing.T) {
	base := time.Now()
	s := NewNotificationStore()
	s.SetAll([]model.Notification{makeNotification("n1", base, false)}, nil)

	readAt := base.Add(time.Minute)
	s.MarkOneRead("n1", readAt)

	// No subsequent operation may clear ReadAt.
	s.MarkAllRead(base.Add(2 * time.Minute))
	s.ApplyPushed("ev-x", makeNotification("n2", base.Add(time.Hour), false))
	s.MarkTicketSeen("whatever")

	for _, n := range s.Notifications() {
		if n.ID == "n1" {
			if n.ReadAt == nil {
				t.Fatal("ReadAt cleared after later operations")
			}
			if !n.ReadAt.Equal(readAt) {
				t.Errorf("ReadAt moved from %v to %v", readAt, n.ReadAt)
			}
		}
	}
}

func TestMarkAllRead(t *testing.T) {
	base := time.Now()
	s := NewNotificationStore()

	var unread []model.Notification
	for i := 0; i < 4; i++ {
		unread = append(unread, makeNotification(
			fmt.Sprintf("n%d", i), base.Add(time.Duration(i)*time.Minute), false,
		))
	}
	s.SetAll(unread, []model.Notification{makeNotification("r1", base, true)})

	now := time.Now()
	if changed := s.MarkAllRead(now); changed != 4 {
		t.Errorf("MarkAllRead changed %d, want 4", changed)
	}
	if s.UnreadCount() != 0 {
		t.Errorf("UnreadCount() = %d, want 0", s.UnreadCount())
	}
	checkUnreadInvariant(t, s)
}

func TestGroupedByDay(t *testing.T) {
	day1 := time.Date(2026, 3, 2, 23, 30, 0, 0, time.Local)
	day2 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	s := NewNotificationStore()
	s.SetAll([]model.Notification{
		makeNotification("a", day1, false),
		makeNotification("b", day1.Add(-time.Hour), false),
		makeNotification("c", day2, false),
	}, nil)

	groups := s.GroupedByDay()
	if len(groups) != 2 {
		t.Fatalf("got %d day groups, want 2", len(groups))
	}
	if groups[0].Date != "2026-03-02" || len(groups[0].Items) != 2 {
		t.Errorf("first group = %s (%d items), want 2026-03-02 with 2",
			groups[0].Date, len(groups[0].Items))
	}
	if groups[1].Date != "2026-03-01" || len(groups[1].Items) != 1 {
		t.Errorf("second group = %s (%d items), want 2026-03-01 with 1",
			groups[1].Date, len(groups[1].Items))
	}
}
