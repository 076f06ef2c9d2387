package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/ticket-desk/internal/model"
	"github.com/nhle/ticket-desk/tests/testutil"
)

func sampleTickets() []model.Ticket {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []model.Ticket{
		{
			ID:        "1",
			Title:     "Printer on fire",
			Status:    model.StatusOpen,
			Category:  model.CategoryBlocking,
			Creator:   model.UserRef{ID: "u1", Name: "Marc"},
			CreatedAt: base,
			UpdatedAt: base.Add(2 * time.Hour),
		},
		{
			ID:            "2",
			Title:         "License renewal",
			Status:        model.StatusInProgress,
			Category:      model.CategoryRequest,
			Creator:       model.UserRef{ID: "u2", Name: "Ana"},
			AssignedAgent: &model.UserRef{ID: "a1", Name: "Sam"},
			CreatedAt:     base.Add(time.Hour),
			UpdatedAt:     base.Add(time.Hour),
		},
	}
}

func TestUpsertAndGetCachedTickets(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.UpsertTickets(ctx, "all", sampleTickets()); err != nil {
		t.Fatalf("UpsertTickets: %v", err)
	}

	got, err := s.GetCachedTickets(ctx, "all")
	if err != nil {
		t.Fatalf("GetCachedTickets: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tickets, want 2", len(got))
	}

	// Most recently updated first.
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Errorf("order = [%s, %s], want [1, 2]", got[0].ID, got[1].ID)
	}

	if got[1].AssignedAgent == nil || got[1].AssignedAgent.Name != "Sam" {
		t.Errorf("assigned agent not round-tripped: %+v", got[1].AssignedAgent)
	}
	if got[0].AssignedAgent != nil {
		t.Errorf("unassigned ticket came back with agent %+v", got[0].AssignedAgent)
	}
	if got[0].Status != model.StatusOpen || got[0].Category != model.CategoryBlocking {
		t.Errorf("ticket 1 = %+v", got[0])
	}
}

func TestUpsertTicketsReplacesExisting(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	tickets := sampleTickets()
	if err := s.UpsertTickets(ctx, "all", tickets); err != nil {
		t.Fatalf("UpsertTickets: %v", err)
	}

	tickets[0].Status = model.StatusResolved
	tickets[0].UpdatedAt = tickets[0].UpdatedAt.Add(time.Hour)
	if err := s.UpsertTickets(ctx, "all", tickets[:1]); err != nil {
		t.Fatalf("UpsertTickets: %v", err)
	}

	got, err := s.GetCachedTickets(ctx, "all")
	if err != nil {
		t.Fatalf("GetCachedTickets: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tickets, want 2 (upsert must not duplicate)", len(got))
	}
	if got[0].ID != "1" || got[0].Status != model.StatusResolved {
		t.Errorf("updated ticket = %+v", got[0])
	}
}

func TestCachedTicketsAreScopedPerView(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	tickets := sampleTickets()
	if err := s.UpsertTickets(ctx, "all", tickets); err != nil {
		t.Fatalf("UpsertTickets all: %v", err)
	}
	if err := s.UpsertTickets(ctx, "mine", tickets[:1]); err != nil {
		t.Fatalf("UpsertTickets mine: %v", err)
	}

	mine, err := s.GetCachedTickets(ctx, "mine")
	if err != nil {
		t.Fatalf("GetCachedTickets: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "1" {
		t.Errorf("mine view = %+v", mine)
	}
}

func TestDeleteCachedTicketRemovesFromAllViews(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	tickets := sampleTickets()
	if err := s.UpsertTickets(ctx, "all", tickets); err != nil {
		t.Fatalf("UpsertTickets: %v", err)
	}
	if err := s.UpsertTickets(ctx, "mine", tickets); err != nil {
		t.Fatalf("UpsertTickets: %v", err)
	}

	if err := s.DeleteCachedTicket(ctx, "1"); err != nil {
		t.Fatalf("DeleteCachedTicket: %v", err)
	}

	for _, view := range []string{"all", "mine"} {
		got, err := s.GetCachedTickets(ctx, view)
		if err != nil {
			t.Fatalf("GetCachedTickets(%s): %v", view, err)
		}
		if len(got) != 1 || got[0].ID != "2" {
			t.Errorf("view %s after delete = %+v", view, got)
		}
	}
}

func TestUnreadTicketIDsRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceUnreadTicketIDs(ctx, "all", []string{"7", "3", "5"}); err != nil {
		t.Fatalf("ReplaceUnreadTicketIDs: %v", err)
	}

	got, err := s.GetUnreadTicketIDs(ctx, "all")
	if err != nil {
		t.Fatalf("GetUnreadTicketIDs: %v", err)
	}
	want := []string{"3", "5", "7"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestReplaceUnreadTicketIDsClearsOldSet(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceUnreadTicketIDs(ctx, "all", []string{"1", "2"}); err != nil {
		t.Fatalf("ReplaceUnreadTicketIDs: %v", err)
	}
	if err := s.ReplaceUnreadTicketIDs(ctx, "all", []string{"9"}); err != nil {
		t.Fatalf("ReplaceUnreadTicketIDs: %v", err)
	}

	got, err := s.GetUnreadTicketIDs(ctx, "all")
	if err != nil {
		t.Fatalf("GetUnreadTicketIDs: %v", err)
	}
	if len(got) != 1 || got[0] != "9" {
		t.Errorf("got %v, want [9]", got)
	}
}

func TestMarkTicketSeenIsPerView(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for _, view := range []string{"all", "mine"} {
		if err := s.ReplaceUnreadTicketIDs(ctx, view, []string{"4"}); err != nil {
			t.Fatalf("ReplaceUnreadTicketIDs(%s): %v", view, err)
		}
	}

	if err := s.MarkTicketSeen(ctx, "all", "4"); err != nil {
		t.Fatalf("MarkTicketSeen: %v", err)
	}

	all, err := s.GetUnreadTicketIDs(ctx, "all")
	if err != nil {
		t.Fatalf("GetUnreadTicketIDs: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("all view still unread: %v", all)
	}

	mine, err := s.GetUnreadTicketIDs(ctx, "mine")
	if err != nil {
		t.Fatalf("GetUnreadTicketIDs: %v", err)
	}
	if len(mine) != 1 || mine[0] != "4" {
		t.Errorf("mine view = %v, want [4]", mine)
	}
}

func TestMarkTicketSeenMissingIDIsNoop(t *testing.T) {
	s := testutil.NewTestStore(t)
	if err := s.MarkTicketSeen(context.Background(), "all", "nope"); err != nil {
		t.Errorf("MarkTicketSeen on absent id: %v", err)
	}
}
