package realtime

import (
	"testing"

	"github.com/nhle/ticket-desk/internal/model"
)

func TestChannelNames(t *testing.T) {
	if got := UserChannel("42"); got != "user.42" {
		t.Errorf("UserChannel(42) = %q", got)
	}
	if got := TicketChannel("7"); got != "ticket.7" {
		t.Errorf("TicketChannel(7) = %q", got)
	}
	if TeamChannel != "team" {
		t.Errorf("TeamChannel = %q", TeamChannel)
	}
}

func TestParseEventVariants(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, ev model.Event)
	}{
		{
			name: "ticket created",
			raw: `{"id":"ev-1","channel":"team","event":"ticket.created",
				"data":{"id":"5","title":"VPN down","status":"open","category":"blocking",
				"creator":{"id":"u1","name":"Marc"}}}`,
			check: func(t *testing.T, ev model.Event) {
				if ev.Type != model.EventTicketCreated || ev.Ticket == nil {
					t.Fatal("wrong variant")
				}
				if ev.Ticket.ID != "5" || ev.Ticket.Status != model.StatusOpen {
					t.Errorf("ticket = %+v", ev.Ticket)
				}
			},
		},
		{
			name: "ticket deleted",
			raw:  `{"id":"ev-2","channel":"team","event":"ticket.deleted","data":{"id":"5"}}`,
			check: func(t *testing.T, ev model.Event) {
				if ev.Type != model.EventTicketDeleted || ev.TicketID != "5" {
					t.Errorf("event = %+v", ev)
				}
			},
		},
		{
			name: "comment added",
			raw: `{"id":"ev-3","channel":"ticket.5","event":"comment.added",
				"data":{"id":"c1","ticket_id":"5","content":"hi",
				"author":{"id":"u2","name":"Ana"},"correlation_id":"corr-1"}}`,
			check: func(t *testing.T, ev model.Event) {
				if ev.Type != model.EventCommentAdded || ev.Comment == nil {
					t.Fatal("wrong variant")
				}
				if ev.Comment.CorrelationID != "corr-1" {
					t.Errorf("correlation id = %q", ev.Comment.CorrelationID)
				}
				if ev.Channel != "ticket.5" {
					t.Errorf("channel = %q", ev.Channel)
				}
			},
		},
		{
			name: "notification created",
			raw: `{"id":"ev-4","channel":"user.9","event":"notification.created",
				"data":{"id":"n1","data":{"type":"new_comment","message":"New reply",
				"action_url":"/tickets/5"},"created_at":"2026-03-01T10:00:00Z"}}`,
			check: func(t *testing.T, ev model.Event) {
				if ev.Type != model.EventNotificationCreated || ev.Notification == nil {
					t.Fatal("wrong variant")
				}
				if ev.Notification.ActionTicketID() != "5" {
					t.Errorf("action ticket id = %q", ev.Notification.ActionTicketID())
				}
			},
		},
		{
			name: "attachment deleted",
			raw:  `{"id":"ev-5","channel":"ticket.5","event":"attachment.deleted","data":{"id":"a1"}}`,
			check: func(t *testing.T, ev model.Event) {
				if ev.Type != model.EventAttachmentDeleted || ev.AttachmentID != "a1" {
					t.Errorf("event = %+v", ev)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := parseEvent([]byte(tt.raw))
			if err != nil {
				t.Fatalf("parseEvent: %v", err)
			}
			tt.check(t, ev)
		})
	}
}

func TestParseEventRejectsMalformedFrames(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{`},
		{"no event type", `{"id":"ev-1","channel":"team","data":{}}`},
		{"unknown event type", `{"event":"ticket.exploded","data":{}}`},
		{"ticket without id", `{"event":"ticket.created","data":{"title":"x"}}`},
		{"deletion without id", `{"event":"comment.deleted","data":{}}`},
		{"wrong payload shape", `{"event":"ticket.created","data":"nope"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseEvent([]byte(tt.raw)); err == nil {
				t.Error("parseEvent accepted a malformed frame")
			}
		})
	}
}

func TestParseEventWithoutID(t *testing.T) {
	// Events may lack an id; they parse fine and are simply
	// non-deduplicable downstream.
	raw := `{"channel":"team","event":"ticket.deleted","data":{"id":"5"}}`
	ev, err := parseEvent([]byte(raw))
	if err != nil {
		t.Fatalf("parseEvent: %v", err)
	}
	if ev.ID != "" {
		t.Errorf("event id = %q, want empty", ev.ID)
	}
}
