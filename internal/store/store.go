package store

import (
	"context"

	"github.com/nhle/ticket-desk/internal/model"
)

// Store defines the local persistence interface: the offline ticket
// cache and the per-view unseen-activity sets that survive restarts.
// The backend remains the source of truth; everything here is
// rebuildable from a fetch.
type Store interface {
	// === Ticket cache ===

	UpsertTickets(ctx context.Context, view string, tickets []model.Ticket) error
	GetCachedTickets(ctx context.Context, view string) ([]model.Ticket, error)
	DeleteCachedTicket(ctx context.Context, id string) error

	// === Unseen-activity sets, keyed per view ===

	GetUnreadTicketIDs(ctx context.Context, view string) ([]string, error)
	ReplaceUnreadTicketIDs(ctx context.Context, view string, ids []string) error
	MarkTicketSeen(ctx context.Context, view string, ticketID string) error
}
