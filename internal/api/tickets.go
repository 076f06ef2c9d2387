package api

import (
	"context"
	"fmt"

	"github.com/nhle/ticket-desk/internal/model"
)

// TicketDetail is the single-ticket aggregate returned by GetTicket:
// the summary plus its full conversation with authors resolved.
type TicketDetail struct {
	model.Ticket

	Comments    []model.Comment    `json:"comments"`
	Attachments []model.Attachment `json:"attachments"`
}

// NewTicket are the ticket creation form fields.
type NewTicket struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    model.TicketCategory `json:"category"`
}

// ListTickets retrieves all tickets visible to staff.
func (c *Client) ListTickets(ctx context.Context) ([]model.Ticket, error) {
	var tickets []model.Ticket
	if err := c.Get(ctx, "/tickets", &tickets); err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	return tickets, nil
}

// ListMyTickets retrieves the tickets the viewer created or is assigned to.
func (c *Client) ListMyTickets(ctx context.Context) ([]model.Ticket, error) {
	var tickets []model.Ticket
	if err := c.Get(ctx, "/tickets/mytickets", &tickets); err != nil {
		return nil, fmt.Errorf("listing my tickets: %w", err)
	}
	return tickets, nil
}

// GetTicket retrieves a single ticket with its conversation.
func (c *Client) GetTicket(
	ctx context.Context,
	id string,
) (*TicketDetail, error) {
	var detail TicketDetail
	if err := c.Get(ctx, "/tickets/"+id, &detail); err != nil {
		return nil, fmt.Errorf("getting ticket %s: %w", id, err)
	}
	return &detail, nil
}

// CreateTicket submits a new ticket and returns the canonical record.
func (c *Client) CreateTicket(
	ctx context.Context,
	t NewTicket,
) (*model.Ticket, error) {
	var created model.Ticket
	if err := c.Post(ctx, "/tickets", t, &created); err != nil {
		return nil, fmt.Errorf("creating ticket: %w", err)
	}
	return &created, nil
}

// UpdateTicketStatus transitions a ticket to the given status and
// returns the updated summary.
func (c *Client) UpdateTicketStatus(
	ctx context.Context,
	id string,
	status model.TicketStatus,
) (*model.Ticket, error) {
	body := map[string]string{"status": string(status)}
	var updated model.Ticket
	if err := c.Put(ctx, "/tickets/"+id+"/status", body, &updated); err != nil {
		return nil, fmt.Errorf("updating status of ticket %s: %w", id, err)
	}
	return &updated, nil
}

// AssignAgent assigns an agent to a ticket and returns the updated summary.
func (c *Client) AssignAgent(
	ctx context.Context,
	id string,
	agentID string,
) (*model.Ticket, error) {
	body := map[string]string{"agent_id": agentID}
	var updated model.Ticket
	if err := c.Post(ctx, "/tickets/"+id+"/assignerAgent", body, &updated); err != nil {
		return nil, fmt.Errorf("assigning agent on ticket %s: %w", id, err)
	}
	return &updated, nil
}

// DeleteTicket removes a ticket. Authorization (creator or admin) is
// enforced server-side; the client only hides the action elsewhere.
func (c *Client) DeleteTicket(ctx context.Context, id string) error {
	if err := c.Delete(ctx, "/tickets/"+id); err != nil {
		return fmt.Errorf("deleting ticket %s: %w", id, err)
	}
	return nil
}
