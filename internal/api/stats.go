package api

import (
	"context"
	"fmt"
)

// Stats are the role-dependent dashboard counters. The backend omits
// fields the viewer is not entitled to see; absent fields stay zero.
type Stats struct {
	TotalTickets      int `json:"total_tickets"`
	OpenTickets       int `json:"open_tickets"`
	InProgressTickets int `json:"in_progress_tickets"`
	ResolvedTickets   int `json:"resolved_tickets"`
	ClosedTickets     int `json:"closed_tickets"`
	UnassignedTickets int `json:"unassigned_tickets"`
	TotalUsers        int `json:"total_users"`
	TotalAgents       int `json:"total_agents"`
}

// GetStats retrieves the dashboard counters for the viewer.
func (c *Client) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.Get(ctx, "/stats", &stats); err != nil {
		return nil, fmt.Errorf("fetching stats: %w", err)
	}
	return &stats, nil
}
