package api

import (
	"context"
	"fmt"

	"github.com/nhle/ticket-desk/internal/model"
)

// NotificationList is the bulk notification response, split by read state.
type NotificationList struct {
	Unread []model.Notification `json:"unread"`
	Read   []model.Notification `json:"read"`
}

// ListNotifications retrieves the viewer's full notification inbox.
func (c *Client) ListNotifications(
	ctx context.Context,
) (*NotificationList, error) {
	var list NotificationList
	if err := c.Get(ctx, "/notifications", &list); err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return &list, nil
}

// MarkNotificationRead confirms a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	if err := c.Post(ctx, "/notifications/"+id+"/read", nil, nil); err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	return nil
}

// MarkAllNotificationsRead confirms the whole inbox as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if err := c.Post(ctx, "/notifications/mark-all-as-read", nil, nil); err != nil {
		return fmt.Errorf("marking all notifications read: %w", err)
	}
	return nil
}
