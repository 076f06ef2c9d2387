package model

import (
	"strings"
	"time"
)

// NotificationType tags the kind of activity a notification describes.
type NotificationType string

const (
	NotifyNewTicket     NotificationType = "new_ticket"
	NotifyNewComment    NotificationType = "new_comment"
	NotifyStatusUpdated NotificationType = "status_updated"
	NotifyAttachment    NotificationType = "attachment"
)

// NotificationData is the tagged payload carried by a notification.
type NotificationData struct {
	Type      NotificationType `json:"type"`
	Message   string           `json:"message"`
	ActionURL string           `json:"action_url,omitempty"`
}

// Notification is a single entry in the user's notification inbox.
// ReadAt is nil while unread; once set it is never cleared locally.
type Notification struct {
	ID        string           `json:"id"`
	Data      NotificationData `json:"data"`
	ReadAt    *time.Time       `json:"read_at"`
	CreatedAt time.Time        `json:"created_at"`
}

// IsRead reports whether the notification has been read.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

// ActionTicketID extracts the ticket id from the notification's action
// URL (its last path segment). Returns "" when there is no usable URL.
func (n Notification) ActionTicketID() string {
	u := strings.TrimRight(n.Data.ActionURL, "/")
	if u == "" {
		return ""
	}
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
