package model

// EventType identifies a push-channel event variant.
type EventType string

const (
	EventTicketCreated       EventType = "ticket.created"
	EventTicketUpdated       EventType = "ticket.updated"
	EventTicketDeleted       EventType = "ticket.deleted"
	EventCommentAdded        EventType = "comment.added"
	EventCommentDeleted      EventType = "comment.deleted"
	EventAttachmentAdded     EventType = "attachment.added"
	EventAttachmentDeleted   EventType = "attachment.deleted"
	EventNotificationCreated EventType = "notification.created"
)

// Event is a server-pushed message parsed into a closed set of variants
// at the subscription boundary. Exactly one payload field is set,
// matching Type. ID is the server-assigned event id used for duplicate
// suppression; it may be empty, in which case the event is applied
// unconditionally.
type Event struct {
	ID      string
	Type    EventType
	Channel string

	// ticket.created / ticket.updated
	Ticket *Ticket

	// ticket.deleted
	TicketID string

	// comment.added
	Comment *Comment

	// comment.deleted
	CommentID string

	// attachment.added
	Attachment *Attachment

	// attachment.deleted
	AttachmentID string

	// notification.created
	Notification *Notification
}
