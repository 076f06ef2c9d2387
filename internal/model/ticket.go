package model

import "time"

// TicketStatus is the workflow state of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

// Statuses lists all ticket statuses in workflow order.
var Statuses = []TicketStatus{
	StatusOpen, StatusInProgress, StatusResolved, StatusClosed,
}

// DisplayName returns the human-readable label for a status.
func (s TicketStatus) DisplayName() string {
	switch s {
	case StatusOpen:
		return "Open"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	case StatusClosed:
		return "Closed"
	default:
		return string(s)
	}
}

// TicketCategory classifies the kind of request a ticket represents.
type TicketCategory string

const (
	CategoryQuestion TicketCategory = "question"
	CategoryRequest  TicketCategory = "request"
	CategoryBlocking TicketCategory = "blocking"
)

// Categories lists all ticket categories.
var Categories = []TicketCategory{
	CategoryQuestion, CategoryRequest, CategoryBlocking,
}

// DisplayName returns the human-readable label for a category.
func (c TicketCategory) DisplayName() string {
	switch c {
	case CategoryQuestion:
		return "Question"
	case CategoryRequest:
		return "Request"
	case CategoryBlocking:
		return "Blocking"
	default:
		return string(c)
	}
}

// UserRef is a lightweight reference to a user embedded in other entities.
type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ticket is the summary projection of a support ticket as served by the
// backend. AssignedAgent is nil until an admin assigns one.
type Ticket struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Status        TicketStatus   `json:"status"`
	Category      TicketCategory `json:"category"`
	Creator       UserRef        `json:"creator"`
	AssignedAgent *UserRef       `json:"assigned_agent,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Comment is a single reply in a ticket's conversation. CorrelationID is
// a client-generated id attached on submission and echoed back by the
// server in push events, so optimistic entries can be matched exactly.
type Comment struct {
	ID            string    `json:"id"`
	TicketID      string    `json:"ticket_id"`
	Content       string    `json:"content"`
	Author        *UserRef  `json:"author"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Attachment is a file attached to a ticket's conversation.
type Attachment struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Author    *UserRef  `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}
