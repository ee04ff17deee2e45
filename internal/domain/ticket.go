package domain

import "time"

// Ticket is the support case record returned by the data store.
// The engine treats it as read-only; nothing here is ever written back.
type Ticket struct {
	ID         TicketID
	Number     string // external reference, e.g. "2025010610000001"
	Title      string
	CustomerID string // usually the customer's email address
	StateType  string // open | new | pending | closed
	Priority   string
	Queue      string
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Messages    []TicketMessage
	Attachments []Attachment
}

// TicketMessage is one entry in a ticket's conversation timeline.
type TicketMessage struct {
	Sender    Role
	Body      string
	CreatedAt time.Time
	Internal  bool // internal notes are hidden from the customer
}

// Attachment describes a file attached to a ticket.
type Attachment struct {
	Filename string
	MIMEType string
	Size     int64
}

// Open reports whether the ticket is still being worked on.
func (t *Ticket) Open() bool {
	switch t.StateType {
	case "open", "new", "pending":
		return true
	}
	return false
}

// LastMessage returns the most recent message, or nil for an empty timeline.
func (t *Ticket) LastMessage() *TicketMessage {
	if len(t.Messages) == 0 {
		return nil
	}
	return &t.Messages[len(t.Messages)-1]
}
