package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by store adapters for missing documents.
var ErrNotFound = errors.New("not found")

// TicketStore is the external data store the engine queries. It never
// mutates tickets. Find may fail on filters the backend cannot execute;
// the query executor owns recovery.
type TicketStore interface {
	Find(ctx context.Context, filter Filter, opts PlanOptions) ([]*Ticket, error)
}

// ConversationContext gives the language model minimal context about the
// conversation when classifying or generating.
type ConversationContext struct {
	SessionID SessionID
	History   []*Interaction // last few turns, oldest first

	LastCustomer string
	LastTicket   string
	LastQueue    string
}

// LLMClient is the language-model collaborator. Both capabilities are
// fallible (timeouts, malformed output); every caller must have a
// deterministic fallback and never surface these errors to the user.
type LLMClient interface {
	// Classify maps a free-form message to a Decision.
	Classify(ctx context.Context, message string, convCtx ConversationContext) (*Decision, error)
	// Generate produces free text for a prompt.
	Generate(ctx context.Context, prompt string, convCtx ConversationContext) (string, error)
}
