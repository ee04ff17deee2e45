package domain

type SessionID string
type TicketID string

// Action is what the intent router decided the caller wants.
type Action string

const (
	ActionChat      Action = "chat"
	ActionExplain   Action = "explain"
	ActionQuery     Action = "query"
	ActionContinue  Action = "continue_query"
	ActionSummarize Action = "summarize"
	ActionError     Action = "error"
)

// Role identifies who wrote a ticket message.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleSystem   Role = "system"
)
