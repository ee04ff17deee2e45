package domain

// Store field paths for the ticket collection. The planner only ever emits
// these; adapters translate them to their backend's naming.
const (
	PathNumber   = "number"
	PathTitle    = "title"
	PathCustomer = "customer_id"
	PathState    = "state_type"
	PathPriority = "priority"
	PathQueue    = "queue"
	PathCreated  = "created_at"
	PathBody     = "messages.body"
)

// SchemaPaths maps semantic field names, as they appear in user language,
// to store field paths. Read-only configuration for the query planner.
var SchemaPaths = map[string]string{
	"number":   PathNumber,
	"title":    PathTitle,
	"customer": PathCustomer,
	"status":   PathState,
	"priority": PathPriority,
	"queue":    PathQueue,
	"created":  PathCreated,
	"body":     PathBody,
}

// OpenStates are the state values that count as "still open".
var OpenStates = []string{"open", "new", "pending"}
