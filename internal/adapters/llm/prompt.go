package llm

import (
	"fmt"
	"strings"

	"github.com/helpdesk-labs/deskmate/internal/domain"
)

const classifySystemPrompt = `
You are the intent classifier of a support-ticket assistant.

Given the user's message and recent conversation, respond with ONLY a JSON
object, no prose and no code fences:

{"action": "...", "confidence": 0.0, "instruction": "..."}

Allowed actions:
- "query": the user wants ticket data (lists, filters, searches). Put a short
  English description of what to fetch in "instruction".
- "summarize": the user wants a summary of a specific ticket. Keep the ticket
  number in "instruction".
- "explain": the user asks what a ticket field or concept means.
- "chat": anything else. Put a short helpful reply in "instruction".

"confidence" is your certainty between 0 and 1.
`

const chatSystemPrompt = `
You are a helpdesk assistant for a support-ticket system. Answer briefly and
concretely. You can list, filter and summarize tickets when asked; mention
that capability when the user seems lost. Never invent ticket data.
`

// BuildClassifyPrompt assembles the user content for a classification call:
// recent turns, remembered entities, then the new message.
func BuildClassifyPrompt(message string, convCtx domain.ConversationContext) string {
	var b strings.Builder

	if len(convCtx.History) > 0 {
		b.WriteString("Recent turns:\n")
		for _, itx := range convCtx.History {
			fmt.Fprintf(&b, "user: %s\nassistant action: %s\n", itx.Input, itx.Decision.Action)
		}
		b.WriteString("\n")
	}

	var known []string
	if convCtx.LastCustomer != "" {
		known = append(known, "customer "+convCtx.LastCustomer)
	}
	if convCtx.LastTicket != "" {
		known = append(known, "ticket "+convCtx.LastTicket)
	}
	if convCtx.LastQueue != "" {
		known = append(known, "queue "+convCtx.LastQueue)
	}
	if len(known) > 0 {
		fmt.Fprintf(&b, "Known context: %s\n\n", strings.Join(known, ", "))
	}

	b.WriteString("New user message:\n")
	b.WriteString(message)
	return b.String()
}

// stripCodeFence removes a surrounding markdown code fence, which models
// add despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
