// Package intent classifies an incoming message into an action. Cheap
// deterministic rules run first, in priority order; the language model is
// only consulted when no rule matches, and it too has a deterministic
// fallback so classification can never fail.
package intent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/helpdesk-labs/deskmate/internal/domain"
	"github.com/helpdesk-labs/deskmate/internal/observability"
)

// DefaultResumeOffset is where a continuation resumes when the session has
// cached results but no recorded offset (the first page was shown by an
// earlier process, or the offset was lost).
const DefaultResumeOffset = 20

var (
	continuationRe = regexp.MustCompile(`(?i)^\s*(see\s+more|show\s+more|more(\s+results?)?|continue|next)\s*[.!]*\s*$`)
	explainRe      = regexp.MustCompile(`(?i)\b(what\s+is|what's|what\s+are|explain)\b`)
	ticketNumberRe = regexp.MustCompile(`\b\d{8,}\b`)
	emailRe        = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "good morning": {},
	"good afternoon": {}, "good evening": {}, "hola": {},
}

var dataKeywords = []string{
	"list", "show", "find", "get", "display", "all",
	"ticket", "tickets", "customer", "email",
}

// concepts a caller can ask the assistant to explain, with canned answers.
var concepts = map[string]string{
	"ticket":    "A ticket is one customer support case: header fields (number, title, customer, status, priority, queue), a conversation timeline of messages, and any attachments.",
	"status":    "A ticket's status describes where it is in its lifecycle: new, open and pending tickets are still being worked on; closed tickets are done.",
	"priority":  "Priority ranks how urgently a ticket should be handled, typically low, normal or high.",
	"queue":     "A queue groups tickets by team or topic, for example Sales or Support. Every ticket sits in exactly one queue.",
	"customer":  "The customer is the person a ticket is about, identified by their email address.",
	"structure": "Each ticket record has a header (number, title, customer, status, priority, queue, timestamps), an ordered list of messages with sender roles, and a list of attachments.",
}

// conceptOrder fixes match precedence: more specific concepts first, the
// generic "ticket" last so "what is a ticket status" explains status.
var conceptOrder = []string{"structure", "status", "priority", "queue", "customer", "ticket"}

// Router turns free-form text into a Decision. It is safe for concurrent
// use and never returns an error.
type Router struct {
	llm          domain.LLMClient
	resumeOffset int
}

// NewRouter builds a router. resumeOffset <= 0 uses DefaultResumeOffset.
func NewRouter(llm domain.LLMClient, resumeOffset int) *Router {
	if resumeOffset <= 0 {
		resumeOffset = DefaultResumeOffset
	}
	return &Router{llm: llm, resumeOffset: resumeOffset}
}

// Classify resolves text to a Decision using the session for context. The
// session is read, never mutated; the caller holds its lock.
func (r *Router) Classify(ctx context.Context, text string, sess *domain.Session) domain.Decision {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	// 1. Continuation of a cached result set.
	if continuationRe.MatchString(trimmed) {
		if len(sess.Context.LastResults) == 0 {
			return domain.Decision{
				Action:      domain.ActionChat,
				Confidence:  0.9,
				Instruction: "There are no previous results to continue from. Ask me to list or find tickets first.",
			}
		}
		offset := sess.Context.Offset
		if offset == 0 {
			offset = r.resumeOffset
		}
		return domain.Decision{
			Action:       domain.ActionContinue,
			Confidence:   0.95,
			Instruction:  trimmed,
			ResumeOffset: offset,
		}
	}

	// 2. Explanation of a known schema concept.
	if explainRe.MatchString(lower) {
		for _, name := range conceptOrder {
			if strings.Contains(lower, name) {
				return domain.Decision{
					Action:      domain.ActionExplain,
					Confidence:  0.9,
					Instruction: concepts[name],
				}
			}
		}
	}

	// 3. Plain greeting.
	if _, ok := greetings[strings.TrimRight(lower, ".!?")]; ok {
		return domain.Decision{
			Action:      domain.ActionChat,
			Confidence:  1,
			Instruction: "Hello! I can list, filter and summarize support tickets. Try \"show open tickets\" or \"summarize ticket 2025010610000001\".",
		}
	}

	// 4. Summarization with a ticket reference.
	if strings.Contains(lower, "summarize") || strings.Contains(lower, "summary") {
		if ticketNumberRe.MatchString(trimmed) {
			return domain.Decision{
				Action:      domain.ActionSummarize,
				Confidence:  0.9,
				Instruction: trimmed,
			}
		}
	}

	// 5. Data request by keyword.
	if containsAny(lower, dataKeywords) {
		return domain.Decision{
			Action:      domain.ActionQuery,
			Confidence:  0.8,
			Instruction: queryInstruction(lower, trimmed),
		}
	}

	// 6. Language-model fallback, then deterministic heuristic.
	return r.classifyWithLLM(ctx, trimmed, lower, sess)
}

// queryInstruction derives a planner instruction from the message keywords.
func queryInstruction(lower, original string) string {
	switch {
	case strings.Contains(lower, "ticket id") || strings.Contains(lower, "ticket number"):
		return "list ticket numbers only"
	case emailRe.MatchString(original):
		return fmt.Sprintf("list tickets for customer %s", emailRe.FindString(original))
	case strings.Contains(lower, "open") || strings.Contains(lower, "pending"):
		return "list open tickets"
	case strings.Contains(lower, "closed") || strings.Contains(lower, "resolved"):
		return "list closed tickets"
	case strings.Contains(lower, "all"):
		return "list all tickets"
	default:
		return "list tickets"
	}
}

func (r *Router) classifyWithLLM(ctx context.Context, text, lower string, sess *domain.Session) domain.Decision {
	log := observability.LoggerFromContext(ctx).With("component", "intent_router")

	convCtx := domain.ConversationContext{
		SessionID:    sess.ID,
		History:      sess.RecentHistory(3),
		LastCustomer: sess.Context.LastCustomer,
		LastTicket:   sess.Context.LastTicket,
		LastQueue:    sess.Context.LastQueue,
	}

	decision, err := r.llm.Classify(ctx, text, convCtx)
	if err == nil && decision != nil && validAction(decision.Action) {
		log.Info("llm classification", "action", decision.Action, "confidence", decision.Confidence)
		return *decision
	}
	if err != nil {
		log.Warn("llm classification failed, using heuristic", "error", err)
	} else {
		log.Warn("llm returned unusable decision, using heuristic")
	}

	// Deterministic heuristic: never propagate the failure.
	switch {
	case containsAny(lower, dataKeywords):
		return domain.Decision{
			Action:      domain.ActionQuery,
			Confidence:  0.4,
			Instruction: "list tickets",
		}
	case explainRe.MatchString(lower) || strings.Contains(lower, "how"):
		return domain.Decision{
			Action:      domain.ActionExplain,
			Confidence:  0.4,
			Instruction: concepts["structure"],
		}
	default:
		return domain.Decision{
			Action:      domain.ActionChat,
			Confidence:  0.3,
			Instruction: "I can help you explore support tickets: list them, filter by status or customer, or summarize one by its number.",
		}
	}
}

func validAction(a domain.Action) bool {
	switch a {
	case domain.ActionChat, domain.ActionExplain, domain.ActionQuery,
		domain.ActionContinue, domain.ActionSummarize, domain.ActionError:
		return true
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if containsWord(s, w) {
			return true
		}
	}
	return false
}

// containsWord matches w as a whole word inside s.
func containsWord(s, w string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// TicketReference extracts a ticket number from text, or "".
func TicketReference(text string) string {
	return ticketNumberRe.FindString(text)
}
