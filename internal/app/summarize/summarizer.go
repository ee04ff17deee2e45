// Package summarize renders tickets as structured markdown summaries. The
// structured rendering only ever shows fields actually present on the
// record; the optional narrative layer for multi-ticket summaries comes
// from the language model and falls back to structured-only output when
// that call fails.
package summarize

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/helpdesk-labs/deskmate/internal/domain"
	"github.com/helpdesk-labs/deskmate/internal/observability"
)

// MultiSampleSize bounds how many tickets a multi-record summary covers.
const MultiSampleSize = 3

// Summarizer builds ticket summaries. llm may be nil, in which case
// multi-ticket summaries skip the narrative layer.
type Summarizer struct {
	llm domain.LLMClient
}

func NewSummarizer(llm domain.LLMClient) *Summarizer {
	return &Summarizer{llm: llm}
}

// Summarize renders one or more tickets. A single ticket gets the full
// structured treatment; several tickets get per-ticket digests, observed
// cross-ticket patterns, and a best-effort narrative.
func (s *Summarizer) Summarize(ctx context.Context, tickets []*domain.Ticket, convCtx domain.ConversationContext) string {
	switch len(tickets) {
	case 0:
		return "There is nothing to summarize: no tickets matched."
	case 1:
		return s.summarizeOne(tickets[0])
	default:
		return s.summarizeMany(ctx, tickets, convCtx)
	}
}

// analysis holds the derived figures for one ticket.
type analysis struct {
	countsBySender  map[domain.Role]int
	open            bool
	resolution      time.Duration // zero unless closed
	lastActivityBy  domain.Role
	hasLastActivity bool
}

func analyze(t *domain.Ticket) analysis {
	a := analysis{
		countsBySender: make(map[domain.Role]int),
		open:           t.Open(),
	}
	for _, m := range t.Messages {
		a.countsBySender[m.Sender]++
	}
	if last := t.LastMessage(); last != nil {
		a.lastActivityBy = last.Sender
		a.hasLastActivity = true
	}
	if !a.open && t.UpdatedAt.After(t.CreatedAt) {
		a.resolution = t.UpdatedAt.Sub(t.CreatedAt)
	}
	return a
}

// summarizeOne renders the fixed section order: Ticket Information,
// Conversation Overview, Conversation Flow, Analysis, Attachments (when
// present), Next Steps (only while open).
func (s *Summarizer) summarizeOne(t *domain.Ticket) string {
	a := analyze(t)
	var b strings.Builder

	b.WriteString("## Ticket Information\n")
	fmt.Fprintf(&b, "- Number: %s\n", t.Number)
	if t.Title != "" {
		fmt.Fprintf(&b, "- Title: %s\n", t.Title)
	}
	if t.CustomerID != "" {
		fmt.Fprintf(&b, "- Customer: %s\n", t.CustomerID)
	}
	if t.StateType != "" {
		fmt.Fprintf(&b, "- Status: %s\n", t.StateType)
	}
	if t.Priority != "" {
		fmt.Fprintf(&b, "- Priority: %s\n", t.Priority)
	}
	if t.Queue != "" {
		fmt.Fprintf(&b, "- Queue: %s\n", t.Queue)
	}
	if !t.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "- Created: %s\n", t.CreatedAt.Format(time.RFC3339))
	}

	b.WriteString("\n## Conversation Overview\n")
	fmt.Fprintf(&b, "%d message(s)", len(t.Messages))
	if len(t.Messages) > 0 {
		parts := make([]string, 0, len(a.countsBySender))
		for _, role := range []domain.Role{domain.RoleCustomer, domain.RoleAgent, domain.RoleSystem} {
			if n := a.countsBySender[role]; n > 0 {
				parts = append(parts, fmt.Sprintf("%d from %s", n, role))
			}
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}
	b.WriteString("\n")

	if len(t.Messages) > 0 {
		b.WriteString("\n## Conversation Flow\n")
		msgs := make([]domain.TicketMessage, len(t.Messages))
		copy(msgs, t.Messages)
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
		})
		for i, m := range msgs {
			note := ""
			if m.Internal {
				note = " (internal)"
			}
			fmt.Fprintf(&b, "%d. [%s] %s%s: %s\n",
				i+1, m.CreatedAt.Format("2006-01-02 15:04"), m.Sender, note, excerpt(m.Body, 160))
		}
	}

	b.WriteString("\n## Analysis\n")
	if a.open {
		b.WriteString("- State: still open\n")
	} else {
		b.WriteString("- State: closed\n")
		if a.resolution > 0 {
			fmt.Fprintf(&b, "- Time to resolution: %s\n", formatDuration(a.resolution))
		}
	}
	if a.hasLastActivity {
		fmt.Fprintf(&b, "- Last activity by: %s\n", a.lastActivityBy)
	}

	if len(t.Attachments) > 0 {
		b.WriteString("\n## Attachments\n")
		for _, att := range t.Attachments {
			fmt.Fprintf(&b, "- %s (%s, %d bytes)\n", att.Filename, att.MIMEType, att.Size)
		}
	}

	if a.open {
		b.WriteString("\n## Next Steps\n")
		if a.hasLastActivity && a.lastActivityBy == domain.RoleCustomer {
			b.WriteString("- The customer wrote last; an agent reply is due.\n")
		} else {
			b.WriteString("- Waiting on the customer; consider a follow-up if it stays quiet.\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func (s *Summarizer) summarizeMany(ctx context.Context, tickets []*domain.Ticket, convCtx domain.ConversationContext) string {
	log := observability.LoggerFromContext(ctx).With("component", "summarizer")

	sample := tickets
	if len(sample) > MultiSampleSize {
		sample = sample[:MultiSampleSize]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summarizing %d of %d ticket(s):\n", len(sample), len(tickets))
	for _, t := range sample {
		b.WriteString("\n")
		b.WriteString(s.summarizeOne(t))
		b.WriteString("\n")
	}

	if patterns := crossPatterns(sample); patterns != "" {
		b.WriteString("\n## Patterns\n")
		b.WriteString(patterns)
	}

	structured := strings.TrimRight(b.String(), "\n")
	if s.llm == nil {
		return structured
	}

	prompt := narrativePrompt(structured)
	narrative, err := s.llm.Generate(ctx, prompt, convCtx)
	if err != nil || strings.TrimSpace(narrative) == "" {
		log.Warn("narrative generation failed, returning structured summary", "error", err)
		return structured
	}
	return narrative + "\n\n" + structured
}

// crossPatterns notes statuses and queues shared by every sampled ticket.
func crossPatterns(tickets []*domain.Ticket) string {
	if len(tickets) < 2 {
		return ""
	}
	var lines []string
	if v, ok := common(tickets, func(t *domain.Ticket) string { return t.StateType }); ok {
		lines = append(lines, fmt.Sprintf("- All sampled tickets are %s.", v))
	}
	if v, ok := common(tickets, func(t *domain.Ticket) string { return t.Queue }); ok && v != "" {
		lines = append(lines, fmt.Sprintf("- All sampled tickets sit in the %s queue.", v))
	}
	return strings.Join(lines, "\n")
}

func common(tickets []*domain.Ticket, field func(*domain.Ticket) string) (string, bool) {
	v := field(tickets[0])
	for _, t := range tickets[1:] {
		if field(t) != v {
			return "", false
		}
	}
	return v, true
}

func narrativePrompt(structured string) string {
	return "Write a short narrative overview (2-4 sentences) of the following ticket summaries. " +
		"Mention only facts present in the summaries; do not invent details.\n\n" + structured
}

func excerpt(s string, max int) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	if d >= 24*time.Hour {
		days := d / (24 * time.Hour)
		rest := d % (24 * time.Hour)
		return fmt.Sprintf("%dd %s", days, rest.Round(time.Hour))
	}
	return d.String()
}
