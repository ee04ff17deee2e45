package chat_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/helpdesk-labs/deskmate/internal/adapters/llm"
	memstore "github.com/helpdesk-labs/deskmate/internal/adapters/store/memory"
	"github.com/helpdesk-labs/deskmate/internal/app/chat"
	"github.com/helpdesk-labs/deskmate/internal/app/intent"
	"github.com/helpdesk-labs/deskmate/internal/app/paginate"
	"github.com/helpdesk-labs/deskmate/internal/app/query"
	"github.com/helpdesk-labs/deskmate/internal/app/summarize"
	"github.com/helpdesk-labs/deskmate/internal/domain"
	"github.com/helpdesk-labs/deskmate/internal/session"
)

// failingStore always errors, to exercise the terminal failure path.
type failingStore struct{}

func (failingStore) Find(context.Context, domain.Filter, domain.PlanOptions) ([]*domain.Ticket, error) {
	return nil, errors.New("store unreachable")
}

func seedTickets(n int) []*domain.Ticket {
	base := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	out := make([]*domain.Ticket, n)
	for i := range out {
		out[i] = &domain.Ticket{
			ID:         domain.TicketID(fmt.Sprintf("t%d", i+1)),
			Number:     fmt.Sprintf("20250106100000%02d", i+1),
			Title:      fmt.Sprintf("Issue %d", i+1),
			CustomerID: "anna@example.com",
			StateType:  "open",
			Queue:      "Support",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
			UpdatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
	}
	return out
}

func newService(store domain.TicketStore) (*chat.Service, *session.Store) {
	llmClient := llm.NewMockLLM()
	sessions := session.NewStore()

	svc := chat.NewService(
		sessions,
		intent.NewRouter(llmClient, 0),
		query.NewPlanner(),
		query.NewExecutor(store, 0),
		paginate.NewPaginator(20, 50),
		summarize.NewSummarizer(llmClient),
		llmClient,
	)
	return svc, sessions
}

func TestHandleListAndContinuation(t *testing.T) {
	store := memstore.NewTicketStore()
	store.Seed(seedTickets(45))
	svc, _ := newService(store)
	ctx := context.Background()

	out := svc.Handle(ctx, "s1", "list all tickets")
	if !out.Success {
		t.Fatalf("listing failed: %+v", out)
	}
	if out.ResultCount != 20 {
		t.Fatalf("first page surfaced %d records, want 20", out.ResultCount)
	}
	if !strings.Contains(out.Response, "Found 45 ticket(s)") {
		t.Fatalf("listing lacks total:\n%s", out.Response)
	}
	if !strings.Contains(out.Response, "see more") {
		t.Fatalf("listing does not invite continuation:\n%s", out.Response)
	}

	out = svc.Handle(ctx, "s1", "see more")
	if out.ResultCount != 20 {
		t.Fatalf("second page surfaced %d records, want 20", out.ResultCount)
	}

	out = svc.Handle(ctx, "s1", "see more")
	if out.ResultCount != 5 {
		t.Fatalf("third page surfaced %d records, want 5", out.ResultCount)
	}
	if !strings.Contains(out.Response, "all of them") {
		t.Fatalf("final page does not state completion:\n%s", out.Response)
	}
}

func TestHandleContinuationOnFreshSession(t *testing.T) {
	store := memstore.NewTicketStore()
	store.Seed(seedTickets(3))
	svc, _ := newService(store)

	out := svc.Handle(context.Background(), "fresh", "show more")
	if !out.Success {
		t.Fatalf("guidance turn reported failure: %+v", out)
	}
	if out.ResultCount != 0 {
		t.Fatalf("resultCount = %d, want 0", out.ResultCount)
	}
	if !strings.Contains(out.Response, "no previous results") {
		t.Fatalf("expected guidance, got:\n%s", out.Response)
	}
}

func TestHandleListIsIdempotent(t *testing.T) {
	store := memstore.NewTicketStore()
	store.Seed(seedTickets(10))
	svc, _ := newService(store)
	ctx := context.Background()

	first := svc.Handle(ctx, "s1", "list all tickets")
	second := svc.Handle(ctx, "s2", "list all tickets")
	if first.Response != second.Response {
		t.Fatalf("same query, different renderings:\n%s\n---\n%s", first.Response, second.Response)
	}
}

func TestHandleSummarizeEndToEnd(t *testing.T) {
	created := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{
		ID:         "t1",
		Number:     "2025010610000001",
		Title:      "VPN broken",
		CustomerID: "anna@example.com",
		StateType:  "open",
		Queue:      "Support",
		CreatedAt:  created,
		Messages: []domain.TicketMessage{
			{Sender: domain.RoleCustomer, Body: "VPN will not connect.", CreatedAt: created},
			{Sender: domain.RoleAgent, Body: "Which error do you see?", CreatedAt: created.Add(time.Hour)},
			{Sender: domain.RoleCustomer, Body: "Error 619.", CreatedAt: created.Add(2 * time.Hour)},
		},
	}
	store := memstore.NewTicketStore()
	store.Seed([]*domain.Ticket{ticket})
	svc, sessions := newService(store)

	out := svc.Handle(context.Background(), "s1", "Summarize ticket 2025010610000001")
	if !out.Success || out.ResultCount != 1 {
		t.Fatalf("summarize failed: %+v", out)
	}
	if !strings.Contains(out.Response, "## Ticket Information") ||
		!strings.Contains(out.Response, "2025010610000001") {
		t.Fatalf("missing ticket information:\n%s", out.Response)
	}
	flow := out.Response[strings.Index(out.Response, "## Conversation Flow"):]
	for _, entry := range []string{"1. ", "2. ", "3. "} {
		if !strings.Contains(flow, entry) {
			t.Fatalf("conversation flow missing entry %q:\n%s", entry, flow)
		}
	}
	if strings.Contains(flow, "4. ") {
		t.Fatalf("conversation flow has extra entries:\n%s", flow)
	}

	// The ticket and its customer are remembered for later turns.
	snap, _ := sessions.Snapshot("s1")
	if snap.LastAction != domain.ActionSummarize {
		t.Fatalf("last action = %q, want summarize", snap.LastAction)
	}
}

func TestHandleUnknownTicketNumber(t *testing.T) {
	store := memstore.NewTicketStore()
	store.Seed(seedTickets(3))
	svc, _ := newService(store)

	out := svc.Handle(context.Background(), "s1", "summarize ticket 99999999999")
	if !out.Success {
		t.Fatalf("missing ticket should not be an error: %+v", out)
	}
	if !strings.Contains(out.Response, "couldn't find ticket") {
		t.Fatalf("expected a not-found guidance message:\n%s", out.Response)
	}
}

func TestHandleStoreOutage(t *testing.T) {
	svc, _ := newService(failingStore{})

	out := svc.Handle(context.Background(), "s1", "list all tickets")
	if out.Success {
		t.Fatalf("outage turn reported success: %+v", out)
	}
	if out.Err == "" {
		t.Fatalf("outage turn has no error marker")
	}
	if strings.Contains(out.Response, "unreachable") {
		t.Fatalf("raw store error leaked to the user:\n%s", out.Response)
	}
}

func TestHandleEmptyResults(t *testing.T) {
	store := memstore.NewTicketStore() // nothing seeded
	svc, _ := newService(store)

	out := svc.Handle(context.Background(), "s1", "list all tickets")
	if !out.Success {
		t.Fatalf("empty result set treated as failure: %+v", out)
	}
	if !strings.Contains(out.Response, "No tickets found") {
		t.Fatalf("expected a no-results message:\n%s", out.Response)
	}
}

func TestHandleGreetingAndExplain(t *testing.T) {
	store := memstore.NewTicketStore()
	svc, _ := newService(store)
	ctx := context.Background()

	out := svc.Handle(ctx, "s1", "hello")
	if !out.Success || out.Response == "" {
		t.Fatalf("greeting turn failed: %+v", out)
	}

	out = svc.Handle(ctx, "s1", "what is a queue?")
	if !out.Success || !strings.Contains(strings.ToLower(out.Response), "queue") {
		t.Fatalf("explain turn failed: %+v", out)
	}
}

func TestHandleKeepsHistoryBounded(t *testing.T) {
	store := memstore.NewTicketStore()
	store.Seed(seedTickets(2))
	svc, sessions := newService(store)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		svc.Handle(ctx, "s1", "list all tickets")
	}

	snap, _ := sessions.Snapshot("s1")
	if snap.HistoryLength != domain.DefaultHistoryCapacity {
		t.Fatalf("history length = %d, want %d", snap.HistoryLength, domain.DefaultHistoryCapacity)
	}
}
