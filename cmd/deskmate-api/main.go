package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"

	httpadapter "github.com/helpdesk-labs/deskmate/internal/adapters/http"
	"github.com/helpdesk-labs/deskmate/internal/adapters/llm"
	firestorestore "github.com/helpdesk-labs/deskmate/internal/adapters/store/firestore"
	memstore "github.com/helpdesk-labs/deskmate/internal/adapters/store/memory"
	"github.com/helpdesk-labs/deskmate/internal/app/chat"
	"github.com/helpdesk-labs/deskmate/internal/app/intent"
	"github.com/helpdesk-labs/deskmate/internal/app/paginate"
	"github.com/helpdesk-labs/deskmate/internal/app/query"
	"github.com/helpdesk-labs/deskmate/internal/app/summarize"
	"github.com/helpdesk-labs/deskmate/internal/config"
	"github.com/helpdesk-labs/deskmate/internal/domain"
	"github.com/helpdesk-labs/deskmate/internal/session"
)

func main() {
	ctx := context.Background()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	// LLM: mock or Vertex
	var (
		llmClient domain.LLMClient
		err       error
	)
	if cfg.UseMockLLM {
		log.Println("[LLM] Using MOCK LLM client")
		llmClient = llm.NewMockLLM()
	} else {
		log.Println("[LLM] Using Vertex LLM client")
		llmClient, err = llm.NewVertexClient(ctx)
		if err != nil {
			log.Fatalf("error initializing Vertex LLM client: %v", err)
		}
	}

	// Ticket store: Firestore or Memory
	var ticketStore domain.TicketStore
	switch cfg.StorageBackend {
	case "firestore":
		if cfg.GCPProjectID == "" {
			log.Fatal("DESKMATE_GCP_PROJECT is required for the Firestore backend")
		}
		log.Printf("[STORE] Using Firestore ticket store (project=%s)", cfg.GCPProjectID)
		ticketStore, err = firestorestore.NewStore(ctx, cfg.GCPProjectID, cfg.TicketCollection)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
	default:
		log.Println("[STORE] Using in-memory ticket store")
		ticketStore = memstore.NewTicketStore()
	}

	// Sessions, with the background eviction sweep
	sessions := session.NewStore(
		session.WithIdleTTL(cfg.SessionIdleTTL),
		session.WithHistoryCapacity(cfg.HistoryCapacity),
	)
	sessions.StartSweeper(ctx, cfg.SweepInterval)

	// Engine
	svc := chat.NewService(
		sessions,
		intent.NewRouter(llmClient, cfg.DefaultResumeOffset),
		query.NewPlanner(),
		query.NewExecutor(ticketStore, cfg.MaxQueryRetries),
		paginate.NewPaginator(cfg.PageSize, cfg.NumbersPageSize),
		summarize.NewSummarizer(llmClient),
		llmClient,
	)

	// HTTP server
	handler := httpadapter.NewServer(svc, sessions)

	addr := ":" + cfg.Port
	log.Println("deskmate API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
