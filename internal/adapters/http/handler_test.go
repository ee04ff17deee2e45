package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/helpdesk-labs/deskmate/internal/adapters/http"
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

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	llmClient := llm.NewMockLLM()
	sessions := session.NewStore()

	store := memstore.NewTicketStore()
	store.Seed([]*domain.Ticket{
		{
			ID: "t1", Number: "2025010610000001", Title: "VPN broken",
			CustomerID: "anna@example.com", StateType: "open", Queue: "Support",
			CreatedAt: time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC),
		},
	})

	svc := chat.NewService(
		sessions,
		intent.NewRouter(llmClient, 0),
		query.NewPlanner(),
		query.NewExecutor(store, 0),
		paginate.NewPaginator(20, 50),
		summarize.NewSummarizer(llmClient),
		llmClient,
	)

	return httpadapter.NewServer(svc, sessions)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestChatTurn(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"sessionId":"s1","message":"list all tickets"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Response    string `json:"response"`
		SessionID   string `json:"sessionId"`
		ResultCount int    `json:"resultCount"`
		Success     bool   `json:"success"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if !resp.Success || resp.SessionID != "s1" || resp.ResultCount != 1 {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestChatDefaultsSessionID(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"message":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.SessionID != httpadapter.DefaultSessionID {
		t.Fatalf("sessionId = %q, want %q", resp.SessionID, httpadapter.DefaultSessionID)
	}
}

func TestChatMissingMessageIsClientError(t *testing.T) {
	srv := newTestServer(t)

	body := []byte(`{"sessionId":"s1"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSessionInspectionAndClear(t *testing.T) {
	srv := newTestServer(t)

	// Create the session with one turn.
	body := []byte(`{"sessionId":"s1","message":"list all tickets"}`)
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader(body))
	srv.ServeHTTP(httptest.NewRecorder(), req)

	// Inspect.
	req = httptest.NewRequest(http.MethodGet, "/sessions/s1", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("inspection: expected 200, got %d", w.Code)
	}

	var snap struct {
		HistoryLength    int  `json:"history_length"`
		HasCachedResults bool `json:"has_cached_results"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("invalid snapshot JSON: %v", err)
	}
	if snap.HistoryLength != 1 || !snap.HasCachedResults {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	// Clear, then the session is gone.
	req = httptest.NewRequest(http.MethodDelete, "/sessions/s1", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("clear: expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/sessions/s1", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("inspection after clear: expected 404, got %d", w.Code)
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/sessions/nope", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
