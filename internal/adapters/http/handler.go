package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/helpdesk-labs/deskmate/internal/app/chat"
	"github.com/helpdesk-labs/deskmate/internal/domain"
	"github.com/helpdesk-labs/deskmate/internal/session"
)

// DefaultSessionID is used when the caller does not supply one.
const DefaultSessionID = "default"

type Server struct {
	svc      *chat.Service
	sessions *session.Store
}

func NewServer(svc *chat.Service, sessions *session.Store) http.Handler {
	s := &Server{svc: svc, sessions: sessions}
	mux := http.NewServeMux()

	// /chat → POST: one conversational turn
	mux.HandleFunc("/chat", s.handleChat)

	// /sessions/{id} → GET: diagnostics, DELETE: clear
	mux.HandleFunc("/sessions/", s.handleSessionWithID)

	mux.HandleFunc("/healthz", s.handleHealthz)

	return chainMiddlewares(mux, withLogging, withCORS, withRequestID)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Response    string `json:"response"`
	SessionID   string `json:"sessionId"`
	ResultCount int    `json:"resultCount"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		badRequest(w, "message is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	out := s.svc.Handle(r.Context(), domain.SessionID(sessionID), req.Message)

	writeJSON(w, http.StatusOK, chatResponse{
		Response:    out.Response,
		SessionID:   string(out.SessionID),
		ResultCount: out.ResultCount,
		Success:     out.Success,
		Error:       out.Err,
	})
}

// /sessions/{id}
func (s *Server) handleSessionWithID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/sessions/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		snap, ok := s.sessions.Snapshot(domain.SessionID(id))
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, snap)

	case http.MethodDelete:
		if !s.sessions.Clear(domain.SessionID(id)) {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})

	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
