package session

import (
	"time"

	"github.com/helpdesk-labs/deskmate/internal/domain"
)

// Snapshot is a read-only diagnostic projection of a session. It carries no
// conversation content, only shape.
type Snapshot struct {
	SessionID        string        `json:"session_id"`
	HistoryLength    int           `json:"history_length"`
	LastActivity     time.Time     `json:"last_activity"`
	HasCachedResults bool          `json:"has_cached_results"`
	LastAction       domain.Action `json:"last_action,omitempty"`
}

// Snapshot returns a diagnostic view of the session, or false if it does
// not exist. Does not refresh the session's activity timestamp.
func (s *Store) Snapshot(id domain.SessionID) (Snapshot, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return Snapshot{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	sess := e.session
	return Snapshot{
		SessionID:        string(sess.ID),
		HistoryLength:    len(sess.History),
		LastActivity:     sess.LastActivity,
		HasCachedResults: len(sess.Context.LastResults) > 0,
		LastAction:       sess.LastAction(),
	}, true
}
