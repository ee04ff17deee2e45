// Package session owns all per-conversation state. Sessions are created
// lazily on first use, mutated only under a per-session lock, and evicted
// by an explicit sweep once they have been idle past the configured TTL.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/helpdesk-labs/deskmate/internal/domain"
	"github.com/helpdesk-labs/deskmate/internal/observability"
)

const (
	// DefaultIdleTTL is how long a session may stay inactive before a sweep
	// removes it.
	DefaultIdleTTL = 2 * time.Hour
	// DefaultSweepInterval is how often the background sweeper runs.
	DefaultSweepInterval = 60 * time.Minute
)

// Store keeps every live session, independently keyed so distinct sessions
// never contend. The zero value is not usable; call NewStore.
type Store struct {
	mu      sync.RWMutex
	entries map[domain.SessionID]*entry

	now        func() time.Time
	idleTTL    time.Duration
	historyCap int
}

// entry pairs a session with the lock that serializes turns against it.
type entry struct {
	mu      sync.Mutex
	session *domain.Session
}

// Option configures a Store.
type Option func(*Store)

// WithClock injects a clock, for deterministic expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIdleTTL overrides the inactivity TTL.
func WithIdleTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.idleTTL = ttl
		}
	}
}

// WithHistoryCapacity overrides the per-session history ring size.
func WithHistoryCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyCap = n
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		entries:    make(map[domain.SessionID]*entry),
		now:        time.Now,
		idleTTL:    DefaultIdleTTL,
		historyCap: domain.DefaultHistoryCapacity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HistoryCapacity returns the configured per-session history ring size.
func (s *Store) HistoryCapacity() int { return s.historyCap }

// Acquire returns the session for id with its per-session lock held,
// creating the session if it does not exist yet. The caller must invoke the
// returned release function when the turn is done. Turns for the same
// session are therefore strictly sequential; turns for different sessions
// do not block each other.
func (s *Store) Acquire(id domain.SessionID) (*domain.Session, func()) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok {
		now := s.now()
		e = &entry{session: &domain.Session{
			ID:           id,
			CreatedAt:    now,
			LastActivity: now,
		}}
		s.entries[id] = e
	}
	s.mu.Unlock()

	e.mu.Lock()
	return e.session, e.mu.Unlock
}

// Touch refreshes the session's activity timestamp. Must be called while
// holding the session via Acquire.
func (s *Store) Touch(sess *domain.Session) {
	sess.LastActivity = s.now()
}

// Clear deletes a session immediately. Returns false if it did not exist.
func (s *Store) Clear(id domain.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.entries[id]
	delete(s.entries, id)
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep evicts every session idle for longer than the TTL and returns how
// many were removed. Safe to run concurrently with active turns: each
// candidate is checked under its own lock before deletion.
func (s *Store) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)

	// Snapshot the entry set first so per-session locks are never taken
	// while holding the store lock; a long-running turn must not stall
	// unrelated sessions.
	s.mu.RLock()
	snapshot := make(map[domain.SessionID]*entry, len(s.entries))
	for id, e := range s.entries {
		snapshot[id] = e
	}
	s.mu.RUnlock()

	candidates := make([]domain.SessionID, 0, len(snapshot))
	for id, e := range snapshot {
		e.mu.Lock()
		idle := e.session.LastActivity.Before(cutoff)
		e.mu.Unlock()
		if idle {
			candidates = append(candidates, id)
		}
	}

	removed := 0
	for _, id := range candidates {
		e := snapshot[id]
		// Re-check under the entry lock: the session may have been touched
		// since the scan, and a turn in flight holds this lock until done.
		e.mu.Lock()
		if e.session.LastActivity.Before(cutoff) {
			s.mu.Lock()
			if s.entries[id] == e {
				delete(s.entries, id)
				removed++
			}
			s.mu.Unlock()
		}
		e.mu.Unlock()
	}

	return removed
}

// StartSweeper runs Sweep every interval until ctx is canceled.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	log := observability.WithComponent("session_sweeper")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Info("swept idle sessions", "removed", n, "remaining", s.Len())
				}
			}
		}
	}()
}
