package domain

import "time"

// DefaultHistoryCapacity bounds a session's interaction history.
const DefaultHistoryCapacity = 10

// Decision is the intent router's structured output.
type Decision struct {
	Action     Action
	Confidence float64
	// Instruction is natural-language guidance for the next stage: the query
	// planner's input for query actions, or the reply text itself for chat
	// and explain actions resolved by a deterministic rule.
	Instruction string
	// ResumeOffset is where a continue_query should pick up in the cached
	// result set. Meaningless for other actions.
	ResumeOffset int
}

// Interaction is the immutable record of one conversational turn.
type Interaction struct {
	ID          string
	Input       string
	Decision    Decision
	Response    string
	Plan        *QueryPlan // nil when the turn ran no query
	ResultCount int
	Success     bool
	CreatedAt   time.Time
}

// SessionContext carries the entities and results remembered between turns.
type SessionContext struct {
	LastCustomer string
	LastTicket   string // ticket number
	LastQueue    string

	LastPlan    *QueryPlan
	LastResults []*Ticket // most recent result set, consumed by continuations
	Offset      int       // pagination cursor into LastResults
}

// ClarificationState records a pending clarification question.
type ClarificationState struct {
	OriginalInput string
	Question      string
	AskedAt       time.Time
}

// Session is the per-conversation state. It is owned exclusively by the
// session store; callers only touch it while holding the store's per-session
// lock.
type Session struct {
	ID            SessionID
	History       []*Interaction
	Context       SessionContext
	Clarification *ClarificationState
	CreatedAt     time.Time
	LastActivity  time.Time
}

// AppendInteraction records a turn, evicting the oldest entry once capacity
// is reached. capacity <= 0 falls back to DefaultHistoryCapacity.
func (s *Session) AppendInteraction(itx *Interaction, capacity int) {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	s.History = append(s.History, itx)
	if len(s.History) > capacity {
		s.History = s.History[len(s.History)-capacity:]
	}
}

// RecentHistory returns up to n most recent interactions, oldest first.
func (s *Session) RecentHistory(n int) []*Interaction {
	if n <= 0 || len(s.History) <= n {
		return s.History
	}
	return s.History[len(s.History)-n:]
}

// LastAction returns the action of the most recent turn, or "" for a fresh
// session.
func (s *Session) LastAction() Action {
	if len(s.History) == 0 {
		return ""
	}
	return s.History[len(s.History)-1].Decision.Action
}
