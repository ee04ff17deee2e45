// Package memory is an in-memory TicketStore for local development and
// tests. It evaluates the same filter allow-list the Firestore adapter
// translates, and rejects unknown field paths the way a real backend
// rejects a malformed filter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/helpdesk-labs/deskmate/internal/domain"
)

type TicketStore struct {
	mu      sync.RWMutex
	tickets []*domain.Ticket
}

func NewTicketStore() *TicketStore {
	return &TicketStore{}
}

// Seed replaces the store's contents. Insertion order is preserved and is
// the order returned when no sort is requested.
func (s *TicketStore) Seed(tickets []*domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append([]*domain.Ticket(nil), tickets...)
}

// Add appends one ticket.
func (s *TicketStore) Add(t *domain.Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets = append(s.tickets, t)
}

// Find implements domain.TicketStore.
func (s *TicketStore) Find(_ context.Context, filter domain.Filter, opts domain.PlanOptions) ([]*domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Ticket
	for _, t := range s.tickets {
		ok, err := matches(t, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, t)
		}
	}

	if opts.Sort != nil {
		if err := sortTickets(out, *opts.Sort); err != nil {
			return nil, err
		}
	}

	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}

	if len(opts.Projection) > 0 {
		projected, err := project(out, opts.Projection)
		if err != nil {
			return nil, err
		}
		out = projected
	}

	return out, nil
}

func matches(t *domain.Ticket, filter domain.Filter) (bool, error) {
	for path, cond := range filter {
		ok, err := matchField(t, path, cond)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func matchField(t *domain.Ticket, path string, cond domain.Condition) (bool, error) {
	switch path {
	case domain.PathBody:
		needle, ok := cond.Value.(string)
		if cond.Op != domain.OpContains || !ok {
			return false, fmt.Errorf("unsupported condition %q on %q", cond.Op, path)
		}
		for _, m := range t.Messages {
			if strings.Contains(strings.ToLower(m.Body), strings.ToLower(needle)) {
				return true, nil
			}
		}
		return false, nil

	case domain.PathCreated:
		when, ok := cond.Value.(time.Time)
		if !ok {
			return false, fmt.Errorf("condition on %q requires a time value", path)
		}
		switch cond.Op {
		case domain.OpGreaterThan:
			return t.CreatedAt.After(when), nil
		case domain.OpLessThan:
			return t.CreatedAt.Before(when), nil
		default:
			return false, fmt.Errorf("unsupported condition %q on %q", cond.Op, path)
		}
	}

	value, err := headerField(t, path)
	if err != nil {
		return false, err
	}

	switch cond.Op {
	case domain.OpEqual:
		want, ok := cond.Value.(string)
		if !ok {
			return false, fmt.Errorf("eq condition on %q requires a string", path)
		}
		return strings.EqualFold(value, want), nil
	case domain.OpIn:
		want, ok := cond.Value.([]string)
		if !ok {
			return false, fmt.Errorf("in condition on %q requires a string list", path)
		}
		for _, w := range want {
			if strings.EqualFold(value, w) {
				return true, nil
			}
		}
		return false, nil
	case domain.OpContains:
		want, ok := cond.Value.(string)
		if !ok {
			return false, fmt.Errorf("contains condition on %q requires a string", path)
		}
		return strings.Contains(strings.ToLower(value), strings.ToLower(want)), nil
	default:
		return false, fmt.Errorf("unsupported condition %q on %q", cond.Op, path)
	}
}

func headerField(t *domain.Ticket, path string) (string, error) {
	switch path {
	case domain.PathNumber:
		return t.Number, nil
	case domain.PathTitle:
		return t.Title, nil
	case domain.PathCustomer:
		return t.CustomerID, nil
	case domain.PathState:
		return t.StateType, nil
	case domain.PathPriority:
		return t.Priority, nil
	case domain.PathQueue:
		return t.Queue, nil
	default:
		return "", fmt.Errorf("unknown field path %q", path)
	}
}

func sortTickets(tickets []*domain.Ticket, order domain.SortOrder) error {
	var less func(a, b *domain.Ticket) bool
	switch order.Field {
	case domain.PathCreated:
		less = func(a, b *domain.Ticket) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case domain.PathNumber:
		less = func(a, b *domain.Ticket) bool { return a.Number < b.Number }
	case domain.PathPriority:
		less = func(a, b *domain.Ticket) bool { return a.Priority < b.Priority }
	default:
		return fmt.Errorf("unsupported sort field %q", order.Field)
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		if order.Descending {
			return less(tickets[j], tickets[i])
		}
		return less(tickets[i], tickets[j])
	})
	return nil
}

// project returns header-only copies restricted to the requested paths.
// Messages and attachments are never part of a projection.
func project(tickets []*domain.Ticket, paths []string) ([]*domain.Ticket, error) {
	for _, p := range paths {
		if _, err := headerField(&domain.Ticket{}, p); err != nil {
			return nil, err
		}
	}

	out := make([]*domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		c := &domain.Ticket{ID: t.ID}
		for _, p := range paths {
			switch p {
			case domain.PathNumber:
				c.Number = t.Number
			case domain.PathTitle:
				c.Title = t.Title
			case domain.PathCustomer:
				c.CustomerID = t.CustomerID
			case domain.PathState:
				c.StateType = t.StateType
			case domain.PathPriority:
				c.Priority = t.Priority
			case domain.PathQueue:
				c.Queue = t.Queue
			}
		}
		out = append(out, c)
	}
	return out, nil
}
