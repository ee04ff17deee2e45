package query_test

import (
	"context"
	"errors"
	"testing"

	"github.com/helpdesk-labs/deskmate/internal/app/query"
	"github.com/helpdesk-labs/deskmate/internal/domain"
)

// stubStore scripts Find behavior per call.
type stubStore struct {
	calls int
	find  func(call int, filter domain.Filter, opts domain.PlanOptions) ([]*domain.Ticket, error)
}

func (s *stubStore) Find(_ context.Context, filter domain.Filter, opts domain.PlanOptions) ([]*domain.Ticket, error) {
	s.calls++
	return s.find(s.calls, filter, opts)
}

func somePlan() domain.QueryPlan {
	return domain.QueryPlan{
		Filter: domain.Filter{
			domain.PathState: {Op: domain.OpEqual, Value: "open"},
		},
		Options: domain.PlanOptions{
			Limit:      50,
			Projection: []string{domain.PathNumber},
		},
		Explanation: "open tickets",
	}
}

func TestExecuteSucceedsFirstTry(t *testing.T) {
	store := &stubStore{find: func(int, domain.Filter, domain.PlanOptions) ([]*domain.Ticket, error) {
		return []*domain.Ticket{{Number: "1"}}, nil
	}}
	e := query.NewExecutor(store, 0)

	rs := e.Execute(context.Background(), somePlan())
	if !rs.Success || len(rs.Records) != 1 {
		t.Fatalf("result = %+v, want one-record success", rs)
	}
	if store.calls != 1 {
		t.Fatalf("store called %d times, want 1", store.calls)
	}
}

func TestExecuteSimplifiesProjectionThenFilter(t *testing.T) {
	store := &stubStore{find: func(call int, filter domain.Filter, opts domain.PlanOptions) ([]*domain.Ticket, error) {
		switch {
		case len(opts.Projection) > 0:
			return nil, errors.New("projection rejected")
		case len(filter) > 0:
			return nil, errors.New("filter rejected")
		default:
			return []*domain.Ticket{{Number: "1"}, {Number: "2"}}, nil
		}
	}}
	e := query.NewExecutor(store, 0)

	rs := e.Execute(context.Background(), somePlan())
	if !rs.Success {
		t.Fatalf("expected success after corrections")
	}
	if len(rs.Records) != 2 {
		t.Fatalf("records = %d, want 2", len(rs.Records))
	}
	// projection attempt, filter attempt, bare attempt
	if store.calls != 3 {
		t.Fatalf("store called %d times, want 3", store.calls)
	}
	if len(rs.Plan.Filter) != 0 || len(rs.Plan.Options.Projection) != 0 {
		t.Fatalf("winning plan not simplified: %+v", rs.Plan)
	}
}

func TestExecuteUltimateFallback(t *testing.T) {
	// Everything fails except the empty-filter fallback with its small limit.
	store := &stubStore{find: func(_ int, filter domain.Filter, opts domain.PlanOptions) ([]*domain.Ticket, error) {
		if len(filter) == 0 && opts.Limit == query.FallbackLimit && opts.Sort == nil {
			return []*domain.Ticket{{Number: "9"}}, nil
		}
		return nil, errors.New("store rejects this")
	}}
	e := query.NewExecutor(store, 0)

	plan := somePlan()
	plan.Options.Sort = &domain.SortOrder{Field: domain.PathCreated, Descending: true}
	rs := e.Execute(context.Background(), plan)
	if !rs.Success {
		t.Fatalf("expected the ultimate fallback to succeed")
	}
	if len(rs.Records) != 1 || rs.Records[0].Number != "9" {
		t.Fatalf("records = %+v, want the fallback result", rs.Records)
	}
}

func TestExecuteTerminalFailure(t *testing.T) {
	store := &stubStore{find: func(int, domain.Filter, domain.PlanOptions) ([]*domain.Ticket, error) {
		return nil, errors.New("store unreachable")
	}}
	e := query.NewExecutor(store, 2)

	rs := e.Execute(context.Background(), somePlan())
	if rs.Success {
		t.Fatalf("expected an explicit failure result")
	}
	if len(rs.Records) != 0 {
		t.Fatalf("failed result carries records: %v", rs.Records)
	}
}

func TestExecuteRetriesAreBounded(t *testing.T) {
	store := &stubStore{find: func(int, domain.Filter, domain.PlanOptions) ([]*domain.Ticket, error) {
		return nil, errors.New("no")
	}}
	e := query.NewExecutor(store, 3)

	e.Execute(context.Background(), somePlan())
	// Initial attempt, at most maxRetries corrections, one fallback.
	if store.calls > 5 {
		t.Fatalf("store called %d times, want at most 5", store.calls)
	}
}
