package query

import (
	"context"

	"github.com/helpdesk-labs/deskmate/internal/domain"
	"github.com/helpdesk-labs/deskmate/internal/observability"
)

const (
	// DefaultMaxRetries bounds the correction loop.
	DefaultMaxRetries = 3
	// FallbackLimit is the limit of the ultimate fallback plan.
	FallbackLimit = 20
)

// Executor runs plans against the ticket store. A store failure triggers a
// bounded correction loop that simplifies the plan step by step; if every
// correction fails, an ultimate fallback (empty filter, small limit) is
// tried once. Every call terminates in a ResultSet: Success is false only
// when even the fallback failed.
type Executor struct {
	store      domain.TicketStore
	maxRetries int
}

// NewExecutor builds an executor. maxRetries <= 0 uses DefaultMaxRetries.
func NewExecutor(store domain.TicketStore, maxRetries int) *Executor {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Executor{store: store, maxRetries: maxRetries}
}

// Execute runs the plan with retry-and-correction semantics.
func (e *Executor) Execute(ctx context.Context, plan domain.QueryPlan) domain.ResultSet {
	log := observability.LoggerFromContext(ctx).With("component", "query_executor")

	plan.Normalize()

	current := plan
	attempts := 0
	for {
		records, err := e.store.Find(ctx, current.Filter, current.Options)
		if err == nil {
			log.Info("query executed",
				"explanation", current.Explanation,
				"attempts", attempts+1,
				"count", len(records))
			return domain.ResultSet{Records: records, Plan: current, Success: true}
		}

		attempts++
		log.Warn("query attempt failed", "attempt", attempts, "error", err)
		if attempts > e.maxRetries {
			break
		}

		corrected, changed := simplify(current)
		if !changed {
			break
		}
		current = corrected
	}

	// Ultimate fallback: empty filter, small limit, no sort guarantees.
	fallback := domain.QueryPlan{
		Filter:      domain.Filter{},
		Options:     domain.PlanOptions{Limit: FallbackLimit},
		Explanation: "recent tickets (simplified after query errors)",
	}
	records, err := e.store.Find(ctx, fallback.Filter, fallback.Options)
	if err != nil {
		log.Error("ultimate fallback failed", "error", err)
		return domain.ResultSet{Records: nil, Plan: fallback, Success: false}
	}

	log.Info("query recovered via ultimate fallback", "count", len(records))
	return domain.ResultSet{Records: records, Plan: fallback, Success: true}
}

// simplify strips the most likely failing clause from the plan: first the
// projection, then the whole filter. Returns false when nothing is left to
// strip.
func simplify(plan domain.QueryPlan) (domain.QueryPlan, bool) {
	if len(plan.Options.Projection) > 0 {
		plan.Options.Projection = nil
		return plan, true
	}
	if len(plan.Filter) > 0 {
		plan.Filter = domain.Filter{}
		return plan, true
	}
	return plan, false
}
