package domain

import "fmt"

// Operator is a filter match condition. Only the operators below are ever
// sent to the data store; anything else is stripped before execution.
type Operator string

const (
	OpEqual       Operator = "eq"
	OpIn          Operator = "in"
	OpContains    Operator = "contains"
	OpGreaterThan Operator = "gt"
	OpLessThan    Operator = "lt"
)

// Allowed reports whether the operator is on the store allow-list.
func (o Operator) Allowed() bool {
	switch o {
	case OpEqual, OpIn, OpContains, OpGreaterThan, OpLessThan:
		return true
	}
	return false
}

// Condition is one match clause against a store field path.
// Value holds a string for eq/contains, a []string for in,
// and a time.Time for gt/lt on date paths.
type Condition struct {
	Op    Operator
	Value any
}

// Filter maps store field paths to match conditions.
type Filter map[string]Condition

// Clone returns an independent copy of the filter.
func (f Filter) Clone() Filter {
	out := make(Filter, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// SortOrder describes the ordering of a result set.
type SortOrder struct {
	Field      string
	Descending bool
}

// PlanOptions are the execution options handed to the data store.
type PlanOptions struct {
	Limit      int
	Sort       *SortOrder
	Projection []string // field paths; empty means full records
}

// MaxPlanLimit caps every plan's limit to prevent unbounded scans.
const MaxPlanLimit = 1000

// QueryPlan is a structured, store-agnostic query description.
type QueryPlan struct {
	Filter      Filter
	Options     PlanOptions
	Explanation string // human-readable, shown to the caller
}

// Normalize clamps the limit and strips disallowed operators so that a plan
// is always safe to execute. It never fails; a planner bug degrades into a
// broader query rather than an error.
func (p *QueryPlan) Normalize() {
	if p.Options.Limit <= 0 || p.Options.Limit > MaxPlanLimit {
		p.Options.Limit = MaxPlanLimit
	}
	for path, cond := range p.Filter {
		if !cond.Op.Allowed() {
			delete(p.Filter, path)
		}
	}
}

// Validate reports plan invariant violations. Normalize fixes what
// Validate flags.
func (p *QueryPlan) Validate() error {
	if p.Options.Limit <= 0 || p.Options.Limit > MaxPlanLimit {
		return fmt.Errorf("plan limit %d outside (0, %d]", p.Options.Limit, MaxPlanLimit)
	}
	for path, cond := range p.Filter {
		if !cond.Op.Allowed() {
			return fmt.Errorf("disallowed operator %q on %q", cond.Op, path)
		}
	}
	return nil
}

// ResultSet is the outcome of one query execution. Success is false only
// when the store failed even on the executor's ultimate fallback plan.
type ResultSet struct {
	Records []*Ticket
	Plan    QueryPlan
	Success bool
}
