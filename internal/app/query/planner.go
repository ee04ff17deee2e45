// Package query builds structured query plans from routed instructions and
// executes them against the ticket store with a retry-and-simplify loop.
package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/helpdesk-labs/deskmate/internal/domain"
)

const (
	// DefaultPlanLimit is the limit for listings without an explicit scope.
	DefaultPlanLimit = 50
	// AllTicketsLimit is the limit for an explicit "all tickets" request.
	AllTicketsLimit = 100
	// NumbersOnlyLimit is the limit for number-only listings; the rows are
	// compact so a larger page is cheap.
	NumbersOnlyLimit = 500
)

var emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

// Planner turns an instruction plus the caller's free text into a QueryPlan.
// It always returns a valid plan and never fails; anything it cannot parse
// degrades into the default recent-tickets listing.
type Planner struct {
	patterns []pattern
}

type pattern struct {
	name  string
	match func(text string) bool
	build func(text string) domain.QueryPlan
}

func NewPlanner() *Planner {
	return &Planner{patterns: []pattern{
		{
			name: "numbers_only",
			match: func(t string) bool {
				return strings.Contains(t, "numbers only") || strings.Contains(t, "ticket number") ||
					strings.Contains(t, "ticket id") || strings.Contains(t, "ids only")
			},
			build: func(string) domain.QueryPlan {
				return domain.QueryPlan{
					Filter: domain.Filter{},
					Options: domain.PlanOptions{
						Limit:      NumbersOnlyLimit,
						Sort:       &domain.SortOrder{Field: domain.PathCreated, Descending: true},
						Projection: []string{domain.PathNumber},
					},
					Explanation: "ticket numbers, newest first",
				}
			},
		},
		{
			name: "all_tickets",
			match: func(t string) bool {
				return strings.Contains(t, "all tickets") || strings.Contains(t, "every ticket")
			},
			build: func(string) domain.QueryPlan {
				return domain.QueryPlan{
					Filter: domain.Filter{},
					Options: domain.PlanOptions{
						Limit: AllTicketsLimit,
						Sort:  &domain.SortOrder{Field: domain.PathCreated, Descending: true},
					},
					Explanation: "all tickets, newest first",
				}
			},
		},
		{
			name:  "by_customer_email",
			match: func(t string) bool { return emailRe.MatchString(t) },
			build: func(t string) domain.QueryPlan {
				email := strings.ToLower(emailRe.FindString(t))
				return domain.QueryPlan{
					Filter: domain.Filter{
						domain.PathCustomer: {Op: domain.OpEqual, Value: email},
					},
					Options: domain.PlanOptions{
						Limit: DefaultPlanLimit,
						Sort:  &domain.SortOrder{Field: domain.PathCreated, Descending: true},
					},
					Explanation: fmt.Sprintf("tickets for customer %s", email),
				}
			},
		},
		{
			name: "open_tickets",
			match: func(t string) bool {
				return strings.Contains(t, "open") || strings.Contains(t, "pending") ||
					strings.Contains(t, " new ") || strings.HasPrefix(t, "new ")
			},
			build: func(string) domain.QueryPlan {
				return domain.QueryPlan{
					Filter: domain.Filter{
						domain.PathState: {Op: domain.OpIn, Value: domain.OpenStates},
					},
					Options: domain.PlanOptions{
						Limit: DefaultPlanLimit,
						Sort:  &domain.SortOrder{Field: domain.PathCreated, Descending: true},
					},
					Explanation: "open tickets (open, new or pending)",
				}
			},
		},
		{
			name: "closed_tickets",
			match: func(t string) bool {
				return strings.Contains(t, "closed") || strings.Contains(t, "resolved")
			},
			build: func(string) domain.QueryPlan {
				return domain.QueryPlan{
					Filter: domain.Filter{
						domain.PathState: {Op: domain.OpEqual, Value: "closed"},
					},
					Options: domain.PlanOptions{
						Limit: DefaultPlanLimit,
						Sort:  &domain.SortOrder{Field: domain.PathCreated, Descending: true},
					},
					Explanation: "closed tickets",
				}
			},
		},
	}}
}

// Plan resolves the first matching pattern against the instruction, then the
// free text, and falls back to the default recent-tickets plan.
func (p *Planner) Plan(instruction, freeText string) domain.QueryPlan {
	for _, text := range []string{strings.ToLower(instruction), strings.ToLower(freeText)} {
		if text == "" {
			continue
		}
		for _, pat := range p.patterns {
			if pat.match(text) {
				plan := pat.build(text)
				plan.Normalize()
				return plan
			}
		}
	}

	plan := domain.QueryPlan{
		Filter: domain.Filter{},
		Options: domain.PlanOptions{
			Limit: DefaultPlanLimit,
			Sort:  &domain.SortOrder{Field: domain.PathCreated, Descending: true},
		},
		Explanation: "recent tickets, newest first",
	}
	plan.Normalize()
	return plan
}

// TicketByNumber is the plan for fetching one ticket by its number.
func TicketByNumber(number string) domain.QueryPlan {
	return domain.QueryPlan{
		Filter: domain.Filter{
			domain.PathNumber: {Op: domain.OpEqual, Value: number},
		},
		Options:     domain.PlanOptions{Limit: 1},
		Explanation: fmt.Sprintf("ticket %s", number),
	}
}
