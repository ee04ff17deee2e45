// Package paginate decides how much of a result set one turn surfaces and
// renders the listing text, including the continuation hint.
package paginate

import (
	"fmt"
	"strings"

	"github.com/helpdesk-labs/deskmate/internal/domain"
)

const (
	// DefaultPageSize is the page size for general listings.
	DefaultPageSize = 20
	// NumbersPageSize is the page size for number-only listings.
	NumbersPageSize = 50
)

// Page is one visible slice of a result set.
type Page struct {
	Records   []*domain.Ticket
	NewOffset int
	Remaining int
}

// Paginator slices cached result sets. Stateless; the offset lives in the
// session context.
type Paginator struct {
	pageSize    int
	numbersSize int
}

// NewPaginator builds a paginator; non-positive sizes use the defaults.
func NewPaginator(pageSize, numbersSize int) *Paginator {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if numbersSize <= 0 {
		numbersSize = NumbersPageSize
	}
	return &Paginator{pageSize: pageSize, numbersSize: numbersSize}
}

// PageSizeFor picks the page size appropriate for the plan that produced
// the results: number-only projections get the larger page.
func (p *Paginator) PageSizeFor(plan domain.QueryPlan) int {
	if numbersOnly(plan) {
		return p.numbersSize
	}
	return p.pageSize
}

// Page returns the slice [offset, offset+pageSize) of records, clamped to
// the set's bounds. A negative offset is treated as 0; an offset past the
// end yields an empty page with Remaining 0.
func (p *Paginator) Page(records []*domain.Ticket, offset, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = p.pageSize
	}
	if offset < 0 {
		offset = 0
	}
	if offset > len(records) {
		offset = len(records)
	}

	end := offset + pageSize
	if end > len(records) {
		end = len(records)
	}

	return Page{
		Records:   records[offset:end],
		NewOffset: end,
		Remaining: len(records) - end,
	}
}

// RenderListing formats a page as the turn's reply: a count line, one line
// per ticket, and a continuation hint when more results remain.
func (p *Paginator) RenderListing(page Page, total int, plan domain.QueryPlan) string {
	if total == 0 {
		return fmt.Sprintf("No tickets found for %s. Try a broader request, for example \"list all tickets\".", plan.Explanation)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d ticket(s) for %s.\n\n", total, plan.Explanation)

	numbers := numbersOnly(plan)
	for _, t := range page.Records {
		if numbers {
			fmt.Fprintf(&b, "- %s\n", t.Number)
			continue
		}
		fmt.Fprintf(&b, "- #%s — %s [%s] %s\n", t.Number, t.Title, t.StateType, t.CustomerID)
	}

	if page.Remaining > 0 {
		fmt.Fprintf(&b, "\nShowing %d of %d. Say \"see more\" for the next %d.",
			page.NewOffset, total, min(page.Remaining, len(page.Records)))
	} else {
		b.WriteString("\nThat's all of them.")
	}
	return b.String()
}

// RenderContinuation formats a resumed page.
func (p *Paginator) RenderContinuation(page Page, total int) string {
	if len(page.Records) == 0 {
		return "You've already seen all the results. Ask me for a new listing whenever you like."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Continuing (%d of %d shown so far):\n\n", page.NewOffset, total)
	for _, t := range page.Records {
		fmt.Fprintf(&b, "- #%s — %s [%s] %s\n", t.Number, t.Title, t.StateType, t.CustomerID)
	}

	if page.Remaining > 0 {
		fmt.Fprintf(&b, "\n%d more. Say \"see more\" to continue.", page.Remaining)
	} else {
		b.WriteString("\nThat's all of them.")
	}
	return b.String()
}

func numbersOnly(plan domain.QueryPlan) bool {
	return len(plan.Options.Projection) == 1 && plan.Options.Projection[0] == domain.PathNumber
}
