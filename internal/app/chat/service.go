// Package chat is the top-level coordinator: it routes an incoming message
// to an intent, dispatches to the matching engine component, records the
// turn in the session, and always returns a well-formed envelope. No error
// or panic from a downstream component ever escapes Handle.
package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/helpdesk-labs/deskmate/internal/app/intent"
	"github.com/helpdesk-labs/deskmate/internal/app/paginate"
	"github.com/helpdesk-labs/deskmate/internal/app/query"
	"github.com/helpdesk-labs/deskmate/internal/app/summarize"
	"github.com/helpdesk-labs/deskmate/internal/domain"
	"github.com/helpdesk-labs/deskmate/internal/observability"
	"github.com/helpdesk-labs/deskmate/internal/session"
)

const apologyText = "Sorry, something went wrong while handling that. Please try again."

// Service wires the engine components behind a single Handle operation.
type Service struct {
	sessions   *session.Store
	router     *intent.Router
	planner    *query.Planner
	executor   *query.Executor
	paginator  *paginate.Paginator
	summarizer *summarize.Summarizer
	llm        domain.LLMClient
	now        func() time.Time
}

func NewService(
	sessions *session.Store,
	router *intent.Router,
	planner *query.Planner,
	executor *query.Executor,
	paginator *paginate.Paginator,
	summarizer *summarize.Summarizer,
	llm domain.LLMClient,
) *Service {
	return &Service{
		sessions:   sessions,
		router:     router,
		planner:    planner,
		executor:   executor,
		paginator:  paginator,
		summarizer: summarizer,
		llm:        llm,
		now:        time.Now,
	}
}

// Output is the response envelope for one turn.
type Output struct {
	Response    string
	SessionID   domain.SessionID
	ResultCount int
	Success     bool
	Err         string // user-facing, empty on success
}

// turnResult is what a dispatch branch produces before the envelope and the
// interaction record are assembled.
type turnResult struct {
	response    string
	resultCount int
	plan        *domain.QueryPlan
	success     bool
}

// Handle processes one message for one session. Turns for the same session
// run strictly one at a time; the session lock is held for the whole turn.
func (s *Service) Handle(ctx context.Context, sessionID domain.SessionID, text string) Output {
	ctx = observability.WithSessionID(ctx, string(sessionID))
	log := observability.LoggerFromContext(ctx).With("component", "chat")

	sess, release := s.sessions.Acquire(sessionID)
	defer release()

	out := Output{SessionID: sessionID, Success: true}

	// Recover boundary: a panic anywhere below becomes an apology.
	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic in turn", "panic", fmt.Sprint(r))
			out.Response = apologyText
			out.Success = false
			out.Err = "internal error"
		}
	}()

	decision := s.router.Classify(ctx, text, sess)
	log.Info("classified", "action", decision.Action, "confidence", decision.Confidence)

	var res turnResult
	switch decision.Action {
	case domain.ActionQuery:
		res = s.handleQuery(ctx, sess, decision, text)
	case domain.ActionContinue:
		res = s.handleContinuation(sess, decision)
	case domain.ActionSummarize:
		res = s.handleSummarize(ctx, sess, decision, text)
	case domain.ActionExplain:
		res = turnResult{response: decision.Instruction, success: true}
	case domain.ActionError:
		res = turnResult{response: apologyText, success: false}
	default: // domain.ActionChat
		res = s.handleChat(ctx, sess, decision, text)
	}

	s.record(sess, text, decision, res)

	out.Response = res.response
	out.ResultCount = res.resultCount
	out.Success = res.success
	if !res.success {
		out.Err = "request could not be completed"
	}
	return out
}

func (s *Service) handleQuery(ctx context.Context, sess *domain.Session, decision domain.Decision, text string) turnResult {
	plan := s.planner.Plan(decision.Instruction, text)
	rs := s.executor.Execute(ctx, plan)
	if !rs.Success {
		return turnResult{
			response: "Sorry, I couldn't reach the ticket store just now. Please try again in a moment.",
			plan:     &plan,
			success:  false,
		}
	}

	// Cache the fresh result set and reset the cursor.
	sess.Context.LastPlan = &rs.Plan
	sess.Context.LastResults = rs.Records
	sess.Context.Offset = 0

	pageSize := s.paginator.PageSizeFor(rs.Plan)
	page := s.paginator.Page(rs.Records, 0, pageSize)
	sess.Context.Offset = page.NewOffset

	rememberEntities(sess, rs.Plan)

	return turnResult{
		response:    s.paginator.RenderListing(page, len(rs.Records), rs.Plan),
		resultCount: len(page.Records),
		plan:        &rs.Plan,
		success:     true,
	}
}

func (s *Service) handleContinuation(sess *domain.Session, decision domain.Decision) turnResult {
	records := sess.Context.LastResults
	if len(records) == 0 {
		// The router guards this, but defend anyway.
		return turnResult{
			response: "There are no previous results to continue from. Ask me to list or find tickets first.",
			success:  true,
		}
	}

	page := s.paginator.Page(records, decision.ResumeOffset, s.paginator.PageSizeFor(planOrDefault(sess)))
	sess.Context.Offset = page.NewOffset

	return turnResult{
		response:    s.paginator.RenderContinuation(page, len(records)),
		resultCount: len(page.Records),
		success:     true,
	}
}

func (s *Service) handleSummarize(ctx context.Context, sess *domain.Session, decision domain.Decision, text string) turnResult {
	number := intent.TicketReference(decision.Instruction)
	if number == "" {
		number = intent.TicketReference(text)
	}
	if number == "" && sess.Context.LastTicket != "" {
		number = sess.Context.LastTicket
	}
	if number == "" {
		return turnResult{
			response: "Which ticket should I summarize? Give me its number, for example \"summarize ticket 2025010610000001\".",
			success:  true,
		}
	}

	plan := query.TicketByNumber(number)
	rs := s.executor.Execute(ctx, plan)
	if !rs.Success {
		return turnResult{
			response: "Sorry, I couldn't reach the ticket store just now. Please try again in a moment.",
			plan:     &plan,
			success:  false,
		}
	}

	matches := filterByNumber(rs.Records, number)
	if len(matches) == 0 {
		return turnResult{
			response: fmt.Sprintf("I couldn't find ticket %s. Double-check the number or ask me to list tickets.", number),
			plan:     &plan,
			success:  true,
		}
	}

	sess.Context.LastTicket = number
	if matches[0].CustomerID != "" {
		sess.Context.LastCustomer = matches[0].CustomerID
	}
	if matches[0].Queue != "" {
		sess.Context.LastQueue = matches[0].Queue
	}

	convCtx := conversationContext(sess)
	return turnResult{
		response:    s.summarizer.Summarize(ctx, matches, convCtx),
		resultCount: len(matches),
		plan:        &plan,
		success:     true,
	}
}

func (s *Service) handleChat(ctx context.Context, sess *domain.Session, decision domain.Decision, text string) turnResult {
	// Deterministic rules put the reply directly in the instruction.
	if decision.Instruction != "" {
		return turnResult{response: decision.Instruction, success: true}
	}

	log := observability.LoggerFromContext(ctx).With("component", "chat")
	reply, err := s.llm.Generate(ctx, text, conversationContext(sess))
	if err != nil || reply == "" {
		log.Warn("chat generation failed, using canned help", "error", err)
		reply = "I can help you explore support tickets: list them, filter by status or customer, or summarize one by its number."
	}
	return turnResult{response: reply, success: true}
}

// record appends the turn to history and refreshes the activity timestamp.
func (s *Service) record(sess *domain.Session, input string, decision domain.Decision, res turnResult) {
	itx := &domain.Interaction{
		ID:          uuid.NewString(),
		Input:       input,
		Decision:    decision,
		Response:    res.response,
		Plan:        res.plan,
		ResultCount: res.resultCount,
		Success:     res.success,
		CreatedAt:   s.now(),
	}
	sess.AppendInteraction(itx, s.sessions.HistoryCapacity())
	s.sessions.Touch(sess)
}

// rememberEntities lifts entities out of an executed plan into the session
// context so later turns can resolve references to them.
func rememberEntities(sess *domain.Session, plan domain.QueryPlan) {
	if cond, ok := plan.Filter[domain.PathCustomer]; ok && cond.Op == domain.OpEqual {
		if v, ok := cond.Value.(string); ok && v != "" {
			sess.Context.LastCustomer = v
		}
	}
	if cond, ok := plan.Filter[domain.PathQueue]; ok && cond.Op == domain.OpEqual {
		if v, ok := cond.Value.(string); ok && v != "" {
			sess.Context.LastQueue = v
		}
	}
	if cond, ok := plan.Filter[domain.PathNumber]; ok && cond.Op == domain.OpEqual {
		if v, ok := cond.Value.(string); ok && v != "" {
			sess.Context.LastTicket = v
		}
	}
}

func conversationContext(sess *domain.Session) domain.ConversationContext {
	return domain.ConversationContext{
		SessionID:    sess.ID,
		History:      sess.RecentHistory(3),
		LastCustomer: sess.Context.LastCustomer,
		LastTicket:   sess.Context.LastTicket,
		LastQueue:    sess.Context.LastQueue,
	}
}

func planOrDefault(sess *domain.Session) domain.QueryPlan {
	if sess.Context.LastPlan != nil {
		return *sess.Context.LastPlan
	}
	return domain.QueryPlan{}
}

func filterByNumber(records []*domain.Ticket, number string) []*domain.Ticket {
	var out []*domain.Ticket
	for _, t := range records {
		if t.Number == number {
			out = append(out, t)
		}
	}
	return out
}
