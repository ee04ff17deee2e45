// Package firestore adapts Cloud Firestore as the ticket store. Tickets
// live in one collection with messages and attachments embedded, so a
// single query returns complete records.
package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/helpdesk-labs/deskmate/internal/domain"
)

type Store struct {
	client     *firestore.Client
	collection string
}

// NewStore creates a Firestore-backed ticket store.
func NewStore(ctx context.Context, projectID, collection string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}
	if collection == "" {
		collection = "tickets"
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, collection: collection}, nil
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type ticketDoc struct {
	Number      string          `firestore:"number"`
	Title       string          `firestore:"title"`
	CustomerID  string          `firestore:"customer_id"`
	StateType   string          `firestore:"state_type"`
	Priority    string          `firestore:"priority"`
	Queue       string          `firestore:"queue"`
	CreatedAt   time.Time       `firestore:"created_at"`
	UpdatedAt   time.Time       `firestore:"updated_at"`
	Messages    []messageDoc    `firestore:"messages"`
	Attachments []attachmentDoc `firestore:"attachments"`
}

type messageDoc struct {
	Sender    string    `firestore:"sender"`
	Body      string    `firestore:"body"`
	CreatedAt time.Time `firestore:"created_at"`
	Internal  bool      `firestore:"internal"`
}

type attachmentDoc struct {
	Filename string `firestore:"filename"`
	MIMEType string `firestore:"mime_type"`
	Size     int64  `firestore:"size"`
}

// ─────────────────────────────────────────
// TicketStore implementation
// ─────────────────────────────────────────

// Find implements domain.TicketStore. Filters the backend cannot express
// (text contains) are rejected with an error so the executor's correction
// loop can simplify the plan.
func (s *Store) Find(ctx context.Context, filter domain.Filter, opts domain.PlanOptions) ([]*domain.Ticket, error) {
	q := s.client.Collection(s.collection).Query

	for path, cond := range filter {
		fq, err := applyCondition(q, path, cond)
		if err != nil {
			return nil, err
		}
		q = fq
	}

	if opts.Sort != nil {
		dir := firestore.Asc
		if opts.Sort.Descending {
			dir = firestore.Desc
		}
		q = q.OrderBy(opts.Sort.Field, dir)
	}

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	if len(opts.Projection) > 0 {
		q = q.Select(opts.Projection...)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var out []*domain.Ticket
	for {
		snap, err := iter.Next()
		if err != nil {
			if err == iterator.Done {
				break
			}
			if status.Code(err) == codes.NotFound {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("firestore Find: %w", err)
		}

		var doc ticketDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode ticketDoc: %w", err)
		}
		out = append(out, toTicket(snap.Ref.ID, doc))
	}
	return out, nil
}

func applyCondition(q firestore.Query, path string, cond domain.Condition) (firestore.Query, error) {
	switch cond.Op {
	case domain.OpEqual:
		return q.Where(path, "==", cond.Value), nil
	case domain.OpIn:
		values, ok := cond.Value.([]string)
		if !ok {
			return q, fmt.Errorf("in condition on %q requires a string list", path)
		}
		return q.Where(path, "in", values), nil
	case domain.OpGreaterThan:
		return q.Where(path, ">", cond.Value), nil
	case domain.OpLessThan:
		return q.Where(path, "<", cond.Value), nil
	case domain.OpContains:
		// No substring queries in Firestore.
		return q, fmt.Errorf("contains condition on %q is not supported by this store", path)
	default:
		return q, fmt.Errorf("disallowed operator %q on %q", cond.Op, path)
	}
}

func toTicket(id string, doc ticketDoc) *domain.Ticket {
	t := &domain.Ticket{
		ID:         domain.TicketID(id),
		Number:     doc.Number,
		Title:      doc.Title,
		CustomerID: doc.CustomerID,
		StateType:  doc.StateType,
		Priority:   doc.Priority,
		Queue:      doc.Queue,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}
	for _, m := range doc.Messages {
		t.Messages = append(t.Messages, domain.TicketMessage{
			Sender:    domain.Role(m.Sender),
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
			Internal:  m.Internal,
		})
	}
	for _, a := range doc.Attachments {
		t.Attachments = append(t.Attachments, domain.Attachment{
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Size:     a.Size,
		})
	}
	return t
}
