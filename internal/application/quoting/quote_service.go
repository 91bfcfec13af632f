package quoting

import (
	"context"
	"time"

	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuoteService drives the quote lifecycle. Every status change goes through
// the aggregate's transition machinery so the transition log stays complete.
type QuoteService struct {
	quotes      quote.QuoteRepository
	transitions quote.TransitionLogRepository
	publisher   shared.EventPublisher
	logger      *zap.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	quotes quote.QuoteRepository,
	transitions quote.TransitionLogRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *QuoteService {
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{
		quotes:      quotes,
		transitions: transitions,
		publisher:   publisher,
		logger:      logger,
	}
}

// CreateQuoteRequest carries the inputs for creating a quote
type CreateQuoteRequest struct {
	QuoteNumber         string
	CustomerID          uuid.UUID
	OriginCountry       string
	DestinationCountry  string
	Currency            valueobject.Currency
	DestinationCurrency valueobject.Currency
	Items               []CreateQuoteItem
}

// CreateQuoteItem is one line on a creation request
type CreateQuoteItem struct {
	Description  string
	ProductURL   string
	Quantity     int64
	UnitPrice    decimal.Decimal
	UnitWeightKg decimal.Decimal
	Notes        string
}

// CreateQuote creates a new quote in PENDING status
func (s *QuoteService) CreateQuote(ctx context.Context, req CreateQuoteRequest) (*quote.Quote, error) {
	existing, err := s.quotes.FindByNumber(ctx, req.QuoteNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainErrorWithDetails("ALREADY_EXISTS", "Quote number is already in use",
			map[string]any{"quote_number": req.QuoteNumber})
	}

	q, err := quote.NewQuote(req.QuoteNumber, req.CustomerID,
		req.OriginCountry, req.DestinationCountry, req.Currency, req.DestinationCurrency)
	if err != nil {
		return nil, err
	}

	for _, it := range req.Items {
		weight, werr := valueobject.NewWeight(it.UnitWeightKg)
		if werr != nil {
			return nil, werr
		}
		item, ierr := quote.NewLineItem(it.Description, it.ProductURL, it.Quantity, it.UnitPrice, weight, it.Notes)
		if ierr != nil {
			return nil, ierr
		}
		if aerr := q.AddItem(item); aerr != nil {
			return nil, aerr
		}
	}

	if err := s.save(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("quote created",
		zap.String("quote_id", q.ID.String()),
		zap.String("quote_number", q.QuoteNumber),
		zap.String("destination_country", q.DestinationCountry))

	return q, nil
}

// GetQuote loads a quote by id
func (s *QuoteService) GetQuote(ctx context.Context, quoteID uuid.UUID) (*quote.Quote, error) {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Quote not found")
	}
	return q, nil
}

// ListByCustomer returns a customer's quotes, newest first
func (s *QuoteService) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]quote.Quote, error) {
	return s.quotes.FindByCustomer(ctx, customerID, limit, offset)
}

// AddItem appends a line item to a pending quote
func (s *QuoteService) AddItem(ctx context.Context, quoteID uuid.UUID, req CreateQuoteItem) (*quote.Quote, error) {
	q, err := s.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	weight, err := valueobject.NewWeight(req.UnitWeightKg)
	if err != nil {
		return nil, err
	}
	item, err := quote.NewLineItem(req.Description, req.ProductURL, req.Quantity, req.UnitPrice, weight, req.Notes)
	if err != nil {
		return nil, err
	}
	if err := q.AddItem(item); err != nil {
		return nil, err
	}
	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// RemoveItem removes a line item from a pending quote
func (s *QuoteService) RemoveItem(ctx context.Context, quoteID, itemID uuid.UUID) (*quote.Quote, error) {
	q, err := s.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := q.RemoveItem(itemID); err != nil {
		return nil, err
	}
	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// SetShippingAddress sets the delivery address on an unfrozen quote
func (s *QuoteService) SetShippingAddress(ctx context.Context, quoteID uuid.UUID, addr quote.ShippingAddress) (*quote.Quote, error) {
	q, err := s.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if err := q.SetShippingAddress(addr); err != nil {
		return nil, err
	}
	if err := s.save(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// SendQuote issues a calculated quote to the customer
func (s *QuoteService) SendQuote(ctx context.Context, quoteID uuid.UUID, expiresAt time.Time, actor *uuid.UUID) (*quote.Quote, error) {
	return s.applyTransition(ctx, quoteID, func(q *quote.Quote) error {
		return q.Send(expiresAt, actor)
	})
}

// ApproveQuote records the customer's acceptance
func (s *QuoteService) ApproveQuote(ctx context.Context, quoteID uuid.UUID, actor *uuid.UUID) (*quote.Quote, error) {
	return s.applyTransition(ctx, quoteID, func(q *quote.Quote) error {
		return q.Approve(actor)
	})
}

// RejectQuote records the customer declining
func (s *QuoteService) RejectQuote(ctx context.Context, quoteID uuid.UUID, reason string, actor *uuid.UUID) (*quote.Quote, error) {
	return s.applyTransition(ctx, quoteID, func(q *quote.Quote) error {
		return q.Reject(reason, actor)
	})
}

// CancelQuote withdraws a quote before money settles
func (s *QuoteService) CancelQuote(ctx context.Context, quoteID uuid.UUID, reason string, actor *uuid.UUID) (*quote.Quote, error) {
	return s.applyTransition(ctx, quoteID, func(q *quote.Quote) error {
		return q.Cancel(reason, actor)
	})
}

// StartPaymentCollection freezes the quote and opens it for payment
func (s *QuoteService) StartPaymentCollection(ctx context.Context, quoteID uuid.UUID, actor *uuid.UUID) (*quote.Quote, error) {
	return s.applyTransition(ctx, quoteID, func(q *quote.Quote) error {
		return q.StartPaymentCollection(actor)
	})
}

// StartProcessing begins origin-side purchasing
func (s *QuoteService) StartProcessing(ctx context.Context, quoteID uuid.UUID, actor *uuid.UUID) (*quote.Quote, error) {
	return s.applyTransition(ctx, quoteID, func(q *quote.Quote) error {
		return q.StartProcessing(actor)
	})
}

// MarkOrdered records all origin orders placed
func (s *QuoteService) MarkOrdered(ctx context.Context, quoteID uuid.UUID, actor *uuid.UUID) (*quote.Quote, error) {
	return s.applyTransition(ctx, quoteID, func(q *quote.Quote) error {
		return q.MarkOrdered(actor)
	})
}

// MarkShipped records the international shipment leaving the warehouse
func (s *QuoteService) MarkShipped(ctx context.Context, quoteID uuid.UUID, actor *uuid.UUID) (*quote.Quote, error) {
	return s.applyTransition(ctx, quoteID, func(q *quote.Quote) error {
		return q.MarkShipped(actor)
	})
}

// CompleteQuote closes a delivered quote
func (s *QuoteService) CompleteQuote(ctx context.Context, quoteID uuid.UUID, actor *uuid.UUID) (*quote.Quote, error) {
	return s.applyTransition(ctx, quoteID, func(q *quote.Quote) error {
		return q.Complete(actor)
	})
}

// TransitionHistory returns the append-only transition log for a quote
func (s *QuoteService) TransitionHistory(ctx context.Context, quoteID uuid.UUID) ([]quote.TransitionLogEntry, error) {
	return s.transitions.FindByQuote(ctx, quoteID)
}

func (s *QuoteService) applyTransition(ctx context.Context, quoteID uuid.UUID, mutate func(*quote.Quote) error) (*quote.Quote, error) {
	q, err := s.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	from := q.Status
	if err := mutate(q); err != nil {
		return nil, err
	}
	if err := s.saveWithLock(ctx, q); err != nil {
		return nil, err
	}

	s.logger.Info("quote transitioned",
		zap.String("quote_id", q.ID.String()),
		zap.String("from", from.String()),
		zap.String("to", q.Status.String()))

	return q, nil
}

// save persists the quote plus any pending transition log entries and events
func (s *QuoteService) save(ctx context.Context, q *quote.Quote) error {
	if err := s.quotes.Save(ctx, q); err != nil {
		return err
	}
	return s.flush(ctx, q)
}

func (s *QuoteService) saveWithLock(ctx context.Context, q *quote.Quote) error {
	if err := s.quotes.SaveWithLock(ctx, q); err != nil {
		return err
	}
	return s.flush(ctx, q)
}

func (s *QuoteService) flush(ctx context.Context, q *quote.Quote) error {
	if entries := q.PendingTransitions(); len(entries) > 0 {
		if err := s.transitions.Append(ctx, entries...); err != nil {
			return err
		}
		q.ClearPendingTransitions()
	}
	for _, event := range q.GetDomainEvents() {
		if err := s.publisher.Publish(event); err != nil {
			s.logger.Warn("failed to publish domain event",
				zap.String("event_type", event.EventType()), zap.Error(err))
		}
	}
	q.ClearDomainEvents()
	return nil
}
