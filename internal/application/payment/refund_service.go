package payment

import (
	"context"

	"github.com/crossbay/backend/internal/domain/ledger"
	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"github.com/crossbay/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RefundService runs the refund workflow: request, approve, then apply
// refund entries against the approved ceiling. The ceiling is enforced at
// write time by the refund request aggregate, under the same per-quote lock
// that serializes payments, so concurrent applications cannot both squeeze
// under it.
type RefundService struct {
	quotes    quote.QuoteRepository
	refunds   ledger.RefundRequestRepository
	entries   ledger.PaymentEventRepository
	publisher shared.EventPublisher
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
	locks     *QuoteLocks
	epsilon   decimal.Decimal
}

// RefundServiceConfig holds the dependencies for a RefundService
type RefundServiceConfig struct {
	Quotes    quote.QuoteRepository
	Refunds   ledger.RefundRequestRepository
	Entries   ledger.PaymentEventRepository
	Publisher shared.EventPublisher
	Metrics   *telemetry.BusinessMetrics
	Logger    *zap.Logger

	// Locks must be the same instance the PaymentService uses so refunds
	// and payments serialize against each other per quote
	Locks *QuoteLocks

	Epsilon decimal.Decimal
}

// NewRefundService creates a new RefundService
func NewRefundService(cfg RefundServiceConfig) *RefundService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = shared.NoopEventPublisher{}
	}
	locks := cfg.Locks
	if locks == nil {
		locks = NewQuoteLocks()
	}
	epsilon := cfg.Epsilon
	if epsilon.LessThanOrEqual(decimal.Zero) {
		epsilon = ledger.DefaultEpsilon
	}
	return &RefundService{
		quotes:    cfg.Quotes,
		refunds:   cfg.Refunds,
		entries:   cfg.Entries,
		publisher: publisher,
		metrics:   cfg.Metrics,
		logger:    logger,
		locks:     locks,
		epsilon:   epsilon,
	}
}

// RequestRefund opens a refund request against a quote. The requested
// amount may not exceed the amount actually paid so far.
func (s *RefundService) RequestRefund(ctx context.Context, quoteID uuid.UUID, amount decimal.Decimal, reason string, requestedBy *uuid.UUID) (*ledger.RefundRequest, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "request_refund")
	defer span.End()

	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if q == nil {
		err := shared.NewDomainError("NOT_FOUND", "Quote not found")
		telemetry.RecordError(span, err)
		return nil, err
	}

	paid, err := s.entries.SumCompleted(ctx, quoteID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if amount.GreaterThan(paid) {
		err := shared.NewDomainErrorWithDetails("INVALID_INPUT",
			"Requested refund exceeds the amount paid",
			map[string]any{"requested": amount.String(), "paid": paid.String()})
		telemetry.RecordError(span, err)
		return nil, err
	}

	money, err := valueobject.NewMoney(amount, q.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	request, err := ledger.NewRefundRequest(quoteID, money, reason, requestedBy)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.refunds.Save(ctx, request); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.drainEvents(request)
	s.logger.Info("refund requested",
		zap.String("quote_id", quoteID.String()),
		zap.String("refund_request_id", request.ID.String()),
		zap.String("amount", amount.String()))

	telemetry.SetOK(span)
	return request, nil
}

// ApproveRefund approves a refund request, setting the ceiling for refund
// entries. The approved amount may be lower than requested, never higher.
func (s *RefundService) ApproveRefund(ctx context.Context, requestID uuid.UUID, amount decimal.Decimal, approvedBy uuid.UUID) (*ledger.RefundRequest, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	money, err := valueobject.NewMoney(amount, request.Currency)
	if err != nil {
		return nil, err
	}
	if err := request.Approve(money, approvedBy); err != nil {
		return nil, err
	}
	if err := s.refunds.SaveWithLock(ctx, request); err != nil {
		return nil, err
	}

	s.drainEvents(request)
	s.logger.Info("refund approved",
		zap.String("refund_request_id", request.ID.String()),
		zap.String("approved_amount", amount.String()))

	return request, nil
}

// RejectRefund closes a refund request without paying anything out
func (s *RefundService) RejectRefund(ctx context.Context, requestID uuid.UUID, reason string) (*ledger.RefundRequest, error) {
	request, err := s.loadRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := request.Reject(reason); err != nil {
		return nil, err
	}
	if err := s.refunds.SaveWithLock(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

// ApplyRefundRequest carries one gateway refund execution
type ApplyRefundRequest struct {
	RefundRequestID   uuid.UUID
	Amount            decimal.Decimal
	GatewayCode       string
	ExternalReference string
}

// ApplyRefund appends a refund ledger entry against an approved request.
// The write-time ceiling check and the ledger append happen under the
// per-quote lock; a partial refund leaves the request open for the rest.
func (s *RefundService) ApplyRefund(ctx context.Context, req ApplyRefundRequest) (*LedgerResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "refund", "apply_refund")
	defer span.End()
	telemetry.SetAttributes(span,
		"refund_request_id", req.RefundRequestID.String(),
		"gateway_code", req.GatewayCode,
	)

	request, err := s.loadRequest(ctx, req.RefundRequestID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	unlock := s.locks.Acquire(request.QuoteID)
	defer unlock()

	// Duplicate gateway delivery of the same refund execution
	existing, err := s.entries.FindByIdempotencyKey(ctx, req.GatewayCode, req.ExternalReference)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if existing != nil {
		summary, serr := s.currentSummary(ctx, request.QuoteID)
		if serr != nil {
			telemetry.RecordError(span, serr)
			return nil, serr
		}
		if s.metrics != nil {
			s.metrics.RecordDuplicateAbsorbed(ctx, req.GatewayCode)
		}
		return &LedgerResult{Entry: existing, Summary: summary, Duplicate: true}, nil
	}

	money, err := valueobject.NewMoney(req.Amount, request.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	// Write-time ceiling enforcement; rejects before anything is appended
	if err := request.RegisterRefundEntry(money); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	entry, err := ledger.NewRefundEntry(request.QuoteID, money, req.GatewayCode, req.ExternalReference, request.ID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.refunds.SaveWithLock(ctx, request); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	summary, err := s.refreshQuote(ctx, request.QuoteID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.drainEvents(request)
	s.publish(ledger.NewPaymentRecordedEvent(entry, summary.Status))
	if s.metrics != nil {
		s.metrics.RecordPaymentEvent(ctx, req.GatewayCode, string(entry.Type))
	}

	s.logger.Info("refund applied",
		zap.String("quote_id", request.QuoteID.String()),
		zap.String("refund_request_id", request.ID.String()),
		zap.String("amount", req.Amount.String()),
		zap.String("remaining_approved", request.RemainingApproved().String()))

	telemetry.SetOK(span)
	return &LedgerResult{Entry: entry, Summary: summary, Duplicate: false}, nil
}

// GetRefundRequest loads a refund request by id
func (s *RefundService) GetRefundRequest(ctx context.Context, requestID uuid.UUID) (*ledger.RefundRequest, error) {
	return s.loadRequest(ctx, requestID)
}

// ListByQuote returns all refund requests for a quote
func (s *RefundService) ListByQuote(ctx context.Context, quoteID uuid.UUID) ([]ledger.RefundRequest, error) {
	return s.refunds.FindByQuote(ctx, quoteID)
}

func (s *RefundService) loadRequest(ctx context.Context, requestID uuid.UUID) (*ledger.RefundRequest, error) {
	request, err := s.refunds.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Refund request not found")
	}
	return request, nil
}

func (s *RefundService) currentSummary(ctx context.Context, quoteID uuid.UUID) (ledger.PaymentSummary, error) {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return ledger.PaymentSummary{}, err
	}
	if q == nil {
		return ledger.PaymentSummary{}, shared.NewDomainError("NOT_FOUND", "Quote not found")
	}
	paid, err := s.entries.SumCompleted(ctx, quoteID)
	if err != nil {
		return ledger.PaymentSummary{}, err
	}
	return ledger.Summarize(paid, q.Total(), s.epsilon), nil
}

// refreshQuote recomputes and caches the payment summary after a refund.
// Refunds never walk the lifecycle backwards; a refunded quote stays in its
// state with the summary showing the reduced amount paid.
func (s *RefundService) refreshQuote(ctx context.Context, quoteID uuid.UUID) (ledger.PaymentSummary, error) {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return ledger.PaymentSummary{}, err
	}
	if q == nil {
		return ledger.PaymentSummary{}, shared.NewDomainError("NOT_FOUND", "Quote not found")
	}
	paid, err := s.entries.SumCompleted(ctx, quoteID)
	if err != nil {
		return ledger.PaymentSummary{}, err
	}
	summary := ledger.Summarize(paid, q.Total(), s.epsilon)
	q.ApplyPaymentSummary(summary)
	if err := s.quotes.SaveWithLock(ctx, q); err != nil {
		return ledger.PaymentSummary{}, err
	}
	return summary, nil
}

func (s *RefundService) drainEvents(request *ledger.RefundRequest) {
	for _, event := range request.GetDomainEvents() {
		s.publish(event)
	}
	request.ClearDomainEvents()
}

func (s *RefundService) publish(event shared.DomainEvent) {
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("failed to publish domain event",
			zap.String("event_type", event.EventType()), zap.Error(err))
	}
}
