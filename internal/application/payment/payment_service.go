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

// PaymentService records gateway payment events into the append-only ledger
// and keeps the quote's derived payment summary current.
//
// Idempotency is layered: a fast store short-circuits obvious replays, the
// per-quote lock serializes the check-then-append window in this process,
// and the unique index on (gateway_code, external_reference) catches
// everything else. A duplicate delivery is absorbed, never double-counted.
type PaymentService struct {
	quotes      quote.QuoteRepository
	entries     ledger.PaymentEventRepository
	transitions quote.TransitionLogRepository
	idempotency shared.IdempotencyStore
	idemConfig  shared.IdempotencyConfig
	publisher   shared.EventPublisher
	metrics     *telemetry.BusinessMetrics
	logger      *zap.Logger
	locks       *QuoteLocks
	epsilon     decimal.Decimal
}

// PaymentServiceConfig holds the dependencies for a PaymentService
type PaymentServiceConfig struct {
	Quotes      quote.QuoteRepository
	Entries     ledger.PaymentEventRepository
	Transitions quote.TransitionLogRepository
	Idempotency shared.IdempotencyStore
	IdemConfig  shared.IdempotencyConfig
	Publisher   shared.EventPublisher
	Metrics     *telemetry.BusinessMetrics
	Logger      *zap.Logger
	Locks       *QuoteLocks

	// Epsilon is the settlement tolerance; zero means the default
	Epsilon decimal.Decimal
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg PaymentServiceConfig) *PaymentService {
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
	idemConfig := cfg.IdemConfig
	if idemConfig.TTL == 0 {
		idemConfig = shared.DefaultIdempotencyConfig()
	}
	return &PaymentService{
		quotes:      cfg.Quotes,
		entries:     cfg.Entries,
		transitions: cfg.Transitions,
		idempotency: cfg.Idempotency,
		idemConfig:  idemConfig,
		publisher:   publisher,
		metrics:     cfg.Metrics,
		logger:      logger,
		locks:       locks,
		epsilon:     epsilon,
	}
}

// RecordPaymentRequest carries one gateway payment notification
type RecordPaymentRequest struct {
	QuoteID           uuid.UUID
	Amount            decimal.Decimal
	Currency          valueobject.Currency
	GatewayCode       string
	ExternalReference string
}

// LedgerResult is the outcome of recording a ledger event. Duplicate is true
// when the delivery was already absorbed; the existing entry and the current
// summary are returned unchanged.
type LedgerResult struct {
	Entry     *ledger.PaymentEvent  `json:"entry"`
	Summary   ledger.PaymentSummary `json:"summary"`
	Duplicate bool                  `json:"duplicate"`
}

// RecordPayment appends a customer payment to the ledger and refreshes the
// quote's payment summary, marking the quote paid once the ledger settles
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*LedgerResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		"quote_id", req.QuoteID.String(),
		"gateway_code", req.GatewayCode,
		"external_reference", req.ExternalReference,
	)

	unlock := s.locks.Acquire(req.QuoteID)
	defer unlock()

	if dup, err := s.findDuplicate(ctx, req.QuoteID, req.GatewayCode, req.ExternalReference); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	} else if dup != nil {
		s.logger.Info("duplicate payment delivery absorbed",
			zap.String("quote_id", req.QuoteID.String()),
			zap.String("gateway_code", req.GatewayCode),
			zap.String("external_reference", req.ExternalReference))
		if s.metrics != nil {
			s.metrics.RecordDuplicateAbsorbed(ctx, req.GatewayCode)
		}
		return dup, nil
	}

	q, err := s.loadQuote(ctx, req.QuoteID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.acceptsPayments(q); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Currency != q.Currency {
		err := shared.NewDomainErrorWithDetails("INVALID_INPUT", "Payment currency does not match the quote",
			map[string]any{"payment_currency": string(req.Currency), "quote_currency": string(q.Currency)})
		telemetry.RecordError(span, err)
		return nil, err
	}

	amount, err := valueobject.NewMoney(req.Amount, req.Currency)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	entry, err := ledger.NewCustomerPayment(req.QuoteID, amount, req.GatewayCode, req.ExternalReference)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.entries.Append(ctx, entry); err != nil {
		// The unique index caught a replay the store missed
		if shared.IsCode(err, "ALREADY_EXISTS") {
			dup, derr := s.resolveDuplicate(ctx, req.QuoteID, req.GatewayCode, req.ExternalReference)
			if derr != nil {
				telemetry.RecordError(span, derr)
				return nil, derr
			}
			if dup != nil {
				if s.metrics != nil {
					s.metrics.RecordDuplicateAbsorbed(ctx, req.GatewayCode)
				}
				return dup, nil
			}
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	summary, err := s.refreshQuoteSummary(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.markProcessed(ctx, entry.IdempotencyKey())
	s.publish(ledger.NewPaymentRecordedEvent(entry, summary.Status))
	if s.metrics != nil {
		s.metrics.RecordPaymentEvent(ctx, req.GatewayCode, string(entry.Type))
		if summary.Status == ledger.PaymentStatusOverpaid {
			s.metrics.RecordOverpayment(ctx, req.GatewayCode)
		}
	}

	s.logger.Info("payment recorded",
		zap.String("quote_id", q.ID.String()),
		zap.String("amount", entry.Amount.String()),
		zap.String("payment_status", summary.Status.String()))

	telemetry.SetOK(span)
	return &LedgerResult{Entry: entry, Summary: summary, Duplicate: false}, nil
}

// RecordAdjustmentRequest carries a signed manual ledger correction
type RecordAdjustmentRequest struct {
	QuoteID           uuid.UUID
	Amount            decimal.Decimal
	Currency          valueobject.Currency
	ExternalReference string
	Notes             string
}

// RecordAdjustment appends a manual adjustment entry. Used for price
// adjustment deltas and operator corrections; history is never rewritten.
func (s *PaymentService) RecordAdjustment(ctx context.Context, req RecordAdjustmentRequest) (*LedgerResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record_adjustment")
	defer span.End()

	unlock := s.locks.Acquire(req.QuoteID)
	defer unlock()

	if dup, err := s.findDuplicate(ctx, req.QuoteID, "manual", req.ExternalReference); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	} else if dup != nil {
		return dup, nil
	}

	q, err := s.loadQuote(ctx, req.QuoteID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if req.Currency != q.Currency {
		err := shared.NewDomainError("INVALID_INPUT", "Adjustment currency does not match the quote")
		telemetry.RecordError(span, err)
		return nil, err
	}

	amount := valueobject.MustMoney(req.Amount, req.Currency)
	entry, err := ledger.NewAdjustment(req.QuoteID, amount, req.ExternalReference, req.Notes)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.entries.Append(ctx, entry); err != nil {
		if shared.IsCode(err, "ALREADY_EXISTS") {
			dup, derr := s.resolveDuplicate(ctx, req.QuoteID, "manual", req.ExternalReference)
			if derr != nil {
				telemetry.RecordError(span, derr)
				return nil, derr
			}
			if dup != nil {
				return dup, nil
			}
		}
		telemetry.RecordError(span, err)
		return nil, err
	}

	summary, err := s.refreshQuoteSummary(ctx, q)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.markProcessed(ctx, entry.IdempotencyKey())
	s.publish(ledger.NewPaymentRecordedEvent(entry, summary.Status))

	telemetry.SetOK(span)
	return &LedgerResult{Entry: entry, Summary: summary, Duplicate: false}, nil
}

// QuoteSummary recomputes a quote's payment summary straight from the ledger
func (s *PaymentService) QuoteSummary(ctx context.Context, quoteID uuid.UUID) (ledger.PaymentSummary, error) {
	q, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return ledger.PaymentSummary{}, err
	}
	paid, err := s.entries.SumCompleted(ctx, quoteID)
	if err != nil {
		return ledger.PaymentSummary{}, err
	}
	return ledger.Summarize(paid, q.Total(), s.epsilon), nil
}

// LedgerEntries returns all ledger entries for a quote, oldest first
func (s *PaymentService) LedgerEntries(ctx context.Context, quoteID uuid.UUID) ([]ledger.PaymentEvent, error) {
	return s.entries.FindByQuote(ctx, quoteID)
}

// findDuplicate consults the idempotency store for an earlier delivery of
// the same gateway event. A hit is resolved against the ledger; a miss
// proceeds to the append, where the unique index backstops replays the
// store never saw or already expired. Caller must hold the quote lock.
func (s *PaymentService) findDuplicate(ctx context.Context, quoteID uuid.UUID, gatewayCode, externalReference string) (*LedgerResult, error) {
	if !s.isProcessed(ctx, gatewayCode+":"+externalReference) {
		return nil, nil
	}
	return s.resolveDuplicate(ctx, quoteID, gatewayCode, externalReference)
}

// resolveDuplicate loads the earlier entry for (gateway_code,
// external_reference) and rebuilds the current summary around it
func (s *PaymentService) resolveDuplicate(ctx context.Context, quoteID uuid.UUID, gatewayCode, externalReference string) (*LedgerResult, error) {
	existing, err := s.entries.FindByIdempotencyKey(ctx, gatewayCode, externalReference)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	if existing.QuoteID != quoteID {
		return nil, shared.NewDomainErrorWithDetails("DUPLICATE_EVENT",
			"Gateway event was already recorded against another quote",
			map[string]any{"quote_id": existing.QuoteID.String()})
	}

	s.markProcessed(ctx, existing.IdempotencyKey())

	q, err := s.loadQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	paid, err := s.entries.SumCompleted(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	summary := ledger.Summarize(paid, q.Total(), s.epsilon)
	return &LedgerResult{Entry: existing, Summary: summary, Duplicate: true}, nil
}

// refreshQuoteSummary recomputes the summary from the ledger, caches it on
// the quote, and advances the lifecycle once settled
func (s *PaymentService) refreshQuoteSummary(ctx context.Context, q *quote.Quote) (ledger.PaymentSummary, error) {
	paid, err := s.entries.SumCompleted(ctx, q.ID)
	if err != nil {
		return ledger.PaymentSummary{}, err
	}
	summary := ledger.Summarize(paid, q.Total(), s.epsilon)
	q.ApplyPaymentSummary(summary)

	if summary.Status.IsSettled() &&
		(q.Status == quote.QuoteStatusApproved || q.Status == quote.QuoteStatusPaymentPending) {
		if err := q.MarkPaid(); err != nil {
			return ledger.PaymentSummary{}, err
		}
	}

	if err := s.quotes.SaveWithLock(ctx, q); err != nil {
		return ledger.PaymentSummary{}, err
	}
	if entries := q.PendingTransitions(); len(entries) > 0 {
		if err := s.transitions.Append(ctx, entries...); err != nil {
			return ledger.PaymentSummary{}, err
		}
		q.ClearPendingTransitions()
	}
	for _, event := range q.GetDomainEvents() {
		s.publish(event)
	}
	q.ClearDomainEvents()

	return summary, nil
}

func (s *PaymentService) loadQuote(ctx context.Context, quoteID uuid.UUID) (*quote.Quote, error) {
	q, err := s.quotes.FindByID(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Quote not found")
	}
	return q, nil
}

// acceptsPayments rejects money against quotes that were never approved or
// that closed without payment
func (s *PaymentService) acceptsPayments(q *quote.Quote) error {
	switch q.Status {
	case quote.QuoteStatusPending, quote.QuoteStatusSent,
		quote.QuoteStatusRejected, quote.QuoteStatusExpired, quote.QuoteStatusCancelled:
		return shared.NewDomainErrorWithDetails("INVALID_TRANSITION",
			"Quote does not accept payments in its current status",
			map[string]any{"status": q.Status.String()})
	}
	return nil
}

func (s *PaymentService) isProcessed(ctx context.Context, key string) bool {
	if s.idempotency == nil || !s.idemConfig.Enabled {
		return false
	}
	processed, err := s.idempotency.IsProcessed(ctx, key)
	if err != nil {
		s.logger.Warn("idempotency store lookup failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return processed
}

func (s *PaymentService) markProcessed(ctx context.Context, key string) {
	if s.idempotency == nil || !s.idemConfig.Enabled {
		return
	}
	if _, err := s.idempotency.MarkProcessed(ctx, key, s.idemConfig.TTL); err != nil {
		s.logger.Warn("failed to mark idempotency key", zap.String("key", key), zap.Error(err))
	}
}

func (s *PaymentService) publish(event shared.DomainEvent) {
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("failed to publish domain event",
			zap.String("event_type", event.EventType()), zap.Error(err))
	}
}
