package persistence

import (
	"context"
	"errors"

	"github.com/crossbay/backend/internal/domain/ledger"
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentEventRepository implements ledger.PaymentEventRepository.
// The unique index on (gateway_code, external_reference) makes duplicate
// appends fail at the database even if every in-process check is bypassed.
type GormPaymentEventRepository struct {
	db *gorm.DB
}

// NewGormPaymentEventRepository creates a new GormPaymentEventRepository
func NewGormPaymentEventRepository(db *gorm.DB) *GormPaymentEventRepository {
	return &GormPaymentEventRepository{db: db}
}

// Append inserts a new ledger entry
func (r *GormPaymentEventRepository) Append(ctx context.Context, event *ledger.PaymentEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainErrorWithDetails("ALREADY_EXISTS",
				"Ledger entry with this gateway reference already exists",
				map[string]any{
					"gateway_code":       event.GatewayCode,
					"external_reference": event.ExternalReference,
				})
		}
		return err
	}
	return nil
}

// FindByID finds a ledger entry by ID
func (r *GormPaymentEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PaymentEvent, error) {
	var event ledger.PaymentEvent
	if err := r.db.WithContext(ctx).
		First(&event, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// FindByIdempotencyKey finds the entry for (gateway_code, external_reference)
func (r *GormPaymentEventRepository) FindByIdempotencyKey(ctx context.Context, gatewayCode, externalReference string) (*ledger.PaymentEvent, error) {
	var event ledger.PaymentEvent
	if err := r.db.WithContext(ctx).
		First(&event, "gateway_code = ? AND external_reference = ?", gatewayCode, externalReference).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// FindByQuote returns all ledger entries for a quote, oldest first
func (r *GormPaymentEventRepository) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]ledger.PaymentEvent, error) {
	var events []ledger.PaymentEvent
	if err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// FindByRefundRequest returns the refund entries linked to a request
func (r *GormPaymentEventRepository) FindByRefundRequest(ctx context.Context, refundRequestID uuid.UUID) ([]ledger.PaymentEvent, error) {
	var events []ledger.PaymentEvent
	if err := r.db.WithContext(ctx).
		Where("refund_request_id = ?", refundRequestID).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// SumCompleted returns the signed sum of completed entries for a quote
func (r *GormPaymentEventRepository) SumCompleted(ctx context.Context, quoteID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&ledger.PaymentEvent{}).
		Where("quote_id = ? AND status = ?", quoteID, ledger.PaymentEventStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if sum.Valid {
		return sum.Decimal, nil
	}
	return decimal.Zero, nil
}

// UpdateStatus persists a settlement status change on an entry
func (r *GormPaymentEventRepository) UpdateStatus(ctx context.Context, event *ledger.PaymentEvent) error {
	return r.db.WithContext(ctx).
		Model(&ledger.PaymentEvent{}).
		Where("id = ?", event.ID).
		Updates(map[string]any{
			"status":       event.Status,
			"completed_at": event.CompletedAt,
			"failed_at":    event.FailedAt,
			"updated_at":   event.UpdatedAt,
		}).Error
}

var _ ledger.PaymentEventRepository = (*GormPaymentEventRepository)(nil)
