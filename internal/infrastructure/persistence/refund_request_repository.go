package persistence

import (
	"context"
	"errors"

	"github.com/crossbay/backend/internal/domain/ledger"
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRefundRequestRepository implements ledger.RefundRequestRepository using GORM
type GormRefundRequestRepository struct {
	db *gorm.DB
}

// NewGormRefundRequestRepository creates a new GormRefundRequestRepository
func NewGormRefundRequestRepository(db *gorm.DB) *GormRefundRequestRepository {
	return &GormRefundRequestRepository{db: db}
}

// FindByID finds a refund request by ID
func (r *GormRefundRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.RefundRequest, error) {
	var request ledger.RefundRequest
	if err := r.db.WithContext(ctx).
		First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &request, nil
}

// FindByQuote returns all refund requests for a quote, newest first
func (r *GormRefundRequestRepository) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]ledger.RefundRequest, error) {
	var requests []ledger.RefundRequest
	if err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// Save creates or updates a refund request
func (r *GormRefundRequestRepository) Save(ctx context.Context, request *ledger.RefundRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

// SaveWithLock saves with an optimistic version check so two concurrent
// refund applications cannot both pass the approved-amount ceiling
func (r *GormRefundRequestRepository) SaveWithLock(ctx context.Context, request *ledger.RefundRequest) error {
	oldVersion := request.Version
	request.IncrementVersion()

	result := r.db.WithContext(ctx).
		Model(&ledger.RefundRequest{}).
		Where("id = ? AND version = ?", request.ID, oldVersion).
		Select("*").Omit("id", "created_at").
		Updates(request)

	if result.Error != nil {
		request.Version = oldVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		request.Version = oldVersion
		return shared.NewDomainErrorWithDetails("CONCURRENCY_CONFLICT",
			"Refund request was modified concurrently",
			map[string]any{"refund_request_id": request.ID.String()})
	}
	return nil
}

var _ ledger.RefundRequestRepository = (*GormRefundRequestRepository)(nil)
