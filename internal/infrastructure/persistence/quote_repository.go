package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQuoteRepository implements quote.QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByID finds a quote by ID with its line items
func (r *GormQuoteRepository) FindByID(ctx context.Context, id uuid.UUID) (*quote.Quote, error) {
	var q quote.Quote
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&q, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// FindByNumber finds a quote by its unique quote number
func (r *GormQuoteRepository) FindByNumber(ctx context.Context, quoteNumber string) (*quote.Quote, error) {
	var q quote.Quote
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&q, "quote_number = ?", quoteNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

// FindByCustomer finds a customer's quotes, newest first
func (r *GormQuoteRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]quote.Quote, error) {
	var quotes []quote.Quote
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// FindByStatus finds quotes in a given lifecycle status
func (r *GormQuoteRepository) FindByStatus(ctx context.Context, status quote.QuoteStatus, limit, offset int) ([]quote.Quote, error) {
	var quotes []quote.Quote
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("status = ?", status).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit).Offset(offset)
	}
	if err := query.Find(&quotes).Error; err != nil {
		return nil, err
	}
	return quotes, nil
}

// Save creates or updates a quote together with its line items
func (r *GormQuoteRepository) Save(ctx context.Context, q *quote.Quote) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(q).Error
}

// SaveWithLock saves with an optimistic version check. Line items are not
// touched; they only change through Save while the quote is still pending.
func (r *GormQuoteRepository) SaveWithLock(ctx context.Context, q *quote.Quote) error {
	oldVersion := q.Version
	q.IncrementVersion()

	result := r.db.WithContext(ctx).
		Model(&quote.Quote{}).
		Where("id = ? AND version = ?", q.ID, oldVersion).
		Select("*").Omit("Items", "id", "created_at").
		Updates(q)

	if result.Error != nil {
		q.Version = oldVersion
		return result.Error
	}
	if result.RowsAffected == 0 {
		q.Version = oldVersion
		return shared.NewDomainErrorWithDetails("CONCURRENCY_CONFLICT",
			"Quote was modified concurrently",
			map[string]any{"quote_id": q.ID.String()})
	}
	return nil
}

// FindDueForExpiration returns ids of SENT quotes whose deadline passed
func (r *GormQuoteRepository) FindDueForExpiration(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	query := r.db.WithContext(ctx).
		Model(&quote.Quote{}).
		Where("status = ? AND expires_at < ?", quote.QuoteStatusSent, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ExpireDue atomically expires one due quote. The conditional update only
// matches while the quote is still SENT with a passed deadline, so exactly
// one writer wins.
func (r *GormQuoteRepository) ExpireDue(ctx context.Context, quoteID uuid.UUID, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&quote.Quote{}).
		Where("id = ? AND status = ? AND expires_at < ?", quoteID, quote.QuoteStatusSent, now).
		Updates(map[string]any{
			"status":     quote.QuoteStatusExpired,
			"updated_at": now,
			"version":    gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

var _ quote.QuoteRepository = (*GormQuoteRepository)(nil)
