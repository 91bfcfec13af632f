package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crossbay/backend/internal/domain/pricing"
	"github.com/crossbay/backend/internal/domain/shared/valueobject"
	"gorm.io/gorm"
)

// GormRateRepository implements pricing.RateRepository using GORM
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GormRateRepository
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// FindRouteOverride returns the newest route-pinned rate for the pair
// effective at asOf
func (r *GormRateRepository) FindRouteOverride(ctx context.Context, from, to valueobject.Currency, originCountry, destinationCountry string, asOf time.Time) (*pricing.RateRecord, error) {
	var record pricing.RateRecord
	if err := r.db.WithContext(ctx).
		Where("from_currency = ? AND to_currency = ?", from, to).
		Where("origin_country = ? AND destination_country = ?", originCountry, destinationCountry).
		Where("effective_from <= ?", asOf).
		Order("effective_from DESC").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindCountryBase returns the newest country-level rate for the pair
// effective at asOf. Country-level rows carry an empty origin country.
func (r *GormRateRepository) FindCountryBase(ctx context.Context, from, to valueobject.Currency, destinationCountry string, asOf time.Time) (*pricing.RateRecord, error) {
	var record pricing.RateRecord
	if err := r.db.WithContext(ctx).
		Where("from_currency = ? AND to_currency = ?", from, to).
		Where("origin_country = '' AND destination_country = ?", destinationCountry).
		Where("effective_from <= ?", asOf).
		Order("effective_from DESC").
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Save creates or updates a rate record
func (r *GormRateRepository) Save(ctx context.Context, record *pricing.RateRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

var _ pricing.RateRepository = (*GormRateRepository)(nil)
