package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/crossbay/backend/internal/domain/pricing"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProfileRepository implements pricing.ProfileRepository using GORM
type GormProfileRepository struct {
	db *gorm.DB
}

// NewGormProfileRepository creates a new GormProfileRepository
func NewGormProfileRepository(db *gorm.DB) *GormProfileRepository {
	return &GormProfileRepository{db: db}
}

// FindEffective returns the newest profile version for the destination
// country whose effective_from is not after asOf
func (r *GormProfileRepository) FindEffective(ctx context.Context, destinationCountry string, asOf time.Time) (*pricing.TaxFeeProfile, error) {
	var profile pricing.TaxFeeProfile
	if err := r.db.WithContext(ctx).
		Where("destination_country = ? AND effective_from <= ?", destinationCountry, asOf).
		Order("effective_from DESC").
		First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// FindByID finds a profile version by ID
func (r *GormProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*pricing.TaxFeeProfile, error) {
	var profile pricing.TaxFeeProfile
	if err := r.db.WithContext(ctx).
		First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

// Save creates or updates a profile version
func (r *GormProfileRepository) Save(ctx context.Context, profile *pricing.TaxFeeProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

var _ pricing.ProfileRepository = (*GormProfileRepository)(nil)
