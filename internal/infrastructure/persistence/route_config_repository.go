package persistence

import (
	"context"
	"errors"

	"github.com/crossbay/backend/internal/domain/pricing"
	"gorm.io/gorm"
)

// GormRouteConfigRepository implements pricing.RouteConfigRepository using GORM
type GormRouteConfigRepository struct {
	db *gorm.DB
}

// NewGormRouteConfigRepository creates a new GormRouteConfigRepository
func NewGormRouteConfigRepository(db *gorm.DB) *GormRouteConfigRepository {
	return &GormRouteConfigRepository{db: db}
}

// FindRoute returns the active config for a shipping lane, or nil
func (r *GormRouteConfigRepository) FindRoute(ctx context.Context, originCountry, destinationCountry string) (*pricing.RouteConfig, error) {
	var route pricing.RouteConfig
	if err := r.db.WithContext(ctx).
		Where("origin_country = ? AND destination_country = ? AND active = ?", originCountry, destinationCountry, true).
		First(&route).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &route, nil
}

// Save creates or updates a route configuration
func (r *GormRouteConfigRepository) Save(ctx context.Context, route *pricing.RouteConfig) error {
	return r.db.WithContext(ctx).Save(route).Error
}

var _ pricing.RouteConfigRepository = (*GormRouteConfigRepository)(nil)
