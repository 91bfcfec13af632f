package pricing

import (
	"context"

	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RouteConfig holds per-lane shipping settings. The surcharge is a flat
// addition in the origin currency on top of the tiered shipping rate.
// A lane without a config simply carries no surcharge.
type RouteConfig struct {
	shared.BaseEntity

	OriginCountry      string          `json:"origin_country" gorm:"uniqueIndex:idx_route_lane;not null"`
	DestinationCountry string          `json:"destination_country" gorm:"uniqueIndex:idx_route_lane;not null"`
	Surcharge          decimal.Decimal `json:"surcharge" gorm:"type:numeric(20,6)"`
	Active             bool            `json:"active" gorm:"not null;default:true"`
}

// NewRouteConfig creates a route configuration for a shipping lane
func NewRouteConfig(originCountry, destinationCountry string, surcharge decimal.Decimal) (*RouteConfig, error) {
	if originCountry == "" || destinationCountry == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Route countries cannot be empty")
	}
	if surcharge.IsNegative() {
		return nil, shared.NewDomainErrorWithDetails("INVALID_INPUT", "Route surcharge cannot be negative",
			map[string]any{"field": "surcharge"})
	}
	return &RouteConfig{
		BaseEntity:         shared.NewBaseEntity(),
		OriginCountry:      originCountry,
		DestinationCountry: destinationCountry,
		Surcharge:          surcharge,
		Active:             true,
	}, nil
}

// RouteConfigRepository stores shipping-lane configurations
type RouteConfigRepository interface {
	// FindRoute returns the active config for a lane, or nil
	FindRoute(ctx context.Context, originCountry, destinationCountry string) (*RouteConfig, error)

	Save(ctx context.Context, route *RouteConfig) error
}
