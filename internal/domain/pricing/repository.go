package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ProfileRepository stores versioned tax/fee profiles
type ProfileRepository interface {
	// FindEffective returns the profile version for the destination country
	// effective at asOf (the newest EffectiveFrom not after asOf), or nil
	FindEffective(ctx context.Context, destinationCountry string, asOf time.Time) (*TaxFeeProfile, error)

	// FindByID returns a specific profile version
	FindByID(ctx context.Context, id uuid.UUID) (*TaxFeeProfile, error)

	Save(ctx context.Context, profile *TaxFeeProfile) error
}
