package persistence

import (
	"context"

	"github.com/crossbay/backend/internal/domain/quote"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTransitionLogRepository implements quote.TransitionLogRepository.
// The log is append-only; there are no update or delete operations.
type GormTransitionLogRepository struct {
	db *gorm.DB
}

// NewGormTransitionLogRepository creates a new GormTransitionLogRepository
func NewGormTransitionLogRepository(db *gorm.DB) *GormTransitionLogRepository {
	return &GormTransitionLogRepository{db: db}
}

// Append inserts transition log entries
func (r *GormTransitionLogRepository) Append(ctx context.Context, entries ...quote.TransitionLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// FindByQuote returns a quote's transition history, oldest first
func (r *GormTransitionLogRepository) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]quote.TransitionLogEntry, error) {
	var entries []quote.TransitionLogEntry
	if err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

var _ quote.TransitionLogRepository = (*GormTransitionLogRepository)(nil)
