package quote

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TransitionLogEntry is one append-only record of a quote status change.
// The log is the audit trail: entries are never updated or deleted.
type TransitionLogEntry struct {
	ID         uuid.UUID   `json:"id" gorm:"type:uuid;primaryKey"`
	QuoteID    uuid.UUID   `json:"quote_id" gorm:"type:uuid;not null;index"`
	FromStatus QuoteStatus `json:"from_status" gorm:"not null"`
	ToStatus   QuoteStatus `json:"to_status" gorm:"not null"`
	Trigger    string      `json:"trigger" gorm:"not null"`
	Actor      *uuid.UUID  `json:"actor" gorm:"type:uuid"`
	CreatedAt  time.Time   `json:"created_at" gorm:"not null"`
}

// NewTransitionLogEntry creates a log entry for a completed transition
func NewTransitionLogEntry(quoteID uuid.UUID, from, to QuoteStatus, trigger string, actor *uuid.UUID) TransitionLogEntry {
	return TransitionLogEntry{
		ID:         uuid.New(),
		QuoteID:    quoteID,
		FromStatus: from,
		ToStatus:   to,
		Trigger:    trigger,
		Actor:      actor,
		CreatedAt:  time.Now(),
	}
}

// TransitionLogRepository persists the append-only transition log
type TransitionLogRepository interface {
	Append(ctx context.Context, entries ...TransitionLogEntry) error
	FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]TransitionLogEntry, error)
}
