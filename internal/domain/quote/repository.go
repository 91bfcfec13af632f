package quote

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QuoteRepository defines the persistence operations for quotes
type QuoteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Quote, error)
	FindByNumber(ctx context.Context, quoteNumber string) (*Quote, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Quote, error)
	FindByStatus(ctx context.Context, status QuoteStatus, limit, offset int) ([]Quote, error)

	Save(ctx context.Context, q *Quote) error

	// SaveWithLock saves with an optimistic version check. Returns a
	// CONCURRENCY_CONFLICT error when the stored version moved underneath.
	SaveWithLock(ctx context.Context, q *Quote) error

	// FindDueForExpiration returns ids of SENT quotes whose deadline passed
	FindDueForExpiration(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)

	// ExpireDue atomically expires one quote with a conditional update
	// (status is SENT and the deadline passed). Returns false when another
	// writer got there first; losing the race is not an error.
	ExpireDue(ctx context.Context, quoteID uuid.UUID, now time.Time) (bool, error)
}
