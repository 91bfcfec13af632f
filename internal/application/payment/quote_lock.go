package payment

import (
	"sync"

	"github.com/google/uuid"
)

// QuoteLocks serializes ledger writes per quote within this process. The
// lock spans the idempotency check and the append, closing the window where
// two retried deliveries of the same gateway event both pass the check.
// The database unique index on (gateway_code, external_reference) remains
// the cross-process backstop.
type QuoteLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*quoteLock
}

type quoteLock struct {
	mu   sync.Mutex
	refs int
}

// NewQuoteLocks creates a new QuoteLocks
func NewQuoteLocks() *QuoteLocks {
	return &QuoteLocks{locks: make(map[uuid.UUID]*quoteLock)}
}

// Acquire locks the given quote and returns the release function. Entries
// are reference counted and removed when the last holder releases, so the
// map does not grow with quote history.
func (l *QuoteLocks) Acquire(quoteID uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.locks[quoteID]
	if !ok {
		entry = &quoteLock{}
		l.locks[quoteID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, quoteID)
		}
		l.mu.Unlock()
	}
}
