package shared

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type stubEvent struct {
	BaseDomainEvent
}

func TestBaseAggregateRoot(t *testing.T) {
	t.Run("fresh aggregate starts at version 1 with identity", func(t *testing.T) {
		root := NewBaseAggregateRoot()
		assert.NotEqual(t, uuid.Nil, root.ID)
		assert.Equal(t, 1, root.Version)
		assert.Empty(t, root.GetDomainEvents())
	})

	t.Run("version bumps on every locked save", func(t *testing.T) {
		root := NewBaseAggregateRoot()
		root.IncrementVersion()
		root.IncrementVersion()
		assert.Equal(t, 3, root.Version)
	})

	t.Run("events accumulate in order and drain on clear", func(t *testing.T) {
		root := NewBaseAggregateRoot()
		root.AddDomainEvent(&stubEvent{NewBaseDomainEvent("quote.sent", "quote", root.ID)})
		root.AddDomainEvent(&stubEvent{NewBaseDomainEvent("quote.approved", "quote", root.ID)})

		events := root.GetDomainEvents()
		assert.Len(t, events, 2)
		assert.Equal(t, "quote.sent", events[0].EventType())
		assert.Equal(t, "quote.approved", events[1].EventType())

		root.ClearDomainEvents()
		assert.Empty(t, root.GetDomainEvents())
	})
}
