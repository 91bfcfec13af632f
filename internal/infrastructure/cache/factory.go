package cache

import (
	"github.com/crossbay/backend/internal/domain/shared"
	"github.com/crossbay/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// NewIdempotencyStore builds the idempotency store for the configured
// deployment: Redis when enabled, otherwise in-memory. A Redis connection
// failure falls back to in-memory with a warning rather than refusing to
// start; the ledger's unique index still guarantees correctness.
func NewIdempotencyStore(cfg *config.Config, logger *zap.Logger) shared.IdempotencyStore {
	if cfg.Redis.Enabled {
		store, err := NewRedisIdempotencyStore(RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err == nil {
			logger.Info("using Redis idempotency store",
				zap.String("host", cfg.Redis.Host), zap.Int("port", cfg.Redis.Port))
			return store
		}
		logger.Warn("Redis unavailable, falling back to in-memory idempotency store", zap.Error(err))
	}
	return NewInMemoryIdempotencyStore()
}
