package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/crossbay/backend/internal/application/quoting"
	"go.uber.org/zap"
)

// ExpirationScheduler periodically sweeps SENT quotes whose validity
// deadline has passed and expires them.
type ExpirationScheduler struct {
	service   *quoting.ExpirationService
	logger    *zap.Logger
	config    ExpirationSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// ExpirationSchedulerConfig holds configuration for the expiration scheduler
type ExpirationSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval is the time between sweep runs
	Interval time.Duration

	// SweepTimeout is the maximum time for a single sweep run
	SweepTimeout time.Duration
}

// DefaultExpirationSchedulerConfig returns default configuration
func DefaultExpirationSchedulerConfig() ExpirationSchedulerConfig {
	return ExpirationSchedulerConfig{
		Enabled:      true,
		Interval:     time.Minute,
		SweepTimeout: 30 * time.Second,
	}
}

// NewExpirationScheduler creates a new expiration scheduler
func NewExpirationScheduler(
	service *quoting.ExpirationService,
	logger *zap.Logger,
	config ExpirationSchedulerConfig,
) *ExpirationScheduler {
	return &ExpirationScheduler{
		service: service,
		logger:  logger,
		config:  config,
	}
}

// Start starts the sweep loop
func (s *ExpirationScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Quote expiration scheduler is disabled")
		return nil
	}
	if s.config.Interval <= 0 {
		s.mu.Unlock()
		return ErrInvalidConfig
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Quote expiration scheduler started",
		zap.Duration("interval", s.config.Interval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *ExpirationScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Quote expiration scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Quote expiration scheduler stop timed out")
		return ctx.Err()
	}
}

func (s *ExpirationScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Expiration sweep loop stopping")
			return
		case <-ticker.C:
			s.executeSweep(ctx)
		}
	}
}

func (s *ExpirationScheduler) executeSweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	startTime := time.Now()
	expired, err := s.service.SweepExpired(sweepCtx, startTime)
	duration := time.Since(startTime)

	if err != nil {
		s.logger.Error("Quote expiration sweep failed",
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return
	}

	if expired > 0 {
		s.logger.Info("Quote expiration sweep completed",
			zap.Duration("duration", duration),
			zap.Int("expired", expired),
		)
	}
}

// TriggerImmediateSweep triggers a sweep run outside the regular interval
func (s *ExpirationScheduler) TriggerImmediateSweep(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		s.executeSweep(ctx)
	}()

	return nil
}

// IsRunning returns whether the scheduler is running
func (s *ExpirationScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}
