// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when business metrics are constructed without a meter.
var ErrMeterNil = errors.New("telemetry: meter is nil")

// BusinessMetrics tracks the financial health signals of the platform:
// ledger activity, absorbed duplicate deliveries, quote expirations, and
// reconciliation drift.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	paymentEventsTotal      *Counter
	duplicatesAbsorbedTotal *Counter
	quotesExpiredTotal      *Counter
	quotesCreatedTotal      *Counter
	driftDetectedTotal      *Counter
	overpaymentsTotal       *Counter
	quoteTotals             *Histogram
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:  cfg.Meter,
		logger: logger,
	}

	var err error

	bm.paymentEventsTotal, err = NewCounter(
		cfg.Meter,
		"crossbay_ledger_events_total",
		"Total number of ledger entries appended",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	bm.duplicatesAbsorbedTotal, err = NewCounter(
		cfg.Meter,
		"crossbay_ledger_duplicates_absorbed_total",
		"Total number of duplicate gateway deliveries absorbed idempotently",
		"{events}",
	)
	if err != nil {
		return nil, err
	}

	bm.quotesExpiredTotal, err = NewCounter(
		cfg.Meter,
		"crossbay_quotes_expired_total",
		"Total number of quotes auto-expired by the sweep",
		"{quotes}",
	)
	if err != nil {
		return nil, err
	}

	bm.quotesCreatedTotal, err = NewCounter(
		cfg.Meter,
		"crossbay_quotes_created_total",
		"Total number of quotes created",
		"{quotes}",
	)
	if err != nil {
		return nil, err
	}

	bm.driftDetectedTotal, err = NewCounter(
		cfg.Meter,
		"crossbay_reconciliation_drift_total",
		"Total number of quotes flagged with financial drift",
		"{quotes}",
	)
	if err != nil {
		return nil, err
	}

	bm.overpaymentsTotal, err = NewCounter(
		cfg.Meter,
		"crossbay_ledger_overpayments_total",
		"Total number of quotes that moved into the overpaid state",
		"{quotes}",
	)
	if err != nil {
		return nil, err
	}

	bm.quoteTotals, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "crossbay_quote_grand_total",
		Description: "Distribution of calculated quote grand totals",
		Unit:        "{money}",
		Boundaries:  QuoteTotalBuckets,
	})
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordPaymentEvent records a ledger entry append.
func (bm *BusinessMetrics) RecordPaymentEvent(ctx context.Context, gatewayCode, eventType string) {
	if bm == nil {
		return
	}
	bm.paymentEventsTotal.Inc(ctx,
		AttrGatewayCode.String(gatewayCode),
		AttrEventType.String(eventType),
	)
}

// RecordDuplicateAbsorbed records a duplicate gateway delivery that was
// absorbed without a second ledger write.
func (bm *BusinessMetrics) RecordDuplicateAbsorbed(ctx context.Context, gatewayCode string) {
	if bm == nil {
		return
	}
	bm.duplicatesAbsorbedTotal.Inc(ctx, AttrGatewayCode.String(gatewayCode))
}

// RecordQuotesExpired records quotes auto-expired by one sweep pass.
func (bm *BusinessMetrics) RecordQuotesExpired(ctx context.Context, count int64) {
	if bm == nil {
		return
	}
	bm.quotesExpiredTotal.Add(ctx, count)
}

// RecordQuoteCreated records a quote creation.
func (bm *BusinessMetrics) RecordQuoteCreated(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.quotesCreatedTotal.Inc(ctx)
}

// RecordDriftDetected records a quote flagged by reconciliation.
func (bm *BusinessMetrics) RecordDriftDetected(ctx context.Context) {
	if bm == nil {
		return
	}
	bm.driftDetectedTotal.Inc(ctx)
}

// RecordOverpayment records a quote entering the overpaid state.
func (bm *BusinessMetrics) RecordOverpayment(ctx context.Context, gatewayCode string) {
	if bm == nil {
		return
	}
	bm.overpaymentsTotal.Inc(ctx, AttrGatewayCode.String(gatewayCode))
}

// RecordQuoteTotal records a calculated grand total.
func (bm *BusinessMetrics) RecordQuoteTotal(ctx context.Context, total float64, currency string) {
	if bm == nil {
		return
	}
	bm.quoteTotals.Record(ctx, total, AttrCurrency.String(currency))
}
