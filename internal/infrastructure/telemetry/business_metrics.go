package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the financial engine.
// It tracks invoice recalculations, payment activity, budget re-rolls,
// and recurring invoice projection health.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	invoiceRecalculatedTotal *Counter
	paymentRecordedTotal     *Counter
	paymentAmountTotal       *Counter
	budgetRerolledTotal      *Counter
	recurringProjectedTotal  *Counter

	// Histogram metrics
	recalcDuration *Histogram

	// Gauge metrics (point-in-time values)
	recurringDueTemplates *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	recurringProvider RecurringMetricsProvider
}

// RecurringMetricsProvider provides recurring invoice data for periodic
// metrics collection. This interface allows the telemetry layer to query
// template state without depending on the invoicing domain directly.
type RecurringMetricsProvider interface {
	// CountDue returns the number of active templates whose next generation
	// date is at or before the given time, across all tenants.
	CountDue(ctx context.Context, now time.Time) (int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	CollectInterval   time.Duration // Default: 5 minutes
	RecurringProvider RecurringMetricsProvider
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
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		recurringProvider: cfg.RecurringProvider,
	}

	var err error

	bm.invoiceRecalculatedTotal, err = NewCounter(
		cfg.Meter,
		"finstack_invoice_recalculated_total",
		"Total number of invoice derived-field recalculations",
		"{recalculations}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentRecordedTotal, err = NewCounter(
		cfg.Meter,
		"finstack_payment_recorded_total",
		"Total number of payments recorded against invoices",
		"{payments}",
	)
	if err != nil {
		return nil, err
	}

	bm.paymentAmountTotal, err = NewCounter(
		cfg.Meter,
		"finstack_payment_amount_total",
		"Total payment amount in cents",
		"{cents}",
	)
	if err != nil {
		return nil, err
	}

	bm.budgetRerolledTotal, err = NewCounter(
		cfg.Meter,
		"finstack_budget_rerolled_total",
		"Total number of budget spent-amount re-rolls",
		"{rerolls}",
	)
	if err != nil {
		return nil, err
	}

	bm.recurringProjectedTotal, err = NewCounter(
		cfg.Meter,
		"finstack_recurring_projected_total",
		"Total number of recurring template next-generation projections",
		"{projections}",
	)
	if err != nil {
		return nil, err
	}

	bm.recalcDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "finstack_recalculation_duration_seconds",
		Description: "Duration of recalculation operations",
		Unit:        "s",
		Boundaries:  []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
	if err != nil {
		return nil, err
	}

	bm.recurringDueTemplates, err = NewGauge(
		cfg.Meter,
		"finstack_recurring_due_templates",
		"Number of active recurring templates currently due for generation",
		"{templates}",
	)
	if err != nil {
		return nil, err
	}

	// Start the periodic collector if a provider is configured
	if cfg.RecurringProvider != nil {
		interval := cfg.CollectInterval
		if interval == 0 {
			interval = 5 * time.Minute
		}
		bm.startCollector(interval)
	}

	return bm, nil
}

// RecordInvoiceRecalculated increments the invoice recalculation counter.
func (bm *BusinessMetrics) RecordInvoiceRecalculated(ctx context.Context, tenantID uuid.UUID, status string) {
	bm.invoiceRecalculatedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrInvoiceStatus.String(status),
	)
}

// RecordPaymentRecorded tracks a payment applied to an invoice. The amount
// is recorded in cents to keep the counter integral.
func (bm *BusinessMetrics) RecordPaymentRecorded(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	bm.paymentRecordedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrPaymentMethod.String(method),
	)
	bm.paymentAmountTotal.Add(ctx,
		amount.Mul(decimal.NewFromInt(100)).IntPart(),
		AttrTenantID.String(tenantID.String()),
	)
}

// RecordBudgetReroll increments the budget re-roll counter.
func (bm *BusinessMetrics) RecordBudgetReroll(ctx context.Context, tenantID uuid.UUID, category string) {
	bm.budgetRerolledTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrExpenseCategory.String(category),
	)
}

// RecordRecurringProjection increments the projection counter.
func (bm *BusinessMetrics) RecordRecurringProjection(ctx context.Context, tenantID uuid.UUID, frequency string) {
	bm.recurringProjectedTotal.Inc(ctx,
		AttrTenantID.String(tenantID.String()),
		AttrFrequency.String(frequency),
	)
}

// RecordRecalcDuration records the duration of a recalculation operation.
func (bm *BusinessMetrics) RecordRecalcDuration(ctx context.Context, operation string, d time.Duration) {
	bm.recalcDuration.RecordDuration(ctx, d, AttrOperation.String(operation))
}

// startCollector starts the periodic gauge collection goroutine.
func (bm *BusinessMetrics) startCollector(interval time.Duration) {
	bm.collectOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					bm.collect()
				case <-bm.stopChan:
					return
				}
			}
		}()
	})
}

// collect queries the provider and records gauge values.
func (bm *BusinessMetrics) collect() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	due, err := bm.recurringProvider.CountDue(ctx, time.Now().UTC())
	if err != nil {
		bm.logger.Warn("Failed to collect recurring template metrics", zap.Error(err))
		return
	}

	bm.recurringDueTemplates.Record(ctx, due)
}

// Stop stops the periodic collector. Safe to call multiple times.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// MetricsError represents an error in metrics setup.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return fmt.Sprintf("telemetry: %s: %s", e.Op, e.Err)
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}
