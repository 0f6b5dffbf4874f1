package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantProvider provides the tenants with schedulable templates
type TenantProvider interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// ScanTriggerConfig holds configuration for the due-template scan trigger
type ScanTriggerConfig struct {
	// ScanInterval is how often to scan for due templates
	ScanInterval time.Duration

	// BatchSize caps how many templates one scan may submit
	BatchSize int
}

// DefaultScanTriggerConfig returns default scan trigger configuration
func DefaultScanTriggerConfig() ScanTriggerConfig {
	return ScanTriggerConfig{
		ScanInterval: time.Minute,
		BatchSize:    50,
	}
}

// ScanTrigger periodically scans every tenant for recurring templates
// whose generation date has come due and submits a generation job for
// each one. A full queue stops the scan early; the next scan picks the
// remaining templates up because their due date is unchanged.
type ScanTrigger struct {
	config         ScanTriggerConfig
	scheduler      *Scheduler
	service        TemplateService
	tenantProvider TenantProvider
	logger         *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScanTrigger creates a new scan trigger
func NewScanTrigger(
	config ScanTriggerConfig,
	scheduler *Scheduler,
	service TemplateService,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) (*ScanTrigger, error) {
	if config.ScanInterval <= 0 || config.BatchSize <= 0 {
		return nil, ErrInvalidConfig
	}
	return &ScanTrigger{
		config:         config,
		scheduler:      scheduler,
		service:        service,
		tenantProvider: tenantProvider,
		logger:         logger,
	}, nil
}

// Start starts the scan trigger
func (t *ScanTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Template scan trigger started",
		zap.Duration("scan_interval", t.config.ScanInterval),
		zap.Int("batch_size", t.config.BatchSize),
	)

	return nil
}

// Stop stops the scan trigger
func (t *ScanTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Template scan trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop scans for due templates on every tick
func (t *ScanTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.scanOnce(ctx, time.Now().UTC())
		}
	}
}

// scanOnce submits generation jobs for every due template, up to the
// configured batch size
func (t *ScanTrigger) scanOnce(ctx context.Context, now time.Time) {
	tenantIDs, err := t.tenantProvider.GetAllActiveTenantIDs(ctx)
	if err != nil {
		t.logger.Error("Failed to list tenants for template scan", zap.Error(err))
		return
	}

	submitted := 0
	for _, tenantID := range tenantIDs {
		if submitted >= t.config.BatchSize {
			break
		}

		due, err := t.service.ListDue(ctx, tenantID, now)
		if err != nil {
			t.logger.Error("Failed to list due templates",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}

		for _, template := range due {
			if submitted >= t.config.BatchSize {
				break
			}
			dueAt := now
			if template.NextGeneration != nil {
				dueAt = *template.NextGeneration
			}
			if err := t.scheduler.ScheduleGeneration(tenantID, template.ID, dueAt); err != nil {
				t.logger.Warn("Failed to schedule template generation",
					zap.String("tenant_id", tenantID.String()),
					zap.String("template_id", template.ID.String()),
					zap.Error(err),
				)
				if err == ErrJobQueueFull {
					return
				}
				continue
			}
			submitted++
		}
	}

	if submitted > 0 {
		t.logger.Info("Scheduled due template generations",
			zap.Int("count", submitted),
			zap.Int("tenant_count", len(tenantIDs)),
		)
	}
}

// TriggerManualScan runs one scan outside the ticker. A nil tenant ID
// scans every tenant.
func (t *ScanTrigger) TriggerManualScan(ctx context.Context, tenantID *uuid.UUID) error {
	now := time.Now().UTC()

	if tenantID == nil {
		t.scanOnce(ctx, now)
		return nil
	}

	due, err := t.service.ListDue(ctx, *tenantID, now)
	if err != nil {
		return err
	}
	for _, template := range due {
		dueAt := now
		if template.NextGeneration != nil {
			dueAt = *template.NextGeneration
		}
		if err := t.scheduler.ScheduleGeneration(*tenantID, template.ID, dueAt); err != nil {
			return err
		}
	}
	return nil
}
