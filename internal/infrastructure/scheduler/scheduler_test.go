package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finstack/backend/internal/application/invoicing"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

// ---------------------------------------------------------------------------
// Job Tests
// ---------------------------------------------------------------------------

func TestNewJob(t *testing.T) {
	tenantID := uuid.New()
	templateID := uuid.New()
	dueAt := time.Now()

	job := NewJob(tenantID, templateID, dueAt, 3)

	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, tenantID, job.TenantID)
	assert.Equal(t, templateID, job.TemplateID)
	assert.Equal(t, dueAt, job.DueAt)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 0, job.RetryCount)
	assert.Equal(t, 3, job.MaxRetries)
}

func TestJob_Start(t *testing.T) {
	job := NewJob(uuid.New(), uuid.New(), time.Now(), 3)

	job.Start()

	assert.Equal(t, JobStatusRunning, job.Status)
	require.NotNil(t, job.StartedAt)
	assert.Empty(t, job.Error)
}

func TestJob_Complete(t *testing.T) {
	job := NewJob(uuid.New(), uuid.New(), time.Now(), 3)
	job.Start()

	job.Complete()

	assert.Equal(t, JobStatusSuccess, job.Status)
	require.NotNil(t, job.CompletedAt)
}

func TestJob_Fail(t *testing.T) {
	job := NewJob(uuid.New(), uuid.New(), time.Now(), 3)
	job.Start()

	job.Fail("template locked")

	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "template locked", job.Error)
	require.NotNil(t, job.CompletedAt)
}

func TestJob_ShouldRetry(t *testing.T) {
	job := NewJob(uuid.New(), uuid.New(), time.Now(), 2)

	// Pending jobs do not retry
	assert.False(t, job.ShouldRetry())

	job.Fail("boom")
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Millisecond)
	job.Fail("boom")
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Millisecond)
	job.Fail("boom")
	assert.False(t, job.ShouldRetry())
}

func TestJob_ScheduleRetry(t *testing.T) {
	job := NewJob(uuid.New(), uuid.New(), time.Now(), 3)
	job.Fail("boom")

	job.ScheduleRetry(time.Minute)

	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	require.NotNil(t, job.NextRetryAt)
	assert.True(t, job.NextRetryAt.After(time.Now()))
	assert.Empty(t, job.Error)
}

// ---------------------------------------------------------------------------
// Scheduler Tests
// ---------------------------------------------------------------------------

type mockExecutor struct {
	executeFunc func(ctx context.Context, job *Job) error
	execCount   int32
}

func (m *mockExecutor) Execute(ctx context.Context, job *Job) error {
	atomic.AddInt32(&m.execCount, 1)
	if m.executeFunc != nil {
		return m.executeFunc(ctx, job)
	}
	return nil
}

func TestNewScheduler(t *testing.T) {
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), &mockExecutor{}, newTestLogger())

	require.NoError(t, err)
	assert.NotNil(t, scheduler)
}

func TestNewScheduler_InvalidConfig(t *testing.T) {
	config := SchedulerConfig{MaxConcurrentJobs: 0}

	scheduler, err := NewScheduler(config, &mockExecutor{}, newTestLogger())

	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Nil(t, scheduler)
}

func TestScheduler_StartStop(t *testing.T) {
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), &mockExecutor{}, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, scheduler.Start(ctx))
	// Start again should be idempotent
	require.NoError(t, scheduler.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))
	// Stop again should be idempotent
	require.NoError(t, scheduler.Stop(stopCtx))
}

func TestScheduler_SubmitJob_NotRunning(t *testing.T) {
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), &mockExecutor{}, newTestLogger())
	require.NoError(t, err)

	job := NewJob(uuid.New(), uuid.New(), time.Now(), 3)
	err = scheduler.SubmitJob(job)

	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_SubmitJob_Success(t *testing.T) {
	executor := &mockExecutor{}
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), executor, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))

	job := NewJob(uuid.New(), uuid.New(), time.Now(), 3)
	require.NoError(t, scheduler.SubmitJob(job))

	// Wait for job to be processed
	time.Sleep(100 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))

	assert.Equal(t, int32(1), atomic.LoadInt32(&executor.execCount))
}

func TestScheduler_JobRetry(t *testing.T) {
	config := DefaultSchedulerConfig()
	config.RetryDelay = 10 * time.Millisecond
	config.JobTimeout = time.Minute

	callCount := int32(0)
	executor := &mockExecutor{
		executeFunc: func(ctx context.Context, job *Job) error {
			if atomic.AddInt32(&callCount, 1) < 3 {
				return errors.New("temporary failure")
			}
			return nil
		},
	}

	scheduler, err := NewScheduler(config, executor, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))

	job := NewJob(uuid.New(), uuid.New(), time.Now(), 5)
	require.NoError(t, scheduler.SubmitJob(job))

	// Wait for retries
	time.Sleep(500 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))

	assert.GreaterOrEqual(t, atomic.LoadInt32(&callCount), int32(3))
}

func TestScheduler_ScheduleGeneration(t *testing.T) {
	executor := &mockExecutor{}
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), executor, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))

	require.NoError(t, scheduler.ScheduleGeneration(uuid.New(), uuid.New(), time.Now()))

	time.Sleep(100 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))

	assert.Equal(t, int32(1), atomic.LoadInt32(&executor.execCount))
}

// ---------------------------------------------------------------------------
// ScanTrigger Tests
// ---------------------------------------------------------------------------

type mockTemplateService struct {
	mu         sync.Mutex
	due        map[uuid.UUID][]invoicing.RecurringInvoiceResponse
	listErr    error
	clearCalls []uuid.UUID
	clearErr   error
}

func (m *mockTemplateService) ListDue(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]invoicing.RecurringInvoiceResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.due[tenantID], nil
}

func (m *mockTemplateService) ClearNextGeneration(ctx context.Context, tenantID, templateID uuid.UUID) (*invoicing.RecurringInvoiceResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clearErr != nil {
		return nil, m.clearErr
	}
	m.clearCalls = append(m.clearCalls, templateID)
	return &invoicing.RecurringInvoiceResponse{ID: templateID}, nil
}

func (m *mockTemplateService) clearedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clearCalls)
}

type mockTenantProvider struct {
	tenantIDs []uuid.UUID
	err       error
}

func (m *mockTenantProvider) GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.tenantIDs, nil
}

func dueTemplate(at time.Time) invoicing.RecurringInvoiceResponse {
	return invoicing.RecurringInvoiceResponse{
		ID:             uuid.New(),
		NextGeneration: &at,
	}
}

func TestNewScanTrigger_InvalidConfig(t *testing.T) {
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), &mockExecutor{}, newTestLogger())
	require.NoError(t, err)

	cases := []ScanTriggerConfig{
		{ScanInterval: 0, BatchSize: 10},
		{ScanInterval: time.Minute, BatchSize: 0},
	}
	for _, cfg := range cases {
		trigger, err := NewScanTrigger(cfg, scheduler, &mockTemplateService{}, &mockTenantProvider{}, newTestLogger())
		assert.ErrorIs(t, err, ErrInvalidConfig)
		assert.Nil(t, trigger)
	}
}

func TestScanTrigger_StartStop(t *testing.T) {
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), &mockExecutor{}, newTestLogger())
	require.NoError(t, err)

	trigger, err := NewScanTrigger(DefaultScanTriggerConfig(), scheduler, &mockTemplateService{}, &mockTenantProvider{}, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()

	require.NoError(t, trigger.Start(ctx))
	// Start again should be idempotent
	require.NoError(t, trigger.Start(ctx))

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, trigger.Stop(stopCtx))
	require.NoError(t, trigger.Stop(stopCtx))
}

func TestScanTrigger_ScanSubmitsDueTemplates(t *testing.T) {
	tenantA := uuid.New()
	tenantB := uuid.New()
	now := time.Now().UTC()

	service := &mockTemplateService{
		due: map[uuid.UUID][]invoicing.RecurringInvoiceResponse{
			tenantA: {dueTemplate(now.Add(-time.Hour)), dueTemplate(now.Add(-time.Minute))},
			tenantB: {dueTemplate(now.Add(-24 * time.Hour))},
		},
	}
	provider := &mockTenantProvider{tenantIDs: []uuid.UUID{tenantA, tenantB}}

	executor := NewGenerationExecutor(service, newTestLogger())
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), executor, newTestLogger())
	require.NoError(t, err)

	trigger, err := NewScanTrigger(DefaultScanTriggerConfig(), scheduler, service, provider, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))

	trigger.scanOnce(ctx, now)

	// Wait for workers to drain the queue
	time.Sleep(200 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))

	assert.Equal(t, 3, service.clearedCount())
}

func TestScanTrigger_BatchSizeCapsScan(t *testing.T) {
	tenantID := uuid.New()
	now := time.Now().UTC()

	due := make([]invoicing.RecurringInvoiceResponse, 5)
	for i := range due {
		due[i] = dueTemplate(now.Add(-time.Hour))
	}
	service := &mockTemplateService{
		due: map[uuid.UUID][]invoicing.RecurringInvoiceResponse{tenantID: due},
	}
	provider := &mockTenantProvider{tenantIDs: []uuid.UUID{tenantID}}

	executor := NewGenerationExecutor(service, newTestLogger())
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), executor, newTestLogger())
	require.NoError(t, err)

	config := ScanTriggerConfig{ScanInterval: time.Minute, BatchSize: 2}
	trigger, err := NewScanTrigger(config, scheduler, service, provider, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))

	trigger.scanOnce(ctx, now)

	time.Sleep(200 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))

	assert.Equal(t, 2, service.clearedCount())
}

func TestScanTrigger_TriggerManualScan_SingleTenant(t *testing.T) {
	tenantID := uuid.New()
	now := time.Now().UTC()

	service := &mockTemplateService{
		due: map[uuid.UUID][]invoicing.RecurringInvoiceResponse{
			tenantID: {dueTemplate(now.Add(-time.Hour))},
		},
	}

	executor := NewGenerationExecutor(service, newTestLogger())
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), executor, newTestLogger())
	require.NoError(t, err)

	trigger, err := NewScanTrigger(DefaultScanTriggerConfig(), scheduler, service, &mockTenantProvider{}, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))

	require.NoError(t, trigger.TriggerManualScan(ctx, &tenantID))

	time.Sleep(200 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))

	assert.Equal(t, 1, service.clearedCount())
}

func TestScanTrigger_TenantProviderError(t *testing.T) {
	scheduler, err := NewScheduler(DefaultSchedulerConfig(), &mockExecutor{}, newTestLogger())
	require.NoError(t, err)

	provider := &mockTenantProvider{err: errors.New("db down")}
	trigger, err := NewScanTrigger(DefaultScanTriggerConfig(), scheduler, &mockTemplateService{}, provider, newTestLogger())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, scheduler.Start(ctx))

	// Must not panic or submit anything
	trigger.scanOnce(ctx, time.Now().UTC())

	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	require.NoError(t, scheduler.Stop(stopCtx))
}

// ---------------------------------------------------------------------------
// GenerationExecutor Tests
// ---------------------------------------------------------------------------

func TestGenerationExecutor_Execute(t *testing.T) {
	service := &mockTemplateService{}
	executor := NewGenerationExecutor(service, newTestLogger())

	job := NewJob(uuid.New(), uuid.New(), time.Now(), 3)
	err := executor.Execute(context.Background(), job)

	require.NoError(t, err)
	assert.Equal(t, 1, service.clearedCount())
	assert.Equal(t, job.TemplateID, service.clearCalls[0])
}

func TestGenerationExecutor_Execute_ServiceError(t *testing.T) {
	service := &mockTemplateService{clearErr: errors.New("optimistic lock conflict")}
	executor := NewGenerationExecutor(service, newTestLogger())

	job := NewJob(uuid.New(), uuid.New(), time.Now(), 3)
	err := executor.Execute(context.Background(), job)

	assert.Error(t, err)
	assert.Equal(t, 0, service.clearedCount())
}
