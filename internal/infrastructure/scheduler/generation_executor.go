package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finstack/backend/internal/application/invoicing"
)

// TemplateService is the slice of the recurring invoice application
// service the scheduler depends on. The full service satisfies it.
type TemplateService interface {
	// ListDue returns active templates due for generation at the given time
	ListDue(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]invoicing.RecurringInvoiceResponse, error)

	// ClearNextGeneration records that the due date was handled and
	// advances the template to its next projected generation date
	ClearNextGeneration(ctx context.Context, tenantID, templateID uuid.UUID) (*invoicing.RecurringInvoiceResponse, error)
}

// GenerationExecutor advances due recurring templates. The invoice
// documents themselves are produced by the downstream billing batch;
// this executor only moves the generation cursor forward.
type GenerationExecutor struct {
	service TemplateService
	logger  *zap.Logger
}

// NewGenerationExecutor creates a new generation executor
func NewGenerationExecutor(service TemplateService, logger *zap.Logger) *GenerationExecutor {
	return &GenerationExecutor{
		service: service,
		logger:  logger,
	}
}

// Execute advances a single due template
func (e *GenerationExecutor) Execute(ctx context.Context, job *Job) error {
	resp, err := e.service.ClearNextGeneration(ctx, job.TenantID, job.TemplateID)
	if err != nil {
		return err
	}

	next := "none"
	if resp.NextGeneration != nil {
		next = resp.NextGeneration.Format(time.RFC3339)
	}
	e.logger.Debug("Template generation cursor advanced",
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("template_id", job.TemplateID.String()),
		zap.String("next_generation", next),
	)
	return nil
}
