package budgeting

import (
	"context"

	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/finstack/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// BudgetService manages budgets and their category lines. Item mutations
// re-roll the owning budget in the same transaction: a freshly-added
// category line immediately reflects the approved expenses already inside
// the window.
type BudgetService struct {
	budgetRepo     budgeting.BudgetRepository
	expenseRepo    budgeting.ExpenseRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
	recalc         budgetRecalculator
}

// NewBudgetService creates a new BudgetService
func NewBudgetService(
	budgetRepo budgeting.BudgetRepository,
	expenseRepo budgeting.ExpenseRepository,
	txManager shared.TransactionManager,
) *BudgetService {
	return &BudgetService{
		budgetRepo:  budgetRepo,
		expenseRepo: expenseRepo,
		txManager:   txManager,
		recalc:      budgetRecalculator{budgetRepo: budgetRepo, expenseRepo: expenseRepo},
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *BudgetService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *BudgetService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// Create creates a budget with its initial category lines and immediately
// rolls up the expenses already counting inside the window.
func (s *BudgetService) Create(ctx context.Context, tenantID uuid.UUID, req CreateBudgetRequest) (*BudgetResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "BudgetService", "Create")
	defer span.End()

	var budget *budgeting.Budget
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		budget, err = budgeting.NewBudget(tenantID, req.Name, req.TotalBudget, req.StartDate, req.EndDate)
		if err != nil {
			return err
		}
		if req.Notes != "" {
			budget.SetNotes(req.Notes)
		}
		if err := s.budgetRepo.Save(txCtx, budget); err != nil {
			return err
		}

		for _, in := range req.Items {
			item, err := budgeting.NewBudgetItem(budget.ID, in.Category, in.BudgetedAmount)
			if err != nil {
				return err
			}
			if err := s.budgetRepo.SaveItem(txCtx, item); err != nil {
				return err
			}
		}
		return s.recalc.recalcLocked(txCtx, budget)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, &budget.TenantAggregateRoot)
	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// Get returns a budget with its category lines
func (s *BudgetService) Get(ctx context.Context, tenantID, budgetID uuid.UUID) (*BudgetResponse, error) {
	budget, err := s.budgetRepo.FindByIDForTenant(ctx, tenantID, budgetID)
	if err != nil {
		return nil, err
	}
	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// List returns a paginated list of budgets
func (s *BudgetService) List(ctx context.Context, tenantID uuid.UUID, filter budgeting.BudgetFilter) (*shared.Paginated[BudgetResponse], error) {
	budgets, err := s.budgetRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.budgetRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]BudgetResponse, 0, len(budgets))
	for i := range budgets {
		responses = append(responses, ToBudgetResponse(&budgets[i]))
	}

	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	result := shared.NewPaginated(responses, total, page, pageSize)
	return &result, nil
}

// AddItem adds a category line and re-rolls the budget in one transaction
func (s *BudgetService) AddItem(ctx context.Context, tenantID, budgetID uuid.UUID, req AddBudgetItemRequest) (*BudgetResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "BudgetService", "AddItem",
		telemetry.WithAttribute(telemetry.SpanAttrBudgetID, budgetID.String()),
	)
	defer span.End()

	budget, err := s.mutateItems(ctx, tenantID, budgetID, func(txCtx context.Context, budget *budgeting.Budget) error {
		item, err := budgeting.NewBudgetItem(budget.ID, req.Category, req.BudgetedAmount)
		if err != nil {
			return err
		}
		return s.budgetRepo.SaveItem(txCtx, item)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// UpdateItem changes a category line's budgeted amount. The spent side is
// unaffected but the re-roll still runs, keeping the operation uniform
// and harmless by idempotence.
func (s *BudgetService) UpdateItem(ctx context.Context, tenantID, budgetID, itemID uuid.UUID, req UpdateBudgetItemRequest) (*BudgetResponse, error) {
	budget, err := s.mutateItems(ctx, tenantID, budgetID, func(txCtx context.Context, budget *budgeting.Budget) error {
		item, err := s.budgetRepo.FindItem(txCtx, budget.ID, itemID)
		if err != nil {
			return err
		}
		if err := item.SetBudgetedAmount(req.BudgetedAmount); err != nil {
			return err
		}
		return s.budgetRepo.SaveItem(txCtx, item)
	})
	if err != nil {
		return nil, err
	}

	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// RemoveItem deletes a category line and re-rolls the budget in one
// transaction.
func (s *BudgetService) RemoveItem(ctx context.Context, tenantID, budgetID, itemID uuid.UUID) (*BudgetResponse, error) {
	budget, err := s.mutateItems(ctx, tenantID, budgetID, func(txCtx context.Context, budget *budgeting.Budget) error {
		return s.budgetRepo.DeleteItem(txCtx, budget.ID, itemID)
	})
	if err != nil {
		return nil, err
	}

	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// Recalculate explicitly re-rolls a budget from the current expense set.
// Idempotent: a second run over unchanged expenses is a no-op.
func (s *BudgetService) Recalculate(ctx context.Context, tenantID, budgetID uuid.UUID) (*BudgetResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "BudgetService", "Recalculate",
		telemetry.WithAttribute(telemetry.SpanAttrBudgetID, budgetID.String()),
	)
	defer span.End()

	var budget *budgeting.Budget
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		budget, err = s.recalc.recalc(txCtx, tenantID, budgetID)
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	budget.AddDomainEvent(budgeting.NewBudgetRecalculatedEvent(budget))
	s.publishEvents(ctx, &budget.TenantAggregateRoot)

	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// Activate re-enables a budget so it matches expenses again
func (s *BudgetService) Activate(ctx context.Context, tenantID, budgetID uuid.UUID) (*BudgetResponse, error) {
	budget, err := s.budgetRepo.FindByIDForTenant(ctx, tenantID, budgetID)
	if err != nil {
		return nil, err
	}
	budget.Activate()
	if err := s.budgetRepo.SaveWithLock(ctx, budget); err != nil {
		return nil, err
	}
	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// Deactivate disables a budget; re-rolls skip inactive budgets
func (s *BudgetService) Deactivate(ctx context.Context, tenantID, budgetID uuid.UUID) (*BudgetResponse, error) {
	budget, err := s.budgetRepo.FindByIDForTenant(ctx, tenantID, budgetID)
	if err != nil {
		return nil, err
	}
	budget.Deactivate()
	if err := s.budgetRepo.SaveWithLock(ctx, budget); err != nil {
		return nil, err
	}
	resp := ToBudgetResponse(budget)
	return &resp, nil
}

// Delete removes a budget and its category lines
func (s *BudgetService) Delete(ctx context.Context, tenantID, budgetID uuid.UUID) error {
	if _, err := s.budgetRepo.FindByIDForTenant(ctx, tenantID, budgetID); err != nil {
		return err
	}
	return s.budgetRepo.DeleteForTenant(ctx, tenantID, budgetID)
}

// mutateItems runs an item mutation followed by a full budget re-roll as
// one transaction, with the budget row locked first.
func (s *BudgetService) mutateItems(
	ctx context.Context,
	tenantID, budgetID uuid.UUID,
	mutate func(txCtx context.Context, budget *budgeting.Budget) error,
) (*budgeting.Budget, error) {
	var budget *budgeting.Budget
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		budget, err = s.budgetRepo.FindByIDForUpdate(txCtx, tenantID, budgetID)
		if err != nil {
			return err
		}
		if err := mutate(txCtx, budget); err != nil {
			return err
		}
		if s.metrics != nil {
			s.metrics.RecordBudgetReroll(txCtx, tenantID, "")
		}
		return s.recalc.recalcLocked(txCtx, budget)
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (s *BudgetService) publishEvents(ctx context.Context, root *shared.TenantAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range root.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	root.ClearDomainEvents()
}
