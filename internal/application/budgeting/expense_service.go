package budgeting

import (
	"context"
	"fmt"

	"github.com/finstack/backend/internal/domain/budgeting"
	"github.com/finstack/backend/internal/domain/shared"
	"github.com/finstack/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// ExpenseService is the mutation surface for expenses. Every change that
// can alter which budgets an expense counts toward — status, amount,
// category, date, deletion — re-rolls the affected budgets inside the same
// transaction as the expense write. A mutation that moves an expense
// between coordinates (category or date change) re-rolls both the old and
// the new side.
type ExpenseService struct {
	expenseRepo    budgeting.ExpenseRepository
	budgetRepo     budgeting.BudgetRepository
	txManager      shared.TransactionManager
	eventPublisher shared.EventPublisher
	metrics        *telemetry.BusinessMetrics
	recalc         budgetRecalculator
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(
	expenseRepo budgeting.ExpenseRepository,
	budgetRepo budgeting.BudgetRepository,
	txManager shared.TransactionManager,
) *ExpenseService {
	return &ExpenseService{
		expenseRepo: expenseRepo,
		budgetRepo:  budgetRepo,
		txManager:   txManager,
		recalc:      budgetRecalculator{budgetRepo: budgetRepo, expenseRepo: expenseRepo},
	}
}

// SetEventPublisher sets the event publisher for cross-context integration
func (s *ExpenseService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetMetrics sets the business metrics recorder
func (s *ExpenseService) SetMetrics(metrics *telemetry.BusinessMetrics) {
	s.metrics = metrics
}

// Create creates a new draft expense. Drafts never count toward budgets,
// so no re-roll happens here.
func (s *ExpenseService) Create(ctx context.Context, tenantID uuid.UUID, req CreateExpenseRequest) (*ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ExpenseService", "Create",
		telemetry.WithAttribute(telemetry.SpanAttrExpenseCategory, string(req.Category)),
	)
	defer span.End()

	var expense *budgeting.Expense
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		expenseNumber, err := s.expenseRepo.GenerateExpenseNumber(txCtx, tenantID)
		if err != nil {
			return fmt.Errorf("failed to generate expense number: %w", err)
		}

		expense, err = budgeting.NewExpense(tenantID, expenseNumber, req.Category, req.Amount, req.TaxAmount, req.ExpenseDate, req.Description)
		if err != nil {
			return err
		}
		if req.VendorName != "" {
			expense.WithVendorName(req.VendorName)
		}
		return s.expenseRepo.Save(txCtx, expense)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, &expense.TenantAggregateRoot)
	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// Get returns an expense
func (s *ExpenseService) Get(ctx context.Context, tenantID, expenseID uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByIDForTenant(ctx, tenantID, expenseID)
	if err != nil {
		return nil, err
	}
	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// List returns a paginated list of expenses
func (s *ExpenseService) List(ctx context.Context, tenantID uuid.UUID, filter budgeting.ExpenseFilter) (*shared.Paginated[ExpenseResponse], error) {
	expenses, err := s.expenseRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	total, err := s.expenseRepo.CountForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		responses = append(responses, ToExpenseResponse(&expenses[i]))
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

// Update changes an expense's amounts, category or date. If the expense
// currently counts toward budgets, both the old and the new coordinate's
// budgets are re-rolled in the same transaction, so a category or date
// move decrements one budget and increments the other atomically.
func (s *ExpenseService) Update(ctx context.Context, tenantID, expenseID uuid.UUID, req UpdateExpenseRequest) (*ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ExpenseService", "Update",
		telemetry.WithAttribute(telemetry.SpanAttrExpenseID, expenseID.String()),
	)
	defer span.End()

	var expense *budgeting.Expense
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		expense, err = s.expenseRepo.FindByIDForTenant(txCtx, tenantID, expenseID)
		if err != nil {
			return err
		}

		oldCoord := coordinate{category: expense.Category, date: expense.ExpenseDate}
		counted := expense.Status.CountsTowardBudget()

		if err := expense.Update(req.Category, req.Amount, req.TaxAmount, req.ExpenseDate, req.Description); err != nil {
			return err
		}
		if err := s.expenseRepo.SaveWithLock(txCtx, expense); err != nil {
			return err
		}

		if counted {
			newCoord := coordinate{category: expense.Category, date: expense.ExpenseDate}
			return s.recalc.rerollCoordinates(txCtx, tenantID, oldCoord, newCoord)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// Submit moves a draft expense to pending. Pending expenses do not count
// toward budgets, so no re-roll happens.
func (s *ExpenseService) Submit(ctx context.Context, tenantID, expenseID uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByIDForTenant(ctx, tenantID, expenseID)
	if err != nil {
		return nil, err
	}
	if err := expense.Submit(); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.SaveWithLock(ctx, expense); err != nil {
		return nil, err
	}

	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// Approve approves a pending expense. Approval is the moment the expense
// starts counting toward budgets, so the matching budgets are re-rolled in
// the same transaction.
func (s *ExpenseService) Approve(ctx context.Context, tenantID, expenseID uuid.UUID, req ApproveExpenseRequest) (*ExpenseResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ExpenseService", "Approve",
		telemetry.WithAttribute(telemetry.SpanAttrExpenseID, expenseID.String()),
	)
	defer span.End()

	expense, err := s.statusChange(ctx, tenantID, expenseID, func(e *budgeting.Expense) error {
		return e.Approve(req.ApproverID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publishEvents(ctx, &expense.TenantAggregateRoot)
	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// Reject rejects a pending expense. A rejected expense stops counting (it
// never counted while pending), so no re-roll is needed; the transition is
// still persisted atomically.
func (s *ExpenseService) Reject(ctx context.Context, tenantID, expenseID uuid.UUID, req RejectExpenseRequest) (*ExpenseResponse, error) {
	expense, err := s.expenseRepo.FindByIDForTenant(ctx, tenantID, expenseID)
	if err != nil {
		return nil, err
	}
	if err := expense.Reject(req.Reason); err != nil {
		return nil, err
	}
	if err := s.expenseRepo.SaveWithLock(ctx, expense); err != nil {
		return nil, err
	}

	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// MarkPaid marks an approved expense as paid. Approved and paid both
// count toward budgets, so the derived values do not move and no re-roll
// is triggered.
func (s *ExpenseService) MarkPaid(ctx context.Context, tenantID, expenseID uuid.UUID) (*ExpenseResponse, error) {
	expense, err := s.statusChange(ctx, tenantID, expenseID, func(e *budgeting.Expense) error {
		return e.MarkPaid()
	})
	if err != nil {
		return nil, err
	}

	resp := ToExpenseResponse(expense)
	return &resp, nil
}

// Delete removes an expense. If it counted toward budgets, they are
// re-rolled without it in the same transaction.
func (s *ExpenseService) Delete(ctx context.Context, tenantID, expenseID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "ExpenseService", "Delete",
		telemetry.WithAttribute(telemetry.SpanAttrExpenseID, expenseID.String()),
	)
	defer span.End()

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		expense, err := s.expenseRepo.FindByIDForTenant(txCtx, tenantID, expenseID)
		if err != nil {
			return err
		}

		counted := expense.Status.CountsTowardBudget()
		coord := coordinate{category: expense.Category, date: expense.ExpenseDate}

		if err := s.expenseRepo.DeleteForTenant(txCtx, tenantID, expenseID); err != nil {
			return err
		}
		if counted {
			return s.recalc.rerollCoordinates(txCtx, tenantID, coord)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// statusChange applies a status transition and re-rolls the expense's
// budget coordinate in one transaction, whenever the transition can change
// whether the expense counts.
func (s *ExpenseService) statusChange(
	ctx context.Context,
	tenantID, expenseID uuid.UUID,
	transition func(e *budgeting.Expense) error,
) (*budgeting.Expense, error) {
	var expense *budgeting.Expense
	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		var err error
		expense, err = s.expenseRepo.FindByIDForTenant(txCtx, tenantID, expenseID)
		if err != nil {
			return err
		}

		countedBefore := expense.Status.CountsTowardBudget()
		if err := transition(expense); err != nil {
			return err
		}
		if err := s.expenseRepo.SaveWithLock(txCtx, expense); err != nil {
			return err
		}

		if countedBefore != expense.Status.CountsTowardBudget() {
			if s.metrics != nil {
				s.metrics.RecordBudgetReroll(txCtx, tenantID, expense.Category.String())
			}
			return s.recalc.rerollCoordinates(txCtx, tenantID,
				coordinate{category: expense.Category, date: expense.ExpenseDate})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *ExpenseService) publishEvents(ctx context.Context, root *shared.TenantAggregateRoot) {
	if s.eventPublisher == nil {
		return
	}
	for _, event := range root.GetDomainEvents() {
		_ = s.eventPublisher.Publish(ctx, event)
	}
	root.ClearDomainEvents()
}
