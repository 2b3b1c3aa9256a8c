package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/notify"
)

// warnThreshold is the fraction of a budget limit past which a warning
// alert fires before the limit itself is hit.
var warnThreshold = decimal.NewFromFloat(0.8)

// enforcementStore is the slice of persistence the budget check needs. The
// settlement path passes a transaction-bound Store so the check and the
// subsequent insert observe the same snapshot.
type enforcementStore interface {
	BudgetsFor(ctx context.Context, userID uuid.UUID, category core.Category) ([]core.Budget, error)
	SumInitialInWindow(ctx context.Context, userID uuid.UUID, category core.Category, start, end time.Time) (decimal.Decimal, error)
}

// BudgetService manages budgets and enforces their limits during settlement.
type BudgetService struct {
	store    Store
	notifier notify.Notifier
	now      func() time.Time
}

func NewBudgetService(store Store, notifier notify.Notifier) *BudgetService {
	return &BudgetService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Create registers a budget. The (user, period, category) triple is unique;
// a duplicate is a bad request, not a storage fault.
func (s *BudgetService) Create(ctx context.Context, userID uuid.UUID, category core.Category, period core.BudgetPeriod, limit decimal.Decimal) (core.Budget, error) {
	if !limit.IsPositive() {
		return core.Budget{}, fmt.Errorf("%w: budget limit must be positive", core.ErrBadData)
	}
	exists, err := s.store.BudgetExists(ctx, userID, period, category)
	if err != nil {
		return core.Budget{}, fmt.Errorf("check budget exists: %w", err)
	}
	if exists {
		return core.Budget{}, fmt.Errorf("%w: %s budget for category %s already exists", core.ErrBadData, period, category)
	}
	b := core.Budget{
		ID:          uuid.New(),
		UserID:      userID,
		Category:    category,
		Period:      period,
		LimitAmount: limit,
	}
	if err := s.store.InsertBudget(ctx, b); err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget created",
		"budget_id", b.ID, applog.FieldUserID, userID, applog.FieldCategory, category, applog.FieldPeriod, period)
	return b, nil
}

// Get returns one budget, enforcing ownership.
func (s *BudgetService) Get(ctx context.Context, userID, budgetID uuid.UUID) (core.Budget, error) {
	b, err := s.store.BudgetByID(ctx, budgetID)
	if err != nil {
		return core.Budget{}, err
	}
	if b.UserID != userID {
		return core.Budget{}, core.ErrNoRights
	}
	return b, nil
}

// List pages through a user's budgets.
func (s *BudgetService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]core.Budget, error) {
	return s.store.ListBudgets(ctx, userID, limit, offset)
}

// BudgetUpdate carries the optional fields of an update request. A request
// with no fields set is rejected.
type BudgetUpdate struct {
	Category    *core.Category
	Period      *core.BudgetPeriod
	LimitAmount *decimal.Decimal
}

func (u BudgetUpdate) empty() bool {
	return u.Category == nil && u.Period == nil && u.LimitAmount == nil
}

// Update patches a budget. Moving it onto another (period, category) slot
// that already holds a budget is rejected the same way Create rejects it.
func (s *BudgetService) Update(ctx context.Context, userID, budgetID uuid.UUID, upd BudgetUpdate) (core.Budget, error) {
	if upd.empty() {
		return core.Budget{}, core.ErrEmptyRequest
	}
	b, err := s.Get(ctx, userID, budgetID)
	if err != nil {
		return core.Budget{}, err
	}
	next := b
	if upd.Category != nil {
		next.Category = *upd.Category
	}
	if upd.Period != nil {
		next.Period = *upd.Period
	}
	if upd.LimitAmount != nil {
		if !upd.LimitAmount.IsPositive() {
			return core.Budget{}, fmt.Errorf("%w: budget limit must be positive", core.ErrBadData)
		}
		next.LimitAmount = *upd.LimitAmount
	}
	if next.Category != b.Category || next.Period != b.Period {
		exists, err := s.store.BudgetExists(ctx, userID, next.Period, next.Category)
		if err != nil {
			return core.Budget{}, fmt.Errorf("check budget exists: %w", err)
		}
		if exists {
			return core.Budget{}, fmt.Errorf("%w: %s budget for category %s already exists", core.ErrBadData, next.Period, next.Category)
		}
	}
	if err := s.store.UpdateBudget(ctx, next); err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	return next, nil
}

// Delete removes a budget, enforcing ownership.
func (s *BudgetService) Delete(ctx context.Context, userID, budgetID uuid.UUID) error {
	if _, err := s.Get(ctx, userID, budgetID); err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, budgetID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	slog.InfoContext(ctx, "Budget deleted", "budget_id", budgetID, applog.FieldUserID, userID)
	return nil
}

// CheckNotExceeded projects amount onto every budget covering (user,
// category) and rejects the settlement that would overshoot a limit.
// Consumption inside the period window plus amount strictly above the limit
// fails; at or above 80% of the limit but still within it warns. Hitting
// the limit exactly passes silently.
//
// store is the possibly transaction-bound view the caller settles against,
// so the projection and the eventual insert cannot interleave with a
// concurrent settlement.
func (s *BudgetService) CheckNotExceeded(ctx context.Context, store enforcementStore, userID uuid.UUID, category core.Category, amount decimal.Decimal) error {
	budgets, err := store.BudgetsFor(ctx, userID, category)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}
	now := s.now()
	for _, b := range budgets {
		start, end, err := core.PeriodWindow(b.Period, now)
		if err != nil {
			return err
		}
		consumed, err := store.SumInitialInWindow(ctx, userID, category, start, end)
		if err != nil {
			return fmt.Errorf("sum %s consumption: %w", b.Period, err)
		}
		projected := consumed.Add(amount)
		remaining := b.LimitAmount.Sub(consumed)
		switch {
		case projected.GreaterThan(b.LimitAmount):
			s.alert(ctx, userID, notify.BudgetAlert{
				Message: fmt.Sprintf("Budget limit for category %s exceeded, new transactions are blocked",
					b.Category),
				RemainingAmount: decimal.Zero,
				Category:        string(b.Category),
			})
			return &core.BudgetLimitExceededError{
				Period:    b.Period,
				Category:  b.Category,
				Remaining: remaining,
			}
		case projected.GreaterThanOrEqual(b.LimitAmount.Mul(warnThreshold)) && projected.LessThan(b.LimitAmount):
			s.alert(ctx, userID, notify.BudgetAlert{
				Message: fmt.Sprintf("More than 80%% of the %s budget for category %s is spent",
					b.Period, b.Category),
				RemainingAmount: remaining,
				Category:        string(b.Category),
			})
		}
	}
	return nil
}

// alert publishes a budget notification. Delivery failures are logged and
// swallowed so an unreachable broker never blocks a settlement decision.
func (s *BudgetService) alert(ctx context.Context, userID uuid.UUID, payload notify.BudgetAlert) {
	if err := s.notifier.Publish(ctx, notify.BudgetTopic(userID), payload); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert",
			applog.FieldUserID, userID, "error", err)
	}
}
