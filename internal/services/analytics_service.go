package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

var oneHundred = decimal.NewFromInt(100)

// AnalyticsService aggregates settled transactions into period totals,
// category shares and period-over-period comparisons. All sums are in the
// user's base currency.
type AnalyticsService struct {
	transactions *TransactionService
}

func NewAnalyticsService(transactions *TransactionService) *AnalyticsService {
	return &AnalyticsService{transactions: transactions}
}

// Totals are the income and expense sums inside one range.
type Totals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// CategoryShare is one category's percentage of a type's total.
type CategoryShare struct {
	Category core.Category   `json:"category"`
	Percent  decimal.Decimal `json:"percent"`
}

// TotalsByType sums base-currency amounts per transaction type in
// [start, end].
func (s *AnalyticsService) TotalsByType(ctx context.Context, userID uuid.UUID, start, end time.Time) (Totals, error) {
	income, err := s.transactions.AmountByType(ctx, userID, core.Income, start, end)
	if err != nil {
		return Totals{}, err
	}
	expense, err := s.transactions.AmountByType(ctx, userID, core.Expense, start, end)
	if err != nil {
		return Totals{}, err
	}
	return Totals{Income: income, Expense: expense}, nil
}

// CategoryShares splits one type's total across categories as percentages.
// An empty range yields an empty slice, not a division by zero.
func (s *AnalyticsService) CategoryShares(ctx context.Context, userID uuid.UUID, typ core.TransactionType, start, end time.Time) ([]CategoryShare, error) {
	txs, err := s.transactions.ByTypeInRange(ctx, userID, typ, start, end)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	byCategory := make(map[core.Category]decimal.Decimal)
	for _, tx := range txs {
		total = total.Add(tx.AmountBase)
		byCategory[tx.Category] = byCategory[tx.Category].Add(tx.AmountBase)
	}
	if total.IsZero() {
		return []CategoryShare{}, nil
	}
	shares := make([]CategoryShare, 0, len(byCategory))
	for category, sum := range byCategory {
		percent := sum.DivRound(total, 4).Mul(oneHundred).Round(core.AmountScale)
		shares = append(shares, CategoryShare{Category: category, Percent: percent})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Category < shares[j].Category })
	return shares, nil
}

// DiffDirection tells which way an amount moved between two periods.
type DiffDirection string

const (
	DiffUnchanged DiffDirection = "UNCHANGED"
	DiffIncreased DiffDirection = "INCREASED"
	DiffDecreased DiffDirection = "DECREASED"
)

// Diff compares one amount in a second period against a first. Percent is
// relative to the first period's amount; a first period of zero reads as a
// 100% move.
type Diff struct {
	Amount    decimal.Decimal `json:"amount"`
	Percent   decimal.Decimal `json:"percent"`
	Direction DiffDirection   `json:"direction"`
}

// CategoryDiff is one category's movement between the two periods.
type CategoryDiff struct {
	Type     core.TransactionType `json:"type"`
	Category core.Category        `json:"category"`
	Diff     Diff                 `json:"diff"`
}

// PeriodComparison holds the full second-vs-first period breakdown.
type PeriodComparison struct {
	Income            Diff           `json:"income"`
	Expense           Diff           `json:"expense"`
	IncomeCategories  []CategoryDiff `json:"incomeCategories"`
	ExpenseCategories []CategoryDiff `json:"expenseCategories"`
}

// ComparePeriods diffs income and expense totals, and every category seen
// in either period, between [start1, end1] and [start2, end2].
func (s *AnalyticsService) ComparePeriods(ctx context.Context, userID uuid.UUID, start1, end1, start2, end2 time.Time) (PeriodComparison, error) {
	var cmp PeriodComparison
	for _, typ := range []core.TransactionType{core.Income, core.Expense} {
		first, err := s.transactions.ByTypeInRange(ctx, userID, typ, start1, end1)
		if err != nil {
			return PeriodComparison{}, err
		}
		second, err := s.transactions.ByTypeInRange(ctx, userID, typ, start2, end2)
		if err != nil {
			return PeriodComparison{}, err
		}
		totalDiff := diffAmounts(sumBase(first), sumBase(second))
		categoryDiffs := diffCategories(typ, first, second)
		switch typ {
		case core.Income:
			cmp.Income = totalDiff
			cmp.IncomeCategories = categoryDiffs
		case core.Expense:
			cmp.Expense = totalDiff
			cmp.ExpenseCategories = categoryDiffs
		}
	}
	return cmp, nil
}

func sumBase(txs []core.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.AmountBase)
	}
	return total
}

func sumBaseByCategory(txs []core.Transaction, category core.Category) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txs {
		if tx.Category == category {
			total = total.Add(tx.AmountBase)
		}
	}
	return total
}

func diffAmounts(first, second decimal.Decimal) Diff {
	switch {
	case first.Equal(second):
		return Diff{Amount: decimal.Zero, Percent: decimal.Zero, Direction: DiffUnchanged}
	case first.IsZero():
		return Diff{Amount: second.Abs(), Percent: oneHundred, Direction: DiffIncreased}
	}
	amount := second.Sub(first).Abs()
	direction := DiffDecreased
	if second.GreaterThan(first) {
		direction = DiffIncreased
	}
	return Diff{
		Amount:    amount,
		Percent:   amount.DivRound(first, core.AmountScale).Mul(oneHundred),
		Direction: direction,
	}
}

func diffCategories(typ core.TransactionType, first, second []core.Transaction) []CategoryDiff {
	seen := make(map[core.Category]struct{})
	for _, tx := range first {
		seen[tx.Category] = struct{}{}
	}
	for _, tx := range second {
		seen[tx.Category] = struct{}{}
	}
	diffs := make([]CategoryDiff, 0, len(seen))
	for category := range seen {
		diffs = append(diffs, CategoryDiff{
			Type:     typ,
			Category: category,
			Diff:     diffAmounts(sumBaseByCategory(first, category), sumBaseByCategory(second, category)),
		})
	}
	sort.Slice(diffs, func(i, j int) bool { return diffs[i].Category < diffs[j].Category })
	return diffs
}
