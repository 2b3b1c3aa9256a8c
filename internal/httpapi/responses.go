package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/core"
	"kopilka/internal/services"
)

type userResponse struct {
	ID           uuid.UUID       `json:"id"`
	Username     string          `json:"username"`
	Balance      decimal.Decimal `json:"balance"`
	BaseCurrency core.Currency   `json:"base_currency"`
}

func toUserResponse(u core.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, Balance: u.Balance, BaseCurrency: u.BaseCurrency}
}

type transactionResponse struct {
	ID          uuid.UUID       `json:"id"`
	Type        string          `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    core.Currency   `json:"currency"`
	AmountBase  decimal.Decimal `json:"amount_base"`
	DateTime    time.Time       `json:"date_time"`
	Description string          `json:"description,omitempty"`
	JobID       *uuid.UUID      `json:"job_id,omitempty"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Type:        string(t.Type),
		Category:    string(t.Category),
		Amount:      t.InitialAmount,
		Currency:    t.InitialCurrency,
		AmountBase:  t.AmountBase,
		DateTime:    t.DateTime,
		Description: t.Description,
		JobID:       t.JobID,
	}
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

type budgetResponse struct {
	ID          uuid.UUID       `json:"id"`
	Category    string          `json:"category"`
	Period      string          `json:"period"`
	LimitAmount decimal.Decimal `json:"limit_amount"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	return budgetResponse{ID: b.ID, Category: string(b.Category), Period: string(b.Period), LimitAmount: b.LimitAmount}
}

type rateResponse struct {
	Currency  core.Currency   `json:"currency"`
	Name      string          `json:"name,omitempty"`
	Value     decimal.Decimal `json:"value"`
	Source    string          `json:"source"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toRateResponse(rate core.ExchangeRate) rateResponse {
	return rateResponse{
		Currency:  rate.Currency,
		Name:      rate.Name,
		Value:     rate.Value,
		Source:    string(rate.Source),
		UpdatedAt: rate.UpdatedAt,
	}
}

type importJobResponse struct {
	ID           uuid.UUID  `json:"id"`
	Status       string     `json:"status"`
	ReadCount    int        `json:"read_count"`
	SkippedCount int        `json:"skipped_count"`
	WrittenCount int        `json:"written_count"`
	CreatedAt    time.Time  `json:"created_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

func toImportJobResponse(j core.ImportJob) importJobResponse {
	return importJobResponse{
		ID:           j.ID,
		Status:       string(j.Status),
		ReadCount:    j.ReadCount,
		SkippedCount: j.SkippedCount,
		WrittenCount: j.WrittenCount,
		CreatedAt:    j.CreatedAt,
		FinishedAt:   j.FinishedAt,
	}
}

type totalsResponse struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type categoryShareResponse struct {
	Category string          `json:"category"`
	Percent  decimal.Decimal `json:"percent"`
}

func toCategoryShareResponses(shares []services.CategoryShare) []categoryShareResponse {
	out := make([]categoryShareResponse, 0, len(shares))
	for _, s := range shares {
		out = append(out, categoryShareResponse{Category: string(s.Category), Percent: s.Percent})
	}
	return out
}

type diffResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	Percent   decimal.Decimal `json:"percent"`
	Direction string          `json:"direction"`
}

func toDiffResponse(d services.Diff) diffResponse {
	return diffResponse{Amount: d.Amount, Percent: d.Percent, Direction: string(d.Direction)}
}

type categoryDiffResponse struct {
	Category string       `json:"category"`
	Diff     diffResponse `json:"diff"`
}

type comparisonResponse struct {
	Income            diffResponse           `json:"income"`
	Expense           diffResponse           `json:"expense"`
	IncomeCategories  []categoryDiffResponse `json:"income_categories"`
	ExpenseCategories []categoryDiffResponse `json:"expense_categories"`
}

func toComparisonResponse(c services.PeriodComparison) comparisonResponse {
	return comparisonResponse{
		Income:            toDiffResponse(c.Income),
		Expense:           toDiffResponse(c.Expense),
		IncomeCategories:  toCategoryDiffResponses(c.IncomeCategories),
		ExpenseCategories: toCategoryDiffResponses(c.ExpenseCategories),
	}
}

func toCategoryDiffResponses(diffs []services.CategoryDiff) []categoryDiffResponse {
	out := make([]categoryDiffResponse, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, categoryDiffResponse{Category: string(d.Category), Diff: toDiffResponse(d.Diff)})
	}
	return out
}
