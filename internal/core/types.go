// Package core holds the domain model shared by storage, services and
// transport: users, transactions, budgets, exchange rates and the error
// taxonomy surfaced to callers.
package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

// ParseTransactionType normalizes and validates a raw type value.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", ErrBadData
}

// Category is the spending/income category budgets are keyed on.
type Category string

const (
	CategorySupermarkets  Category = "SUPERMARKETS"
	CategoryTransport     Category = "TRANSPORT"
	CategoryRestaurants   Category = "RESTAURANTS"
	CategoryHealth        Category = "HEALTH"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryUtilities     Category = "UTILITIES"
	CategoryTravel        Category = "TRAVEL"
	CategorySalary        Category = "SALARY"
	CategoryTransfers     Category = "TRANSFERS"
	CategoryOther         Category = "OTHER"
)

var knownCategories = map[Category]struct{}{
	CategorySupermarkets:  {},
	CategoryTransport:     {},
	CategoryRestaurants:   {},
	CategoryHealth:        {},
	CategoryEntertainment: {},
	CategoryUtilities:     {},
	CategoryTravel:        {},
	CategorySalary:        {},
	CategoryTransfers:     {},
	CategoryOther:         {},
}

// ParseCategory normalizes and validates a raw category value.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := knownCategories[c]; !ok {
		return "", ErrBadData
	}
	return c, nil
}

// BudgetPeriod is the recurring window a budget limit applies to.
type BudgetPeriod string

const (
	PeriodDay   BudgetPeriod = "DAY"
	PeriodWeek  BudgetPeriod = "WEEK"
	PeriodMonth BudgetPeriod = "MONTH"
	PeriodYear  BudgetPeriod = "YEAR"
)

// ParseBudgetPeriod normalizes and validates a raw period value.
func ParseBudgetPeriod(s string) (BudgetPeriod, error) {
	switch BudgetPeriod(strings.ToUpper(strings.TrimSpace(s))) {
	case PeriodDay:
		return PeriodDay, nil
	case PeriodWeek:
		return PeriodWeek, nil
	case PeriodMonth:
		return PeriodMonth, nil
	case PeriodYear:
		return PeriodYear, nil
	}
	return "", ErrBadData
}

// RateSource identifies where an exchange-rate row came from. Resolution
// always prefers CentralBank rows over OpenExchange rows.
type RateSource string

const (
	CentralBank  RateSource = "CENTRAL_BANK"
	OpenExchange RateSource = "OPEN_EXCHANGE"
)

// User owns transactions and budgets. Balance is a running total in the
// user's base currency, adjusted only through settlement and import
// recalculation.
type User struct {
	ID           uuid.UUID
	Username     string
	Balance      decimal.Decimal
	BaseCurrency Currency
}

// Transaction is a single income or expense entry. AmountBase is computed
// once from the rates in effect at creation/update time and never
// recomputed afterwards.
type Transaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Type            TransactionType
	Category        Category
	InitialAmount   decimal.Decimal
	InitialCurrency Currency
	AmountBase      decimal.Decimal
	DateTime        time.Time
	Description     string
	JobID           *uuid.UUID
}

// Budget caps spending for one (user, period, category) triple. The limit
// is denominated in the user's base currency.
type Budget struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Category    Category
	Period      BudgetPeriod
	LimitAmount decimal.Decimal
}

// ExchangeRate is one append-only row of the rate time series. Value is the
// price of one unit of Currency in the pivot currency (RUB).
type ExchangeRate struct {
	Currency  Currency
	Name      string
	Value     decimal.Decimal
	Source    RateSource
	UpdatedAt time.Time
}

// ImportJobStatus is the lifecycle state of a batch CSV import.
type ImportJobStatus string

const (
	JobRunning   ImportJobStatus = "RUNNING"
	JobCompleted ImportJobStatus = "COMPLETED"
	JobFailed    ImportJobStatus = "FAILED"
)

// ImportJob tracks one batch CSV import run.
type ImportJob struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Status       ImportJobStatus
	ReadCount    int
	SkippedCount int
	WrittenCount int
	CreatedAt    time.Time
	FinishedAt   *time.Time
}
