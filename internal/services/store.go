// Package services holds the business logic: currency conversion, budget
// enforcement, transaction settlement, analytics and batch import. Services
// talk to persistence through the narrow Store interface so tests can swap
// in doubles, and compose multi-step writes through Store.InTx.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/core"
	"kopilka/internal/storage"
)

// UserDirectory resolves and persists users.
type UserDirectory interface {
	CreateUser(ctx context.Context, u core.User) error
	UserByID(ctx context.Context, id uuid.UUID) (core.User, error)
	UserByUsername(ctx context.Context, username string) (core.User, error)
	SaveUserBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error
}

// TransactionStore persists transactions and serves the read paths used by
// settlement, analytics and import.
type TransactionStore interface {
	InsertTransaction(ctx context.Context, tx core.Transaction) error
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	TransactionByID(ctx context.Context, id uuid.UUID) (core.Transaction, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]core.Transaction, error)
	TransactionsByTypeInRange(ctx context.Context, userID uuid.UUID, typ core.TransactionType, start, end time.Time) ([]core.Transaction, error)
	TransactionsByJob(ctx context.Context, jobID uuid.UUID) ([]core.Transaction, error)
}

// BudgetStore persists budgets.
type BudgetStore interface {
	InsertBudget(ctx context.Context, b core.Budget) error
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, id uuid.UUID) error
	BudgetByID(ctx context.Context, id uuid.UUID) (core.Budget, error)
	BudgetExists(ctx context.Context, userID uuid.UUID, period core.BudgetPeriod, category core.Category) (bool, error)
	BudgetsFor(ctx context.Context, userID uuid.UUID, category core.Category) ([]core.Budget, error)
	ListBudgets(ctx context.Context, userID uuid.UUID, limit, offset int) ([]core.Budget, error)
}

// BudgetLedger sums historical consumption inside a period window.
type BudgetLedger interface {
	SumInitialInWindow(ctx context.Context, userID uuid.UUID, category core.Category, start, end time.Time) (decimal.Decimal, error)
}

// RateStore reads and appends exchange-rate rows.
type RateStore interface {
	AppendRates(ctx context.Context, rates []core.ExchangeRate) error
	LatestRate(ctx context.Context, currency core.Currency, source core.RateSource) (core.ExchangeRate, error)
}

// ImportJobStore tracks batch import runs.
type ImportJobStore interface {
	CreateImportJob(ctx context.Context, job core.ImportJob) error
	FinishImportJob(ctx context.Context, id uuid.UUID, status core.ImportJobStatus, read, skipped, written int, finishedAt time.Time) error
	ImportJobByID(ctx context.Context, id uuid.UUID) (core.ImportJob, error)
}

// Store is the full persistence surface. InTx runs fn against a Store bound
// to one write transaction; every mutation inside either commits together
// or not at all.
type Store interface {
	UserDirectory
	TransactionStore
	BudgetStore
	BudgetLedger
	RateStore
	ImportJobStore

	InTx(ctx context.Context, fn func(Store) error) error
}

type sqliteStore struct {
	*storage.Repository
}

// NewStore adapts the sqlite repository to the Store interface.
func NewStore(repo *storage.Repository) Store {
	return sqliteStore{Repository: repo}
}

func (s sqliteStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.Repository.InTx(ctx, func(tx *storage.Repository) error {
		return fn(sqliteStore{Repository: tx})
	})
}
