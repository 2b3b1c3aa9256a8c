package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"kopilka/internal/core"
)

type MockStore struct {
	mock.Mock
}

// InTx runs fn against the mock itself so expectations set on the mock
// cover calls made inside the transaction.
func (m *MockStore) InTx(ctx context.Context, fn func(Store) error) error {
	return fn(m)
}

func (m *MockStore) CreateUser(ctx context.Context, u core.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockStore) UserByID(ctx context.Context, id uuid.UUID) (core.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(core.User), args.Error(1)
}

func (m *MockStore) UserByUsername(ctx context.Context, username string) (core.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(core.User), args.Error(1)
}

func (m *MockStore) SaveUserBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, id, balance)
	return args.Error(0)
}

func (m *MockStore) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockStore) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockStore) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) TransactionByID(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(core.Transaction), args.Error(1)
}

func (m *MockStore) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]core.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.Transaction), args.Error(1)
}

func (m *MockStore) TransactionsByTypeInRange(ctx context.Context, userID uuid.UUID, typ core.TransactionType, start, end time.Time) ([]core.Transaction, error) {
	args := m.Called(ctx, userID, typ, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.Transaction), args.Error(1)
}

func (m *MockStore) TransactionsByJob(ctx context.Context, jobID uuid.UUID) ([]core.Transaction, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.Transaction), args.Error(1)
}

func (m *MockStore) InsertBudget(ctx context.Context, b core.Budget) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockStore) UpdateBudget(ctx context.Context, b core.Budget) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *MockStore) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) BudgetByID(ctx context.Context, id uuid.UUID) (core.Budget, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(core.Budget), args.Error(1)
}

func (m *MockStore) BudgetExists(ctx context.Context, userID uuid.UUID, period core.BudgetPeriod, category core.Category) (bool, error) {
	args := m.Called(ctx, userID, period, category)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) BudgetsFor(ctx context.Context, userID uuid.UUID, category core.Category) ([]core.Budget, error) {
	args := m.Called(ctx, userID, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.Budget), args.Error(1)
}

func (m *MockStore) ListBudgets(ctx context.Context, userID uuid.UUID, limit, offset int) ([]core.Budget, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.Budget), args.Error(1)
}

func (m *MockStore) SumInitialInWindow(ctx context.Context, userID uuid.UUID, category core.Category, start, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, userID, category, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockStore) AppendRates(ctx context.Context, rates []core.ExchangeRate) error {
	args := m.Called(ctx, rates)
	return args.Error(0)
}

func (m *MockStore) LatestRate(ctx context.Context, currency core.Currency, source core.RateSource) (core.ExchangeRate, error) {
	args := m.Called(ctx, currency, source)
	return args.Get(0).(core.ExchangeRate), args.Error(1)
}

func (m *MockStore) CreateImportJob(ctx context.Context, job core.ImportJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockStore) FinishImportJob(ctx context.Context, id uuid.UUID, status core.ImportJobStatus, read, skipped, written int, finishedAt time.Time) error {
	args := m.Called(ctx, id, status, read, skipped, written, finishedAt)
	return args.Error(0)
}

func (m *MockStore) ImportJobByID(ctx context.Context, id uuid.UUID) (core.ImportJob, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(core.ImportJob), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(ctx context.Context, topic string, payload any) error {
	args := m.Called(ctx, topic, payload)
	return args.Error(0)
}

type MockRateSource struct {
	mock.Mock
	name string
}

func (m *MockRateSource) Name() string { return m.name }

func (m *MockRateSource) Fetch(ctx context.Context) ([]core.ExchangeRate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]core.ExchangeRate), args.Error(1)
}
