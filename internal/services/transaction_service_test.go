package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"kopilka/internal/core"
)

func newTransactionService(store Store, notifier *MockNotifier) *TransactionService {
	currency := NewCurrencyService(store, nil)
	budgets := newBudgetService(store, notifier)
	svc := NewTransactionService(store, currency, budgets)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestCreateTransaction(t *testing.T) {
	userID := uuid.New()
	user := core.User{
		ID:           userID,
		Username:     "masha",
		Balance:      dec("1000"),
		BaseCurrency: core.PivotCurrency,
	}

	t.Run("expense settles and moves the balance", func(t *testing.T) {
		store := new(MockStore)
		store.On("UserByID", mock.Anything, userID).Return(user, nil)
		store.On("BudgetsFor", mock.Anything, userID, core.CategorySupermarkets).
			Return([]core.Budget{}, nil)
		store.On("InsertTransaction", mock.Anything, mock.Anything).Return(nil)
		store.On("SaveUserBalance", mock.Anything, userID, mock.Anything).Return(nil)
		svc := newTransactionService(store, new(MockNotifier))

		tx, err := svc.Create(context.Background(), userID, TransactionInput{
			Type:            core.Expense,
			Category:        core.CategorySupermarkets,
			InitialAmount:   dec("250.50"),
			InitialCurrency: core.PivotCurrency,
			DateTime:        testNow,
		})

		assert.NoError(t, err)
		assert.True(t, tx.AmountBase.Equal(dec("250.50")))

		saved := store.Calls[len(store.Calls)-1].Arguments.Get(2).(decimal.Decimal)
		assert.True(t, saved.Equal(dec("749.50")), "balance = %s", saved)
	})

	t.Run("income raises the balance", func(t *testing.T) {
		store := new(MockStore)
		store.On("UserByID", mock.Anything, userID).Return(user, nil)
		store.On("BudgetsFor", mock.Anything, userID, core.CategorySalary).
			Return([]core.Budget{}, nil)
		store.On("InsertTransaction", mock.Anything, mock.Anything).Return(nil)
		store.On("SaveUserBalance", mock.Anything, userID, mock.Anything).Return(nil)
		svc := newTransactionService(store, new(MockNotifier))

		_, err := svc.Create(context.Background(), userID, TransactionInput{
			Type:            core.Income,
			Category:        core.CategorySalary,
			InitialAmount:   dec("500"),
			InitialCurrency: core.PivotCurrency,
			DateTime:        testNow,
		})

		assert.NoError(t, err)
		saved := store.Calls[len(store.Calls)-1].Arguments.Get(2).(decimal.Decimal)
		assert.True(t, saved.Equal(dec("1500")), "balance = %s", saved)
	})

	t.Run("insufficient funds rejected before any budget work", func(t *testing.T) {
		store := new(MockStore)
		store.On("UserByID", mock.Anything, userID).Return(user, nil)
		svc := newTransactionService(store, new(MockNotifier))

		_, err := svc.Create(context.Background(), userID, TransactionInput{
			Type:            core.Expense,
			Category:        core.CategorySupermarkets,
			InitialAmount:   dec("1000.01"),
			InitialCurrency: core.PivotCurrency,
			DateTime:        testNow,
		})

		assert.ErrorIs(t, err, core.ErrInsufficientFunds)
		store.AssertNotCalled(t, "BudgetsFor", mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "InsertTransaction", mock.Anything, mock.Anything)
	})

	t.Run("budget breach rolls the settlement back", func(t *testing.T) {
		store := new(MockStore)
		store.On("UserByID", mock.Anything, userID).Return(user, nil)
		store.On("BudgetsFor", mock.Anything, userID, core.CategorySupermarkets).
			Return([]core.Budget{{
				ID:          uuid.New(),
				UserID:      userID,
				Category:    core.CategorySupermarkets,
				Period:      core.PeriodMonth,
				LimitAmount: dec("100"),
			}}, nil)
		store.On("SumInitialInWindow", mock.Anything, userID, core.CategorySupermarkets, mock.Anything, mock.Anything).
			Return(dec("90"), nil)
		notifier := new(MockNotifier)
		notifier.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		svc := newTransactionService(store, notifier)

		_, err := svc.Create(context.Background(), userID, TransactionInput{
			Type:            core.Expense,
			Category:        core.CategorySupermarkets,
			InitialAmount:   dec("20"),
			InitialCurrency: core.PivotCurrency,
			DateTime:        testNow,
		})

		var exceeded *core.BudgetLimitExceededError
		assert.ErrorAs(t, err, &exceeded)
		store.AssertNotCalled(t, "InsertTransaction", mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "SaveUserBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("foreign amount converts before the budget projection", func(t *testing.T) {
		store := new(MockStore)
		store.On("UserByID", mock.Anything, userID).Return(user, nil)
		store.On("LatestRate", mock.Anything, core.Currency("USD"), core.CentralBank).
			Return(rate("USD", "80.000000", core.CentralBank), nil)
		store.On("BudgetsFor", mock.Anything, userID, core.CategoryTravel).
			Return([]core.Budget{}, nil)
		store.On("InsertTransaction", mock.Anything, mock.Anything).Return(nil)
		store.On("SaveUserBalance", mock.Anything, userID, mock.Anything).Return(nil)
		svc := newTransactionService(store, new(MockNotifier))

		tx, err := svc.Create(context.Background(), userID, TransactionInput{
			Type:            core.Expense,
			Category:        core.CategoryTravel,
			InitialAmount:   dec("5"),
			InitialCurrency: "USD",
			DateTime:        testNow,
		})

		assert.NoError(t, err)
		assert.True(t, tx.AmountBase.Equal(dec("400")), "base = %s", tx.AmountBase)
		// Balance moves by the original-currency amount.
		saved := store.Calls[len(store.Calls)-1].Arguments.Get(2).(decimal.Decimal)
		assert.True(t, saved.Equal(dec("995")), "balance = %s", saved)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		svc := newTransactionService(new(MockStore), new(MockNotifier))

		_, err := svc.Create(context.Background(), userID, TransactionInput{
			Type:            core.Expense,
			Category:        core.CategorySupermarkets,
			InitialAmount:   dec("-5"),
			InitialCurrency: core.PivotCurrency,
		})

		assert.ErrorIs(t, err, core.ErrBadData)
	})
}

func TestUpdateTransaction(t *testing.T) {
	userID := uuid.New()
	user := core.User{
		ID:           userID,
		Username:     "masha",
		Balance:      dec("1000"),
		BaseCurrency: core.PivotCurrency,
	}
	existing := core.Transaction{
		ID:              uuid.New(),
		UserID:          userID,
		Type:            core.Expense,
		Category:        core.CategorySupermarkets,
		InitialAmount:   dec("100"),
		InitialCurrency: core.PivotCurrency,
		AmountBase:      dec("100"),
		DateTime:        testNow,
	}

	t.Run("empty patch rejected", func(t *testing.T) {
		svc := newTransactionService(new(MockStore), new(MockNotifier))

		_, err := svc.Update(context.Background(), userID, existing.ID, TransactionUpdate{})

		assert.ErrorIs(t, err, core.ErrEmptyRequest)
	})

	t.Run("non-owner is forbidden", func(t *testing.T) {
		store := new(MockStore)
		store.On("TransactionByID", mock.Anything, existing.ID).Return(existing, nil)
		svc := newTransactionService(store, new(MockNotifier))

		desc := "mine now"
		_, err := svc.Update(context.Background(), uuid.New(), existing.ID, TransactionUpdate{Description: &desc})

		assert.ErrorIs(t, err, core.ErrNoRights)
	})

	t.Run("amount change moves the balance by the delta", func(t *testing.T) {
		store := new(MockStore)
		store.On("TransactionByID", mock.Anything, existing.ID).Return(existing, nil)
		store.On("UserByID", mock.Anything, userID).Return(user, nil)
		store.On("UpdateTransaction", mock.Anything, mock.Anything).Return(nil)
		store.On("SaveUserBalance", mock.Anything, userID, mock.Anything).Return(nil)
		svc := newTransactionService(store, new(MockNotifier))

		amount := dec("150")
		updated, err := svc.Update(context.Background(), userID, existing.ID, TransactionUpdate{InitialAmount: &amount})

		assert.NoError(t, err)
		assert.True(t, updated.AmountBase.Equal(dec("150")))
		// Expense grew by 50, so the balance drops by 50.
		saved := store.Calls[len(store.Calls)-1].Arguments.Get(2).(decimal.Decimal)
		assert.True(t, saved.Equal(dec("950")), "balance = %s", saved)
	})

	t.Run("description-only change leaves money alone", func(t *testing.T) {
		store := new(MockStore)
		store.On("TransactionByID", mock.Anything, existing.ID).Return(existing, nil)
		store.On("UserByID", mock.Anything, userID).Return(user, nil)
		store.On("UpdateTransaction", mock.Anything, mock.Anything).Return(nil)
		svc := newTransactionService(store, new(MockNotifier))

		desc := "weekly groceries"
		updated, err := svc.Update(context.Background(), userID, existing.ID, TransactionUpdate{Description: &desc})

		assert.NoError(t, err)
		assert.Equal(t, desc, updated.Description)
		assert.True(t, updated.AmountBase.Equal(existing.AmountBase))
		store.AssertNotCalled(t, "SaveUserBalance", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestDeleteTransaction(t *testing.T) {
	userID := uuid.New()
	existing := core.Transaction{ID: uuid.New(), UserID: userID}

	t.Run("delete keeps the balance", func(t *testing.T) {
		store := new(MockStore)
		store.On("TransactionByID", mock.Anything, existing.ID).Return(existing, nil)
		store.On("DeleteTransaction", mock.Anything, existing.ID).Return(nil)
		svc := newTransactionService(store, new(MockNotifier))

		err := svc.Delete(context.Background(), userID, existing.ID)

		assert.NoError(t, err)
		store.AssertNotCalled(t, "SaveUserBalance", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing transaction", func(t *testing.T) {
		store := new(MockStore)
		store.On("TransactionByID", mock.Anything, existing.ID).
			Return(core.Transaction{}, core.ErrNotFound)
		svc := newTransactionService(store, new(MockNotifier))

		err := svc.Delete(context.Background(), userID, existing.ID)

		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}
