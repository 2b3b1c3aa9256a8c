package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kopilka/internal/core"
	"kopilka/internal/notify"
	"kopilka/internal/storage"
)

func openTestStore(t *testing.T) Store {
	t.Helper()
	repo, err := storage.Open(filepath.Join(t.TempDir(), "kopilka.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return NewStore(repo)
}

func seedTestUser(t *testing.T, store Store, balance string) core.User {
	t.Helper()
	u := core.User{
		ID:           uuid.New(),
		Username:     "user-" + uuid.NewString()[:8],
		Balance:      dec(balance),
		BaseCurrency: core.PivotCurrency,
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

// Two settlements race toward the same budget headroom. Exactly one may
// commit: the immediate write transaction serializes them, so the loser
// projects against the winner's row and overshoots.
func TestConcurrentSettlementsRespectTheBudget(t *testing.T) {
	store := openTestStore(t)
	user := seedTestUser(t, store, "10000")
	ctx := context.Background()

	require.NoError(t, store.InsertBudget(ctx, core.Budget{
		ID:          uuid.New(),
		UserID:      user.ID,
		Category:    core.CategorySupermarkets,
		Period:      core.PeriodMonth,
		LimitAmount: dec("100"),
	}))

	notifier := notify.LogNotifier{}
	budgets := NewBudgetService(store, notifier)
	currency := NewCurrencyService(store, nil)
	svc := NewTransactionService(store, currency, budgets)

	input := TransactionInput{
		Type:            core.Expense,
		Category:        core.CategorySupermarkets,
		InitialAmount:   dec("60"),
		InitialCurrency: core.PivotCurrency,
		DateTime:        time.Now(),
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, results[i] = svc.Create(ctx, user.ID, input)
		}()
	}
	wg.Wait()

	var successes, breaches int
	for _, err := range results {
		var exceeded *core.BudgetLimitExceededError
		switch {
		case err == nil:
			successes++
		case errors.As(err, &exceeded):
			breaches++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, breaches)

	got, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("9940")), "balance = %s", got.Balance)
}

// A failing settlement leaves no partial rows behind.
func TestSettlementRollsBackAtomically(t *testing.T) {
	store := openTestStore(t)
	user := seedTestUser(t, store, "1000")
	ctx := context.Background()

	require.NoError(t, store.InsertBudget(ctx, core.Budget{
		ID:          uuid.New(),
		UserID:      user.ID,
		Category:    core.CategoryTransport,
		Period:      core.PeriodDay,
		LimitAmount: dec("10"),
	}))

	svc := NewTransactionService(store, NewCurrencyService(store, nil), NewBudgetService(store, notify.LogNotifier{}))

	_, err := svc.Create(ctx, user.ID, TransactionInput{
		Type:            core.Expense,
		Category:        core.CategoryTransport,
		InitialAmount:   dec("50"),
		InitialCurrency: core.PivotCurrency,
		DateTime:        time.Now(),
	})
	var exceeded *core.BudgetLimitExceededError
	require.ErrorAs(t, err, &exceeded)

	txs, err := store.ListTransactions(ctx, user.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, txs)

	got, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("1000")))
}

func TestImportEndToEnd(t *testing.T) {
	store := openTestStore(t)
	user := seedTestUser(t, store, "1000")
	ctx := context.Background()

	currency := NewCurrencyService(store, nil)
	budgets := NewBudgetService(store, notify.LogNotifier{})
	svc := NewImportService(store, currency, budgets, notify.LogNotifier{}, ImportConfig{})

	csvBody := "type,category,amount,currency,date_time,description\n" +
		"EXPENSE,SUPERMARKETS,100.50,RUB,2025-07-01T10:00:00,groceries\n" +
		"INCOME,SALARY,500,RUB,2025-07-02T09:00:00,payday\n" +
		"EXPENSE,not-a-category,10,RUB,2025-07-03T10:00:00,bad row\n" +
		"EXPENSE,TRANSPORT,30,RUB,2025-07-04T08:15:00,metro\n"

	jobID, err := svc.StartImport(ctx, user.ID, strings.NewReader(csvBody))
	require.NoError(t, err)
	svc.Wait()

	job, err := svc.Job(ctx, user.ID, jobID)
	require.NoError(t, err)
	assert.Equal(t, core.JobCompleted, job.Status)
	assert.Equal(t, 4, job.ReadCount)
	assert.Equal(t, 1, job.SkippedCount)
	assert.Equal(t, 3, job.WrittenCount)
	require.NotNil(t, job.FinishedAt)

	// 1000 - 100.50 + 500 - 30, applied once at the end.
	got, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("1369.50")), "balance = %s", got.Balance)

	txs, err := store.TransactionsByJob(ctx, jobID)
	require.NoError(t, err)
	assert.Len(t, txs, 3)
}

func TestImportFailsPastTheSkipLimit(t *testing.T) {
	store := openTestStore(t)
	user := seedTestUser(t, store, "1000")
	ctx := context.Background()

	svc := NewImportService(store,
		NewCurrencyService(store, nil),
		NewBudgetService(store, notify.LogNotifier{}),
		notify.LogNotifier{},
		ImportConfig{SkipLimit: 2})

	var b strings.Builder
	b.WriteString("type,category,amount,currency,date_time,description\n")
	for i := 0; i < 3; i++ {
		b.WriteString("EXPENSE,not-a-category,10,RUB,2025-07-03T10:00:00,bad\n")
	}

	jobID, err := svc.StartImport(ctx, user.ID, strings.NewReader(b.String()))
	require.NoError(t, err)
	svc.Wait()

	job, err := svc.Job(ctx, user.ID, jobID)
	require.NoError(t, err)
	assert.Equal(t, core.JobFailed, job.Status)

	got, err := store.UserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(dec("1000")), "failed job must not move the balance")
}

func TestStagedImportFileIsRemoved(t *testing.T) {
	store := openTestStore(t)
	user := seedTestUser(t, store, "100")

	svc := NewImportService(store,
		NewCurrencyService(store, nil),
		NewBudgetService(store, notify.LogNotifier{}),
		notify.LogNotifier{},
		ImportConfig{})

	before, _ := filepath.Glob(filepath.Join(os.TempDir(), "transactions-*.csv"))
	_, err := svc.StartImport(context.Background(), user.ID, strings.NewReader("type,category,amount,currency,date_time,description\n"))
	require.NoError(t, err)
	svc.Wait()
	after, _ := filepath.Glob(filepath.Join(os.TempDir(), "transactions-*.csv"))

	assert.LessOrEqual(t, len(after), len(before))
}

// The budget ledger sums amounts as they were entered, so a foreign-currency
// row consumes its original value against a base-currency limit rather than
// the converted one. A 5 USD expense settled at rate 80 moves 400 through
// conversion but counts only 5 toward the category budget.
func TestBudgetLedgerSumsInitialAmountsAcrossCurrencies(t *testing.T) {
	store := openTestStore(t)
	user := seedTestUser(t, store, "10000")
	ctx := context.Background()

	require.NoError(t, store.AppendRates(ctx, []core.ExchangeRate{{
		Currency:  core.Currency("USD"),
		Name:      "US Dollar",
		Value:     dec("80"),
		Source:    core.CentralBank,
		UpdatedAt: time.Now().UTC(),
	}}))
	require.NoError(t, store.InsertBudget(ctx, core.Budget{
		ID:          uuid.New(),
		UserID:      user.ID,
		Category:    core.CategorySupermarkets,
		Period:      core.PeriodMonth,
		LimitAmount: dec("500"),
	}))

	svc := NewTransactionService(store,
		NewCurrencyService(store, nil),
		NewBudgetService(store, notify.LogNotifier{}),
	)

	now := time.Now()
	foreign, err := svc.Create(ctx, user.ID, TransactionInput{
		Type:            core.Expense,
		Category:        core.CategorySupermarkets,
		InitialAmount:   dec("5"),
		InitialCurrency: core.Currency("USD"),
		DateTime:        now,
	})
	require.NoError(t, err)
	assert.True(t, foreign.AmountBase.Equal(dec("400")), foreign.AmountBase.String())

	_, err = svc.Create(ctx, user.ID, TransactionInput{
		Type:            core.Expense,
		Category:        core.CategorySupermarkets,
		InitialAmount:   dec("100"),
		InitialCurrency: core.PivotCurrency,
		DateTime:        now,
	})
	require.NoError(t, err)

	start, end, err := core.PeriodWindow(core.PeriodMonth, now)
	require.NoError(t, err)
	consumed, err := store.SumInitialInWindow(ctx, user.ID, core.CategorySupermarkets, start, end)
	require.NoError(t, err)
	assert.True(t, consumed.Equal(dec("105")), consumed.String())

	// Summed at base value the category would already be at 500 and this
	// settlement would overshoot; it passes because consumption reads 105.
	_, err = svc.Create(ctx, user.ID, TransactionInput{
		Type:            core.Expense,
		Category:        core.CategorySupermarkets,
		InitialAmount:   dec("300"),
		InitialCurrency: core.PivotCurrency,
		DateTime:        now,
	})
	require.NoError(t, err)
}
