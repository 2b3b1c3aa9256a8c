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
)

// TransactionService settles income and expense transactions against a
// user's balance and budgets. Every settlement runs inside one immediate
// write transaction, so the balance guard, budget projection and insert
// observe a single consistent snapshot.
type TransactionService struct {
	store    Store
	currency *CurrencyService
	budgets  *BudgetService
	now      func() time.Time
}

func NewTransactionService(store Store, currency *CurrencyService, budgets *BudgetService) *TransactionService {
	return &TransactionService{
		store:    store,
		currency: currency,
		budgets:  budgets,
		now:      time.Now,
	}
}

// TransactionInput is the payload of a settlement request.
type TransactionInput struct {
	Type            core.TransactionType
	Category        core.Category
	InitialAmount   decimal.Decimal
	InitialCurrency core.Currency
	DateTime        time.Time
	Description     string
}

// Create settles a transaction: guard the balance, convert to the base
// currency, project against budgets, persist, then move the balance. Any
// failing step rolls the whole settlement back.
func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, in TransactionInput) (core.Transaction, error) {
	if !in.InitialAmount.IsPositive() {
		return core.Transaction{}, fmt.Errorf("%w: transaction amount must be positive", core.ErrBadData)
	}
	if in.DateTime.IsZero() {
		in.DateTime = s.now()
	}
	tx := core.Transaction{
		ID:              uuid.New(),
		UserID:          userID,
		Type:            in.Type,
		Category:        in.Category,
		InitialAmount:   in.InitialAmount,
		InitialCurrency: in.InitialCurrency,
		DateTime:        in.DateTime.UTC(),
		Description:     in.Description,
	}
	err := s.store.InTx(ctx, func(st Store) error {
		user, err := st.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		if in.Type == core.Expense && user.Balance.LessThan(in.InitialAmount) {
			slog.InfoContext(ctx, "Settlement rejected, balance below transaction amount",
				applog.FieldUserID, userID, applog.FieldAmount, in.InitialAmount, "balance", user.Balance)
			return core.ErrInsufficientFunds
		}
		amountBase := in.InitialAmount
		if in.InitialCurrency != user.BaseCurrency {
			amountBase, err = s.currency.ToBaseCurrency(ctx, in.InitialAmount, in.InitialCurrency, user.BaseCurrency)
			if err != nil {
				return err
			}
		}
		tx.AmountBase = amountBase
		if err := s.budgets.CheckNotExceeded(ctx, st, userID, in.Category, amountBase); err != nil {
			return err
		}
		if err := st.InsertTransaction(ctx, tx); err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		balance := user.Balance
		switch in.Type {
		case core.Income:
			balance = balance.Add(in.InitialAmount)
		case core.Expense:
			balance = balance.Sub(in.InitialAmount)
		}
		if err := st.SaveUserBalance(ctx, userID, balance); err != nil {
			return fmt.Errorf("save balance: %w", err)
		}
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction settled",
		"transaction_id", tx.ID, applog.FieldUserID, userID, "type", tx.Type,
		applog.FieldAmount, tx.InitialAmount, applog.FieldCurrency, tx.InitialCurrency)
	return tx, nil
}

// Get returns one transaction, enforcing ownership.
func (s *TransactionService) Get(ctx context.Context, userID, transactionID uuid.UUID) (core.Transaction, error) {
	return s.ownedTransaction(ctx, s.store, userID, transactionID)
}

// List pages through a user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, limit, offset int) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, userID, limit, offset)
}

// TransactionUpdate carries the optional fields of an update request.
type TransactionUpdate struct {
	Type            *core.TransactionType
	Category        *core.Category
	InitialAmount   *decimal.Decimal
	InitialCurrency *core.Currency
	DateTime        *time.Time
	Description     *string
}

func (u TransactionUpdate) empty() bool {
	return u.Type == nil && u.Category == nil && u.InitialAmount == nil &&
		u.InitialCurrency == nil && u.DateTime == nil && u.Description == nil
}

// Update patches a transaction. When the amount changes the balance guard
// re-runs with the effective type; the base amount is recomputed when the
// amount or currency changes; the balance moves by the initial-amount delta.
// Budgets are not re-projected on update.
func (s *TransactionService) Update(ctx context.Context, userID, transactionID uuid.UUID, upd TransactionUpdate) (core.Transaction, error) {
	if upd.empty() {
		return core.Transaction{}, core.ErrEmptyRequest
	}
	var updated core.Transaction
	err := s.store.InTx(ctx, func(st Store) error {
		tx, err := s.ownedTransaction(ctx, st, userID, transactionID)
		if err != nil {
			return err
		}
		user, err := st.UserByID(ctx, userID)
		if err != nil {
			return err
		}
		next := tx
		if upd.Type != nil {
			next.Type = *upd.Type
		}
		if upd.Category != nil {
			next.Category = *upd.Category
		}
		if upd.InitialCurrency != nil {
			next.InitialCurrency = *upd.InitialCurrency
		}
		if upd.DateTime != nil {
			next.DateTime = upd.DateTime.UTC()
		}
		if upd.Description != nil {
			next.Description = *upd.Description
		}
		if upd.InitialAmount != nil {
			if !upd.InitialAmount.IsPositive() {
				return fmt.Errorf("%w: transaction amount must be positive", core.ErrBadData)
			}
			next.InitialAmount = *upd.InitialAmount
			if next.Type == core.Expense && user.Balance.LessThan(next.InitialAmount) {
				return core.ErrInsufficientFunds
			}
		}
		if upd.InitialAmount != nil || upd.InitialCurrency != nil {
			amountBase := next.InitialAmount
			if next.InitialCurrency != user.BaseCurrency {
				amountBase, err = s.currency.ToBaseCurrency(ctx, next.InitialAmount, next.InitialCurrency, user.BaseCurrency)
				if err != nil {
					return err
				}
			}
			next.AmountBase = amountBase
		}
		if err := st.UpdateTransaction(ctx, next); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		if upd.InitialAmount != nil && !next.InitialAmount.Equal(tx.InitialAmount) {
			delta := next.InitialAmount.Sub(tx.InitialAmount)
			balance := user.Balance
			switch next.Type {
			case core.Income:
				balance = balance.Add(delta)
			case core.Expense:
				balance = balance.Sub(delta)
			}
			if err := st.SaveUserBalance(ctx, userID, balance); err != nil {
				return fmt.Errorf("save balance: %w", err)
			}
		}
		updated = next
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction updated", "transaction_id", transactionID, applog.FieldUserID, userID)
	return updated, nil
}

// Delete removes a transaction, enforcing ownership. The balance is not
// reversed.
func (s *TransactionService) Delete(ctx context.Context, userID, transactionID uuid.UUID) error {
	if _, err := s.ownedTransaction(ctx, s.store, userID, transactionID); err != nil {
		return err
	}
	if err := s.store.DeleteTransaction(ctx, transactionID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", transactionID, applog.FieldUserID, userID)
	return nil
}

// AmountByType sums base-currency amounts of one type inside [start, end].
func (s *TransactionService) AmountByType(ctx context.Context, userID uuid.UUID, typ core.TransactionType, start, end time.Time) (decimal.Decimal, error) {
	txs, err := s.store.TransactionsByTypeInRange(ctx, userID, typ, start, end)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("load %s transactions: %w", typ, err)
	}
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.AmountBase)
	}
	return total, nil
}

// ByTypeInRange lists a user's transactions of one type inside [start, end].
func (s *TransactionService) ByTypeInRange(ctx context.Context, userID uuid.UUID, typ core.TransactionType, start, end time.Time) ([]core.Transaction, error) {
	return s.store.TransactionsByTypeInRange(ctx, userID, typ, start, end)
}

func (s *TransactionService) ownedTransaction(ctx context.Context, st Store, userID, transactionID uuid.UUID) (core.Transaction, error) {
	tx, err := st.TransactionByID(ctx, transactionID)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.UserID != userID {
		slog.InfoContext(ctx, "Attempt to access another user's transaction",
			"transaction_id", transactionID, applog.FieldUserID, userID)
		return core.Transaction{}, core.ErrNoRights
	}
	return tx, nil
}
