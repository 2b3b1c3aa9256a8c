package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

const transactionColumns = `id, user_id, type, category, initial_amount,
	initial_currency, amount_base, date_time, description, job_id`

// InsertTransaction persists a new transaction row.
func (r *Repository) InsertTransaction(ctx context.Context, tx core.Transaction) error {
	var jobID any
	if tx.JobID != nil {
		jobID = tx.JobID.String()
	}
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID.String(), tx.UserID.String(), string(tx.Type), string(tx.Category),
		tx.InitialAmount.String(), string(tx.InitialCurrency), tx.AmountBase.String(),
		tx.DateTime.UnixMicro(), tx.Description, jobID)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// UpdateTransaction overwrites the mutable fields of an existing row.
func (r *Repository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE transactions
		 SET type = ?, category = ?, initial_amount = ?, initial_currency = ?,
		     amount_base = ?, date_time = ?, description = ?
		 WHERE id = ?`,
		string(tx.Type), string(tx.Category), tx.InitialAmount.String(),
		string(tx.InitialCurrency), tx.AmountBase.String(), tx.DateTime.UnixMicro(),
		tx.Description, tx.ID.String())
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a row permanently.
func (r *Repository) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// TransactionByID loads a transaction or core.ErrNotFound.
func (r *Repository) TransactionByID(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id.String())
	tx, err := scanTransaction(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, err
	}
	return tx, nil
}

// ListTransactions returns a user's transactions newest-first.
func (r *Repository) ListTransactions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]core.Transaction, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? ORDER BY date_time DESC LIMIT ? OFFSET ?`,
		userID.String(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// SumInitialInWindow sums initial (original-currency) amounts of all the
// user's transactions in a category whose timestamp falls in [start, end].
// No type filter and no currency normalization: this mirrors how budget
// consumption has always been ledgered, mixed currencies included.
func (r *Repository) SumInitialInWindow(ctx context.Context, userID uuid.UUID, category core.Category, start, end time.Time) (decimal.Decimal, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT initial_amount FROM transactions
		 WHERE user_id = ? AND category = ? AND date_time BETWEEN ? AND ?`,
		userID.String(), string(category), start.UnixMicro(), end.UnixMicro())
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum window: %w", err)
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return decimal.Zero, fmt.Errorf("scan amount: %w", err)
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse amount: %w", err)
		}
		sum = sum.Add(d)
	}
	return sum, rows.Err()
}

// TransactionsByTypeInRange returns the user's transactions of one type in
// [start, end], used by analytics.
func (r *Repository) TransactionsByTypeInRange(ctx context.Context, userID uuid.UUID, typ core.TransactionType, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = ? AND type = ? AND date_time BETWEEN ? AND ?
		 ORDER BY date_time`,
		userID.String(), string(typ), start.UnixMicro(), end.UnixMicro())
	if err != nil {
		return nil, fmt.Errorf("transactions by type: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

// TransactionsByJob returns all rows written by one import job.
func (r *Repository) TransactionsByJob(ctx context.Context, jobID uuid.UUID) ([]core.Transaction, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE job_id = ?`, jobID.String())
	if err != nil {
		return nil, fmt.Errorf("transactions by job: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func scanTransaction(scan func(...any) error) (core.Transaction, error) {
	var (
		tx                            core.Transaction
		id, userID                    string
		typ, category, currency       string
		initialAmount, amountBase     string
		dateMicros                    int64
		jobID                         sql.NullString
	)
	err := scan(&id, &userID, &typ, &category, &initialAmount, &currency,
		&amountBase, &dateMicros, &tx.Description, &jobID)
	if err != nil {
		return core.Transaction{}, err
	}

	if tx.ID, err = uuid.Parse(id); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction id: %w", err)
	}
	if tx.UserID, err = uuid.Parse(userID); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction user id: %w", err)
	}
	tx.Type = core.TransactionType(typ)
	tx.Category = core.Category(category)
	tx.InitialCurrency = core.Currency(currency)
	if tx.InitialAmount, err = decimal.NewFromString(initialAmount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse initial amount: %w", err)
	}
	if tx.AmountBase, err = decimal.NewFromString(amountBase); err != nil {
		return core.Transaction{}, fmt.Errorf("parse base amount: %w", err)
	}
	tx.DateTime = time.UnixMicro(dateMicros).UTC()
	if jobID.Valid {
		j, err := uuid.Parse(jobID.String)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("parse job id: %w", err)
		}
		tx.JobID = &j
	}
	return tx, nil
}
