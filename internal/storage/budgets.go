package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// InsertBudget persists a new budget row. The (user, period, category)
// uniqueness constraint lives in the schema; callers translate the
// conflict into a validation failure before reaching here.
func (r *Repository) InsertBudget(ctx context.Context, b core.Budget) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category, period, limit_amount)
		 VALUES (?, ?, ?, ?, ?)`,
		b.ID.String(), b.UserID.String(), string(b.Category), string(b.Period),
		b.LimitAmount.String())
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

// UpdateBudget overwrites the mutable fields of an existing budget.
func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE budgets SET category = ?, period = ?, limit_amount = ? WHERE id = ?`,
		string(b.Category), string(b.Period), b.LimitAmount.String(), b.ID.String())
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteBudget removes a budget row.
func (r *Repository) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// BudgetByID loads a budget or core.ErrNotFound.
func (r *Repository) BudgetByID(ctx context.Context, id uuid.UUID) (core.Budget, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, user_id, category, period, limit_amount FROM budgets WHERE id = ?`,
		id.String())
	b, err := scanBudget(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Budget{}, core.ErrNotFound
		}
		return core.Budget{}, err
	}
	return b, nil
}

// BudgetExists reports whether a budget already covers the triple.
func (r *Repository) BudgetExists(ctx context.Context, userID uuid.UUID, period core.BudgetPeriod, category core.Category) (bool, error) {
	var one int
	err := r.q.QueryRowContext(ctx,
		`SELECT 1 FROM budgets WHERE user_id = ? AND period = ? AND category = ?`,
		userID.String(), string(period), string(category)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("budget exists: %w", err)
	}
	return true, nil
}

// BudgetsFor returns every budget covering the user/category pair, in a
// deterministic order so enforcement is repeatable.
func (r *Repository) BudgetsFor(ctx context.Context, userID uuid.UUID, category core.Category) ([]core.Budget, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, category, period, limit_amount FROM budgets
		 WHERE user_id = ? AND category = ? ORDER BY period`,
		userID.String(), string(category))
	if err != nil {
		return nil, fmt.Errorf("budgets for category: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

// ListBudgets returns a page of the user's budgets.
func (r *Repository) ListBudgets(ctx context.Context, userID uuid.UUID, limit, offset int) ([]core.Budget, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, user_id, category, period, limit_amount FROM budgets
		 WHERE user_id = ? ORDER BY category, period LIMIT ? OFFSET ?`,
		userID.String(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()
	return collectBudgets(rows)
}

func collectBudgets(rows *sql.Rows) ([]core.Budget, error) {
	var out []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func scanBudget(scan func(...any) error) (core.Budget, error) {
	var (
		b                          core.Budget
		id, userID, category, prd  string
		limitAmount                string
	)
	if err := scan(&id, &userID, &category, &prd, &limitAmount); err != nil {
		return core.Budget{}, err
	}

	var err error
	if b.ID, err = uuid.Parse(id); err != nil {
		return core.Budget{}, fmt.Errorf("parse budget id: %w", err)
	}
	if b.UserID, err = uuid.Parse(userID); err != nil {
		return core.Budget{}, fmt.Errorf("parse budget user id: %w", err)
	}
	b.Category = core.Category(category)
	b.Period = core.BudgetPeriod(prd)
	if b.LimitAmount, err = decimal.NewFromString(limitAmount); err != nil {
		return core.Budget{}, fmt.Errorf("parse budget limit: %w", err)
	}
	return b, nil
}
