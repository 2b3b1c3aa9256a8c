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

// CreateUser inserts a new user row.
func (r *Repository) CreateUser(ctx context.Context, u core.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (id, username, balance, base_currency) VALUES (?, ?, ?, ?)`,
		u.ID.String(), u.Username, u.Balance.String(), string(u.BaseCurrency))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UserByID loads a user or core.ErrNotFound.
func (r *Repository) UserByID(ctx context.Context, id uuid.UUID) (core.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, username, balance, base_currency FROM users WHERE id = ?`, id.String())
	return scanUser(row)
}

// UserByUsername loads a user or core.ErrNotFound.
func (r *Repository) UserByUsername(ctx context.Context, username string) (core.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, username, balance, base_currency FROM users WHERE username = ?`, username)
	return scanUser(row)
}

// SaveUserBalance persists a new running balance.
func (r *Repository) SaveUserBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE users SET balance = ? WHERE id = ?`, balance.String(), id.String())
	if err != nil {
		return fmt.Errorf("update balance: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanUser(row *sql.Row) (core.User, error) {
	var (
		u                 core.User
		id, balance, base string
	)
	if err := row.Scan(&id, &u.Username, &balance, &base); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, core.ErrNotFound
		}
		return core.User{}, fmt.Errorf("scan user: %w", err)
	}

	var err error
	if u.ID, err = uuid.Parse(id); err != nil {
		return core.User{}, fmt.Errorf("parse user id: %w", err)
	}
	if u.Balance, err = decimal.NewFromString(balance); err != nil {
		return core.User{}, fmt.Errorf("parse user balance: %w", err)
	}
	u.BaseCurrency = core.Currency(base)
	return u, nil
}
