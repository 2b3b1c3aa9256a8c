package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// AppendRates inserts a fresh batch of rate rows. Existing rows are never
// touched: the table is an append-only time series and resolution always
// reads the most recent row per (currency, source).
func (r *Repository) AppendRates(ctx context.Context, rates []core.ExchangeRate) error {
	for _, rate := range rates {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO currency_rates (currency, name, value, source, updated_at)
			 VALUES (?, ?, ?, ?, ?)`,
			string(rate.Currency), rate.Name, rate.Value.String(),
			string(rate.Source), rate.UpdatedAt.UnixMicro())
		if err != nil {
			return fmt.Errorf("insert rate %s/%s: %w", rate.Currency, rate.Source, err)
		}
	}
	return nil
}

// LatestRate returns the most recent rate row for a currency from one
// source, or core.ErrRateNotFound when the source has never published it.
func (r *Repository) LatestRate(ctx context.Context, currency core.Currency, source core.RateSource) (core.ExchangeRate, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT currency, name, value, source, updated_at FROM currency_rates
		 WHERE currency = ? AND source = ?
		 ORDER BY updated_at DESC, id DESC LIMIT 1`,
		string(currency), string(source))

	var (
		rate          core.ExchangeRate
		cur, src, val string
		updatedMicros int64
	)
	if err := row.Scan(&cur, &rate.Name, &val, &src, &updatedMicros); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.ExchangeRate{}, core.ErrRateNotFound
		}
		return core.ExchangeRate{}, fmt.Errorf("scan rate: %w", err)
	}

	rate.Currency = core.Currency(cur)
	rate.Source = core.RateSource(src)
	var err error
	if rate.Value, err = decimal.NewFromString(val); err != nil {
		return core.ExchangeRate{}, fmt.Errorf("parse rate value: %w", err)
	}
	rate.UpdatedAt = time.UnixMicro(updatedMicros).UTC()
	return rate, nil
}
