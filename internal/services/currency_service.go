package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"kopilka/internal/cache"
	"kopilka/internal/core"
	applog "kopilka/internal/log"
	"kopilka/internal/rates"
)

// CurrencyService resolves exchange rates and converts transaction amounts
// into a user's base currency. Rates are quoted against the ruble pivot.
type CurrencyService struct {
	store   Store
	sources []rates.Source
	cache   cache.Cache[core.ExchangeRate]
}

func NewCurrencyService(store Store, sources []rates.Source) *CurrencyService {
	return &CurrencyService{store: store, sources: sources}
}

// WithCache makes GetRate serve resolved rates from c. Refreshed currencies
// are invalidated when new rows land, so the TTL only bounds staleness
// between refreshes.
func (s *CurrencyService) WithCache(c cache.Cache[core.ExchangeRate]) *CurrencyService {
	s.cache = c
	return s
}

// GetRate returns the freshest known rate for currency. The central bank
// feed wins when it has any row; the open-exchange feed is a fallback.
func (s *CurrencyService) GetRate(ctx context.Context, currency core.Currency) (core.ExchangeRate, error) {
	if s.cache != nil {
		if rate, ok := s.cache.Get(string(currency)); ok {
			return rate, nil
		}
	}
	rate, err := s.store.LatestRate(ctx, currency, core.CentralBank)
	if err != nil {
		if !isRateNotFound(err) {
			return core.ExchangeRate{}, fmt.Errorf("latest central bank rate: %w", err)
		}
		rate, err = s.store.LatestRate(ctx, currency, core.OpenExchange)
		if err != nil {
			if isRateNotFound(err) {
				return core.ExchangeRate{}, core.ErrRateNotFound
			}
			return core.ExchangeRate{}, fmt.Errorf("latest open exchange rate: %w", err)
		}
	}
	if s.cache != nil {
		s.cache.Set(string(currency), rate)
	}
	return rate, nil
}

// ToBaseCurrency converts amount from its original currency into base.
// Both currencies resolve through the ruble pivot; a ruble base multiplies
// by the original currency's rate directly.
func (s *CurrencyService) ToBaseCurrency(ctx context.Context, amount decimal.Decimal, from, base core.Currency) (decimal.Decimal, error) {
	if from == base {
		return amount, nil
	}
	fromRate := decimal.NewFromInt(1)
	if from != core.PivotCurrency {
		r, err := s.GetRate(ctx, from)
		if err != nil {
			return decimal.Decimal{}, err
		}
		fromRate = r.Value
	}
	inPivot := amount.Mul(fromRate)
	if base == core.PivotCurrency {
		return inPivot, nil
	}
	baseRate, err := s.GetRate(ctx, base)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return inPivot.DivRound(baseRate.Value, core.AmountScale), nil
}

// Refresh pulls rates from the configured sources in order and appends
// every fetched row. One source succeeding is enough; all sources failing
// surfaces an integration error.
func (s *CurrencyService) Refresh(ctx context.Context) (int, error) {
	var lastErr error
	for _, src := range s.sources {
		fetched, err := src.Fetch(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Rate source fetch failed",
				applog.FieldRateSource, src.Name(), "error", err)
			lastErr = err
			continue
		}
		if len(fetched) == 0 {
			slog.WarnContext(ctx, "Rate source returned no rates", applog.FieldRateSource, src.Name())
			continue
		}
		if err := s.store.AppendRates(ctx, fetched); err != nil {
			return 0, fmt.Errorf("append rates from %s: %w", src.Name(), err)
		}
		if s.cache != nil {
			for _, r := range fetched {
				s.cache.Delete(string(r.Currency))
			}
		}
		slog.InfoContext(ctx, "Exchange rates refreshed",
			applog.FieldRateSource, src.Name(), "count", len(fetched))
		return len(fetched), nil
	}
	if lastErr != nil {
		return 0, &core.IntegrationError{Op: "refresh rates", Err: lastErr}
	}
	return 0, nil
}

func isRateNotFound(err error) bool {
	return errors.Is(err, core.ErrRateNotFound)
}
