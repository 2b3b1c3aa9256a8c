// Package rates fetches exchange-rate tables from external providers. Every
// source returns rates expressed against the pivot currency (RUB) at
// six-digit precision; persistence and resolution live in storage and the
// currency service.
package rates

import (
	"context"
	"net/http"
	"time"

	"kopilka/internal/core"
)

// Source fetches a full rate table from one provider.
type Source interface {
	// Name identifies the provider in logs.
	Name() string
	// Fetch returns the complete table, tagged with the provider's
	// core.RateSource and a fresh timestamp.
	Fetch(ctx context.Context) ([]core.ExchangeRate, error)
}

// defaultTimeout bounds a single provider round trip.
const defaultTimeout = 15 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
