package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// OpenExchangeSource calls a JSON rates API whose table is keyed by USD.
// Every rate is rebased to RUB through the inverse of the published
// USD→RUB rate before being returned.
type OpenExchangeSource struct {
	baseURL string
	appID   string
	client  *http.Client
}

// NewOpenExchangeSource builds a source calling the latest-rates endpoint
// at baseURL, authenticated with appID.
func NewOpenExchangeSource(baseURL, appID string) *OpenExchangeSource {
	return &OpenExchangeSource{baseURL: baseURL, appID: appID, client: newHTTPClient()}
}

func (s *OpenExchangeSource) Name() string { return string(core.OpenExchange) }

type openExchangeResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Fetch downloads the USD-pivoted table and rebases it to RUB.
func (s *OpenExchangeSource) Fetch(ctx context.Context) ([]core.ExchangeRate, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("app_id", s.appID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rates: unexpected status %d", resp.StatusCode)
	}

	var payload openExchangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rates response: %w", err)
	}

	return rebaseToRub(payload.Rates, time.Now().UTC())
}

func rebaseToRub(usdRates map[string]decimal.Decimal, now time.Time) ([]core.ExchangeRate, error) {
	rubPerUsd, ok := usdRates[string(core.PivotCurrency)]
	if !ok || rubPerUsd.IsZero() {
		return nil, fmt.Errorf("response has no usable %s rate to rebase against", core.PivotCurrency)
	}
	usdToRub := decimal.NewFromInt(1).DivRound(rubPerUsd, core.RateScale)

	out := make([]core.ExchangeRate, 0, len(usdRates))
	for code, perUsd := range usdRates {
		currency, err := core.ParseCurrency(code)
		if err != nil {
			// The feed carries a few non-ISO entries; skip them.
			continue
		}
		out = append(out, core.ExchangeRate{
			Currency:  currency,
			Name:      code,
			Value:     perUsd.Mul(usdToRub),
			Source:    core.OpenExchange,
			UpdatedAt: now,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rates response contained no currencies")
	}
	return out, nil
}
