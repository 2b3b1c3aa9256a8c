package rates

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"

	"kopilka/internal/core"
)

// CentralBankSource scrapes the central bank's published HTML rate table.
// The table lists one row per currency: numeric code, char code, units,
// name, and the price of that many units in RUB with a comma decimal
// separator.
type CentralBankSource struct {
	url    string
	client *http.Client
}

// NewCentralBankSource builds a source reading the rate table at url.
func NewCentralBankSource(url string) *CentralBankSource {
	return &CentralBankSource{url: url, client: newHTTPClient()}
}

func (s *CentralBankSource) Name() string { return string(core.CentralBank) }

// Fetch downloads and parses the rate table. Rates are rebased to one
// currency unit (value divided by units) at six-digit precision.
func (s *CentralBankSource) Fetch(ctx context.Context) ([]core.ExchangeRate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rate table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rate table: unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse rate page: %w", err)
	}

	return parseCentralBankTable(doc, time.Now().UTC())
}

func parseCentralBankTable(doc *goquery.Document, now time.Time) ([]core.ExchangeRate, error) {
	table := doc.Find("table.data").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("rate table not found in page")
	}

	var (
		out     []core.ExchangeRate
		rowErr  error
	)
	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cols := row.Find("td")
		if cols.Length() == 0 {
			// Header row.
			return true
		}
		if cols.Length() < 5 {
			rowErr = fmt.Errorf("rate row has %d columns, want 5", cols.Length())
			return false
		}

		charCode := strings.TrimSpace(cols.Eq(1).Text())
		unitsText := strings.TrimSpace(cols.Eq(2).Text())
		name := strings.TrimSpace(cols.Eq(3).Text())
		valueText := strings.ReplaceAll(strings.TrimSpace(cols.Eq(4).Text()), ",", ".")

		currency, err := core.ParseCurrency(charCode)
		if err != nil {
			rowErr = fmt.Errorf("bad currency code %q", charCode)
			return false
		}
		units, err := strconv.ParseInt(unitsText, 10, 64)
		if err != nil || units <= 0 {
			rowErr = fmt.Errorf("bad unit count %q for %s", unitsText, currency)
			return false
		}
		value, err := decimal.NewFromString(valueText)
		if err != nil {
			rowErr = fmt.Errorf("bad rate value %q for %s", valueText, currency)
			return false
		}

		out = append(out, core.ExchangeRate{
			Currency:  currency,
			Name:      name,
			Value:     value.DivRound(decimal.NewFromInt(units), core.RateScale),
			Source:    core.CentralBank,
			UpdatedAt: now,
		})
		return true
	})
	if rowErr != nil {
		return nil, rowErr
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("rate table contained no currency rows")
	}
	return out, nil
}
