// Package worker runs background loops beside the HTTP surface.
package worker

import (
	"context"
	"log/slog"
	"time"
)

// Refresher pulls exchange rates from the configured sources.
type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

// RateRefresher periodically refreshes the exchange-rate table. An initial
// refresh runs at startup so a fresh deployment can convert immediately.
type RateRefresher struct {
	currency Refresher
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// DefaultRefreshInterval matches the daily cadence of the central bank feed.
const DefaultRefreshInterval = 24 * time.Hour

func NewRateRefresher(currency Refresher, interval time.Duration) *RateRefresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &RateRefresher{
		currency: currency,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the refresh loop. It returns immediately; Stop waits for
// an in-flight refresh to finish.
func (w *RateRefresher) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *RateRefresher) run(ctx context.Context) {
	defer close(w.doneCh)

	slog.InfoContext(ctx, "Rate refresher started", "interval", w.interval)
	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *RateRefresher) refresh(ctx context.Context) {
	count, err := w.currency.Refresh(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Rate refresh failed", "error", err)
		return
	}
	slog.InfoContext(ctx, "Rate refresh complete", "count", count)
}

// Stop terminates the loop and blocks until it exits.
func (w *RateRefresher) Stop() {
	close(w.stopCh)
	<-w.doneCh
}
