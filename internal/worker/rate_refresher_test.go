package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingRefresher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRefresher) Refresh(ctx context.Context) (int, error) {
	c.calls.Add(1)
	if c.err != nil {
		return 0, c.err
	}
	return 3, nil
}

func TestRateRefresherRunsOnStartup(t *testing.T) {
	refresher := &countingRefresher{}
	w := NewRateRefresher(refresher, time.Hour)

	w.Start(context.Background())
	w.Stop()

	if got := refresher.calls.Load(); got != 1 {
		t.Fatalf("refresh calls = %d, want 1", got)
	}
}

func TestRateRefresherTicks(t *testing.T) {
	refresher := &countingRefresher{}
	w := NewRateRefresher(refresher, 10*time.Millisecond)

	w.Start(context.Background())
	time.Sleep(35 * time.Millisecond)
	w.Stop()

	if got := refresher.calls.Load(); got < 2 {
		t.Fatalf("refresh calls = %d, want at least 2", got)
	}
}

func TestRateRefresherSurvivesSourceFailure(t *testing.T) {
	refresher := &countingRefresher{err: errors.New("feed down")}
	w := NewRateRefresher(refresher, 10*time.Millisecond)

	w.Start(context.Background())
	time.Sleep(25 * time.Millisecond)
	w.Stop()

	if got := refresher.calls.Load(); got < 2 {
		t.Fatalf("refresh calls = %d, want at least 2", got)
	}
}

func TestRateRefresherDefaultsInterval(t *testing.T) {
	w := NewRateRefresher(&countingRefresher{}, 0)
	if w.interval != DefaultRefreshInterval {
		t.Fatalf("interval = %v, want %v", w.interval, DefaultRefreshInterval)
	}
	w.Start(context.Background())
	w.Stop()
}
