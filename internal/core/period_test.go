package core

import (
	"errors"
	"testing"
	"time"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02T15:04:05.999999", value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return ts
}

func TestPeriodWindow(t *testing.T) {
	// 2025-07-15 is a Tuesday.
	now := mustParse(t, "2025-07-15T14:30:00")

	tests := []struct {
		period BudgetPeriod
		start  string
		end    string
	}{
		{PeriodDay, "2025-07-15T00:00:00", "2025-07-15T23:59:59.999999"},
		{PeriodWeek, "2025-07-14T00:00:00", "2025-07-20T23:59:59.999999"},
		{PeriodMonth, "2025-07-01T00:00:00", "2025-07-31T23:59:59.999999"},
		{PeriodYear, "2025-01-01T00:00:00", "2025-12-31T23:59:59.999999"},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			start, end, err := PeriodWindow(tt.period, now)
			if err != nil {
				t.Fatalf("PeriodWindow(%s): %v", tt.period, err)
			}
			if !start.Equal(mustParse(t, tt.start)) {
				t.Errorf("start = %v, want %s", start, tt.start)
			}
			if !end.Equal(mustParse(t, tt.end)) {
				t.Errorf("end = %v, want %s", end, tt.end)
			}
		})
	}
}

func TestPeriodWindowOnMonday(t *testing.T) {
	// A Monday opens its own week.
	now := mustParse(t, "2025-07-14T09:00:00")

	start, end, err := PeriodWindow(PeriodWeek, now)
	if err != nil {
		t.Fatalf("PeriodWindow(WEEK): %v", err)
	}
	if !start.Equal(mustParse(t, "2025-07-14T00:00:00")) {
		t.Errorf("start = %v, want the same Monday", start)
	}
	if !end.Equal(mustParse(t, "2025-07-20T23:59:59.999999")) {
		t.Errorf("end = %v, want Sunday 23:59:59.999999", end)
	}
}

func TestPeriodWindowYearBoundary(t *testing.T) {
	// A week spanning New Year still starts on its Monday in the old year.
	now := mustParse(t, "2026-01-01T10:00:00") // Thursday

	start, end, err := PeriodWindow(PeriodWeek, now)
	if err != nil {
		t.Fatalf("PeriodWindow(WEEK): %v", err)
	}
	if !start.Equal(mustParse(t, "2025-12-29T00:00:00")) {
		t.Errorf("start = %v, want 2025-12-29", start)
	}
	if !end.Equal(mustParse(t, "2026-01-04T23:59:59.999999")) {
		t.Errorf("end = %v, want 2026-01-04", end)
	}
}

func TestPeriodWindowUnknownPeriod(t *testing.T) {
	_, _, err := PeriodWindow(BudgetPeriod("DECADE"), time.Now())
	if err == nil {
		t.Fatal("expected an error for an unknown period")
	}
	var ie *IntegrationError
	if !errors.As(err, &ie) {
		t.Fatalf("error = %T, want *IntegrationError", err)
	}
}
