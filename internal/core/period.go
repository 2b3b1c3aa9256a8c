package core

import (
	"time"
)

// windowSlack is how far the inclusive end of a period window sits before
// the start of the next period: 23:59:59.999999 on the last day.
const windowSlack = time.Microsecond

// PeriodWindow resolves a budget period to the concrete [start, end] range
// it covers relative to now. Windows are anchored to the wall clock, not to
// any transaction's own timestamp:
//
//	DAY   [today 00:00:00, today 23:59:59.999999]
//	WEEK  [most recent Monday 00:00:00, following Sunday 23:59:59.999999]
//	MONTH [1st of month 00:00:00, last day of month 23:59:59.999999]
//	YEAR  [Jan 1 00:00:00, Dec 31 23:59:59.999999]
//
// An unknown period is a programmer error, reported as *IntegrationError
// rather than user-facing validation.
func PeriodWindow(period BudgetPeriod, now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var start, next time.Time
	switch period {
	case PeriodDay:
		start = day
		next = day.AddDate(0, 0, 1)
	case PeriodWeek:
		// time.Weekday numbers Sunday as 0; shift so Monday opens the week.
		offset := (int(day.Weekday()) + 6) % 7
		start = day.AddDate(0, 0, -offset)
		next = start.AddDate(0, 0, 7)
	case PeriodMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
		next = start.AddDate(0, 1, 0)
	case PeriodYear:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, now.Location())
		next = start.AddDate(1, 0, 0)
	default:
		return time.Time{}, time.Time{}, &IntegrationError{
			Op: "resolve budget period window for " + string(period),
		}
	}
	return start, next.Add(-windowSlack), nil
}
