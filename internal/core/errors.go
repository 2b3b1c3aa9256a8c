package core

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinel errors for the failure modes callers are expected to branch on.
// Services wrap these with context via fmt.Errorf("...: %w", err); transport
// layers map them to status codes with errors.Is.
var (
	// ErrNotFound reports an absent entity (user, transaction, budget, job).
	ErrNotFound = errors.New("entity not found")

	// ErrNoRights reports an attempt to touch another user's entity.
	ErrNoRights = errors.New("no rights to access entity")

	// ErrInsufficientFunds reports an expense larger than the user's balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrRateNotFound reports that no source has a rate for a currency.
	ErrRateNotFound = errors.New("currency rate not found")

	// ErrBadData reports malformed user input, such as a broken import row.
	ErrBadData = errors.New("bad data")

	// ErrEmptyRequest reports a partial update with no fields set.
	ErrEmptyRequest = errors.New("empty update request")
)

// BudgetLimitExceededError aborts a settlement whose projected consumption
// overshoots a budget limit. Remaining is the allowance that was still
// available before the rejected transaction.
type BudgetLimitExceededError struct {
	Period    BudgetPeriod
	Category  Category
	Remaining decimal.Decimal
}

func (e *BudgetLimitExceededError) Error() string {
	return fmt.Sprintf("%s budget limit exceeded for category %s, remaining allowance %s",
		e.Period, e.Category, e.Remaining.StringFixed(2))
}

// IntegrationError reports an upstream-dependency failure: an unresolvable
// period computation, a broken rate feed, a failed import bootstrap. It is
// never a user error.
type IntegrationError struct {
	Op  string
	Err error
}

func (e *IntegrationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("integration failure: %s", e.Op)
	}
	return fmt.Sprintf("integration failure: %s: %v", e.Op, e.Err)
}

func (e *IntegrationError) Unwrap() error { return e.Err }
