// Package notify pushes best-effort notifications to user-facing
// subscribers. Delivery is fire-and-forget: a failed publish is the
// caller's to log, never to propagate into the owning operation.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Notifier publishes a payload on a topic, at-least-once, best-effort.
type Notifier interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// BudgetAlert is pushed when consumption crosses the warning threshold or
// exceeds a limit. RemainingAmount is zero on exceedance.
type BudgetAlert struct {
	Message         string          `json:"message"`
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
	Category        string          `json:"category"`
}

// JobNotice is pushed when a batch import finishes, successfully or not.
type JobNotice struct {
	Message string `json:"message"`
}

// BudgetTopic is the per-user routing key for budget alerts.
func BudgetTopic(userID uuid.UUID) string {
	return fmt.Sprintf("users.%s.budget", userID)
}

// JobsTopic is the per-user routing key for import-job notices.
func JobsTopic(userID uuid.UUID) string {
	return fmt.Sprintf("users.%s.jobs", userID)
}

// LogNotifier writes notifications to the log instead of a broker. It is
// the fallback when no AMQP URL is configured, and keeps single-binary
// setups working.
type LogNotifier struct{}

func (LogNotifier) Publish(ctx context.Context, topic string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	slog.InfoContext(ctx, "Notification (log only)", "topic", topic, "payload", string(body))
	return nil
}
