// Package lognotifier writes order events to the application log. It is the notifier
// used when no message broker is configured.
package lognotifier

import (
	"context"
	"log/slog"

	"robodelivery/internal/core/ports"
)

type Notifier struct {
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger.With("component", "lognotifier")}
}

// Notify logs one line per recipient. The delivery code is only logged for the customer.
func (n *Notifier) Notify(ctx context.Context, event ports.OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attrs := []any{
		"event_type", string(event.Type),
		"order_id", event.OrderID.String(),
		"from", event.From.String(),
		"to", event.To.String(),
		"total_amount", event.TotalAmount.StringFixed(2),
	}
	if event.RobotID != nil {
		attrs = append(attrs, "robot_id", event.RobotID.String())
	}

	for _, recipient := range event.Recipients {
		args := append([]any{"recipient_role", string(recipient.Role), "recipient_id", recipient.ID.String()}, attrs...)
		if event.DeliveryCode != "" && recipient.ID.IsEqual(event.CustomerID) {
			args = append(args, "delivery_code", event.DeliveryCode)
		}
		n.logger.InfoContext(ctx, "order notification", args...)
	}
	return nil
}
