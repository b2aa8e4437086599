package commands

import (
	"context"

	"robodelivery/internal/core/domain/model/order"
)

// CancelOrderCommandHandler cancels orders. A robot reserved for the order is released
// in the same unit of work as the status change.
//
// Cancelling an order that is already cancelled is a Conflict; cancelling after pickup
// started is an InvalidTransition.
type CancelOrderCommandHandler struct {
	lifecycle *OrderLifecycle
}

// NewCancelOrderCommandHandler creates a handler for cancellations.
func NewCancelOrderCommandHandler(lifecycle *OrderLifecycle) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		lifecycle: lifecycle,
	}
}

// Handle cancels the order and returns it.
func (h *CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.lifecycle.Transition(ctx, TransitionRequest{
		OrderID: cmd.OrderID(),
		Target:  order.Cancelled,
		Actor:   cmd.Customer(),
		Notes:   cmd.Reason(),
	})
}
