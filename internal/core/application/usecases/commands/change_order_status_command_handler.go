package commands

import (
	"context"

	"robodelivery/internal/core/domain/model/order"
)

// ChangeOrderStatusCommandHandler routes client status changes through the lifecycle.
type ChangeOrderStatusCommandHandler struct {
	lifecycle *OrderLifecycle
}

// NewChangeOrderStatusCommandHandler creates a handler for client status changes.
func NewChangeOrderStatusCommandHandler(lifecycle *OrderLifecycle) ChangeOrderStatusCommandHandler {
	return ChangeOrderStatusCommandHandler{
		lifecycle: lifecycle,
	}
}

// Handle applies the status change and returns the updated order.
func (h *ChangeOrderStatusCommandHandler) Handle(
	ctx context.Context,
	cmd ChangeOrderStatusCommand,
) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return h.lifecycle.Transition(ctx, TransitionRequest{
		OrderID: cmd.OrderID(),
		Target:  cmd.Target(),
		Actor:   cmd.Actor(),
		Notes:   cmd.Notes(),
	})
}
