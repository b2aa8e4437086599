package commands

import (
	"context"
	"errors"
	"log/slog"

	"robodelivery/internal/core/domain/model/order"
)

// RobotAssigner reserves a robot for one approved order.
type RobotAssigner interface {
	Handle(ctx context.Context, cmd AssignRobotCommand) (*order.Order, error)
}

// RetryPendingDispatchCommandHandler sweeps vendor_approved orders, oldest first, and
// tries to dispatch each of them.
type RetryPendingDispatchCommandHandler struct {
	uowFactory OrderUoWFactory
	assigner   RobotAssigner
	logger     *slog.Logger
}

// NewRetryPendingDispatchCommandHandler creates a retry sweep handler.
func NewRetryPendingDispatchCommandHandler(
	uowFactory OrderUoWFactory,
	assigner RobotAssigner,
	logger *slog.Logger,
) RetryPendingDispatchCommandHandler {
	return RetryPendingDispatchCommandHandler{
		uowFactory: uowFactory,
		assigner:   assigner,
		logger:     logger.With("component", "RetryPendingDispatchCommandHandler"),
	}
}

// Handle returns how many orders got a robot. Orders without a fitting robot are
// skipped, not fatal: a smaller order further down the list may still fit. Unexpected
// failures are collected and returned together after the sweep.
func (h *RetryPendingDispatchCommandHandler) Handle(ctx context.Context, cmd RetryPendingDispatchCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	pending, err := h.uowFactory.Create().OrderRepository().ListByStatus(ctx, order.VendorApproved, cmd.Limit())
	if err != nil {
		return 0, err
	}

	var (
		assigned int
		errList  []error
	)
	for _, o := range pending {
		if err = ctx.Err(); err != nil {
			return assigned, err
		}

		assign, err := NewAssignRobotCommand(o.ID())
		if err != nil {
			return assigned, err
		}

		_, err = h.assigner.Handle(ctx, assign)
		switch {
		case err == nil:
			assigned++
		case errors.Is(err, ErrNoRobotAvailable), errors.Is(err, ErrOrderNotAwaitingDispatch):
			continue
		default:
			h.logger.ErrorContext(ctx, "dispatch retry failed", "order_id", o.ID().String(), "error", err)
			errList = append(errList, err)
		}
	}

	return assigned, errors.Join(errList...)
}
