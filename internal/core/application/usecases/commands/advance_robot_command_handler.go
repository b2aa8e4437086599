package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"
)

// robotStep pairs the next order status with the matching robot phase change.
type robotStep struct {
	target order.Status
	apply  func(r *robot.Robot, orderID kernel.UUID, now time.Time) error
}

var robotSteps = map[order.Status]robotStep{
	order.RobotAssigned:  {target: order.RobotPickingUp, apply: (*robot.Robot).StartPickup},
	order.RobotPickingUp: {target: order.RobotDelivering, apply: (*robot.Robot).StartDelivery},
}

// AdvanceRobotCommandHandler moves robot and order forward together. Entering
// robot_delivering issues the delivery code through the lifecycle.
type AdvanceRobotCommandHandler struct {
	uowFactory UoWFactory
	lifecycle  *OrderLifecycle
	logger     *slog.Logger
}

// NewAdvanceRobotCommandHandler creates a handler for robot progress.
func NewAdvanceRobotCommandHandler(
	uowFactory UoWFactory,
	lifecycle *OrderLifecycle,
	logger *slog.Logger,
) AdvanceRobotCommandHandler {
	return AdvanceRobotCommandHandler{
		uowFactory: uowFactory,
		lifecycle:  lifecycle,
		logger:     logger.With("component", "AdvanceRobotCommandHandler"),
	}
}

// Handle takes the next robot step for the order.
//
// Returns ErrNothingToAdvance when the order is terminal, not yet dispatched, already
// delivering or no longer in the status the command expects. The robot is re-checked
// against the order; a robot that no longer serves it is an errs.ConflictError.
func (h *AdvanceRobotCommandHandler) Handle(ctx context.Context, cmd AdvanceRobotCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	current := o.Status()
	if from, ok := cmd.From(); ok && from != current {
		return nil, fmt.Errorf("%w: expected %s, status is %s", ErrNothingToAdvance, from, current)
	}

	step, ok := robotSteps[current]
	if !ok {
		return nil, fmt.Errorf("%w: status is %s", ErrNothingToAdvance, current)
	}

	robotID := o.RobotID()
	if robotID == nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("robotID is invalid",
			fmt.Errorf("order %s in %s has no robot", o.ID(), current))
	}

	robots := uow.RobotRepository()
	r, err := robots.Get(ctx, *robotID)
	if err != nil {
		return nil, err
	}
	if !r.IsServing(o.ID()) {
		return nil, errs.NewConflictErrorWithCause("robot", r.ID(), "serving order "+o.ID().String(),
			fmt.Errorf("robot is %s", r.Status()))
	}

	previous := r.Status()
	if err = step.apply(r, o.ID(), h.lifecycle.Now()); err != nil {
		return nil, err
	}
	if err = robots.UpdateIfStatus(ctx, r, previous); err != nil {
		return nil, err
	}

	applied, err := h.lifecycle.TransitionTx(ctx, uow, TransitionRequest{
		OrderID: o.ID(),
		Target:  step.target,
		Actor:   order.Dispatcher(),
	})
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.lifecycle.Complete(ctx, applied)
	h.logger.DebugContext(ctx, "robot advanced",
		"order_id", o.ID().String(), "robot_id", r.ID().String(), "robot_status", r.Status().String())
	return applied.Order, nil
}
