package commands

import (
	"errors"
	"fmt"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

var ErrAdvanceRobotCommandIsNotConstructed = errors.New(
	"AdvanceRobotCommand must be created via NewAdvanceRobotCommand constructor",
)

// AdvanceRobotCommand moves an order one robot step forward: robot_assigned to
// robot_picking_up, or robot_picking_up to robot_delivering.
//
// When from is set the step is only taken if the order is still in from, which makes
// repeated telemetry milestones harmless.
type AdvanceRobotCommand struct {
	orderID kernel.UUID
	from    *order.Status

	guard guard.ConstructorGuard
}

// NewAdvanceRobotCommand creates an unconditional advance request.
func NewAdvanceRobotCommand(orderID kernel.UUID) (AdvanceRobotCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AdvanceRobotCommand{}, err
	}

	return AdvanceRobotCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// NewAdvanceRobotCommandFrom creates an advance request that only applies in status from.
func NewAdvanceRobotCommandFrom(orderID kernel.UUID, from order.Status) (AdvanceRobotCommand, error) {
	cmd, err := NewAdvanceRobotCommand(orderID)
	if err != nil {
		return AdvanceRobotCommand{}, err
	}
	if _, ok := robotSteps[from]; !ok {
		return AdvanceRobotCommand{}, errs.NewValueIsInvalidErrorWithCause("from is invalid",
			fmt.Errorf("no robot step starts at %s", from))
	}

	cmd.from = &from
	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AdvanceRobotCommand) Validate() error {
	return c.guard.Validate(ErrAdvanceRobotCommandIsNotConstructed)
}

// OrderID returns the order to advance.
func (c AdvanceRobotCommand) OrderID() kernel.UUID {
	return c.orderID
}

// From returns the required current status, if any.
func (c AdvanceRobotCommand) From() (order.Status, bool) {
	if c.from == nil {
		return "", false
	}
	return *c.from, true
}
