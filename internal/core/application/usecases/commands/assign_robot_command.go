package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/guard"
)

var ErrAssignRobotCommandIsNotConstructed = errors.New(
	"AssignRobotCommand must be created via NewAssignRobotCommand constructor",
)

// AssignRobotCommand asks the dispatcher to reserve a robot for an approved order.
//
// Example:
//
//	cmd, _ := NewAssignRobotCommand(orderID)
//	handler := NewAssignRobotCommandHandler(uowFactory, lifecycle, dispatcher, metrics, logger, 0)
//	assigned, err := handler.Handle(ctx, cmd)
//	if errors.Is(err, ErrNoRobotAvailable) {
//	    // the order stays vendor_approved; the retry job picks it up later
//	}
type AssignRobotCommand struct {
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

// NewAssignRobotCommand creates a dispatch request for orderID.
func NewAssignRobotCommand(orderID kernel.UUID) (AssignRobotCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AssignRobotCommand{}, err
	}

	return AssignRobotCommand{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrAssignRobotCommandIsNotConstructed if validation fails.
func (c AssignRobotCommand) Validate() error {
	return c.guard.Validate(
		ErrAssignRobotCommandIsNotConstructed,
	)
}

// OrderID returns the order to dispatch.
func (c AssignRobotCommand) OrderID() kernel.UUID {
	return c.orderID
}
