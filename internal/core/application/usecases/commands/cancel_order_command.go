package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

var ErrCancelOrderCommandIsNotConstructed = errors.New(
	"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
)

// CancelOrderCommand is a customer withdrawing an order. Allowed while the order is
// pending, vendor_approved or robot_assigned.
type CancelOrderCommand struct { //nolint:recvcheck //using for validation
	orderID  kernel.UUID
	customer order.Actor
	reason   string

	guard guard.ConstructorGuard
}

// NewCancelOrderCommand creates a cancellation request.
func NewCancelOrderCommand(orderID kernel.UUID, customer order.Actor, reason string) (CancelOrderCommand, error) {
	command := CancelOrderCommand{
		reason: reason,
		guard:  guard.NewConstructorGuard(),
	}

	if err := orderID.Validate(); err != nil {
		return CancelOrderCommand{}, err
	}
	if customer.Role() != order.RoleCustomer {
		return CancelOrderCommand{}, errs.NewForbiddenError("only customers may cancel orders")
	}

	command.orderID = orderID
	command.customer = customer
	return command, nil
}

// Validate ensures the command was created through the constructor.
func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}

func (c CancelOrderCommand) OrderID() kernel.UUID  { return c.orderID }
func (c CancelOrderCommand) Customer() order.Actor { return c.customer }
func (c CancelOrderCommand) Reason() string        { return c.reason }
