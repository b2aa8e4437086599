package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

var ErrConfirmDeliveryCommandIsNotConstructed = errors.New(
	"ConfirmDeliveryCommand must be created via NewConfirmDeliveryCommand constructor",
)

// ConfirmDeliveryCommand is the hand-off: the caller presents the delivery code shown to
// the customer. Only the order's customer or an operator may confirm.
type ConfirmDeliveryCommand struct {
	orderID kernel.UUID
	code    otp.Code
	caller  order.Actor

	guard guard.ConstructorGuard
}

// NewConfirmDeliveryCommand validates the shape of the request. Whether the code matches
// is decided by the handler.
func NewConfirmDeliveryCommand(orderID kernel.UUID, code string, caller order.Actor) (ConfirmDeliveryCommand, error) {
	parsed, codeErr := otp.ParseCode(code)

	var callerErr error
	if caller.Role() != order.RoleCustomer && caller.Role() != order.RoleOperator {
		callerErr = errs.NewForbiddenError("only the customer or an operator may confirm a delivery")
	}

	if err := errors.Join(orderID.Validate(), codeErr, callerErr); err != nil {
		return ConfirmDeliveryCommand{}, err
	}

	return ConfirmDeliveryCommand{
		orderID: orderID,
		code:    parsed,
		caller:  caller,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c ConfirmDeliveryCommand) Validate() error {
	return c.guard.Validate(ErrConfirmDeliveryCommandIsNotConstructed)
}

func (c ConfirmDeliveryCommand) OrderID() kernel.UUID { return c.orderID }
func (c ConfirmDeliveryCommand) Code() otp.Code       { return c.code }
func (c ConfirmDeliveryCommand) Caller() order.Actor  { return c.caller }
