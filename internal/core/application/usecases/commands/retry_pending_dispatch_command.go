package commands

import (
	"errors"

	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

var ErrRetryPendingDispatchCommandIsNotConstructed = errors.New(
	"RetryPendingDispatchCommand must be created via NewRetryPendingDispatchCommand constructor",
)

// RetryPendingDispatchCommand re-runs dispatch for approved orders still waiting for a robot.
type RetryPendingDispatchCommand struct {
	limit int

	guard guard.ConstructorGuard
}

// NewRetryPendingDispatchCommand creates a retry sweep over at most limit orders,
// oldest first. limit must be in [1..ports.MaxPageLimit].
func NewRetryPendingDispatchCommand(limit int) (RetryPendingDispatchCommand, error) {
	if limit < 1 || limit > ports.MaxPageLimit {
		return RetryPendingDispatchCommand{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, ports.MaxPageLimit)
	}

	return RetryPendingDispatchCommand{
		limit: limit,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c RetryPendingDispatchCommand) Validate() error {
	return c.guard.Validate(ErrRetryPendingDispatchCommandIsNotConstructed)
}

// Limit returns the maximum number of orders to look at.
func (c RetryPendingDispatchCommand) Limit() int {
	return c.limit
}
