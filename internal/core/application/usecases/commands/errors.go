package commands

import (
	"errors"
)

var (
	// ErrNoRobotAvailable means no robot could be claimed for an approved order. The order
	// stays vendor_approved and is retried later.
	ErrNoRobotAvailable = errors.New("no robot available")

	// ErrItemUnavailable means a requested item is unknown or out of stock.
	ErrItemUnavailable = errors.New("item is unavailable")

	// ErrVendorMismatch means a requested item is sold by another vendor.
	ErrVendorMismatch = errors.New("item belongs to another vendor")

	// ErrOrderNotAwaitingDispatch is returned by AssignRobot when the order left
	// vendor_approved. Callers treat it as a no-op.
	ErrOrderNotAwaitingDispatch = errors.New("order is not awaiting dispatch")

	// ErrNothingToAdvance is returned by AdvanceRobot when the order has no robot step to
	// take from its current status. Callers treat it as a no-op.
	ErrNothingToAdvance = errors.New("order has no robot step to advance")
)
