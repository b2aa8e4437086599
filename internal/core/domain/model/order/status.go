package order

import (
	"errors"
	"fmt"

	"robodelivery/internal/pkg/errs"
)

// ErrInvalidTransition is the sentinel behind every InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the lifecycle state of an order. Values are persisted and returned to
// clients verbatim, so they must never be renamed.
//
// State transitions:
//
//	pending ──┬──> vendor_approved ──> robot_assigned ──> robot_picking_up ──> robot_delivering ──> delivered
//	          │          │                   │
//	          │          └───────────────────┴──> cancelled
//	          ├──> cancelled
//	          └──> vendor_rejected
//
// vendor_rejected, delivered and cancelled are terminal.
type Status string

const (
	// Pending is the initial status of a freshly placed order.
	Pending Status = "pending"
	// VendorApproved means the vendor accepted the order and dispatch may start.
	VendorApproved Status = "vendor_approved"
	// VendorRejected is terminal: the vendor declined the order.
	VendorRejected Status = "vendor_rejected"
	// RobotAssigned means a robot was reserved for the order.
	RobotAssigned Status = "robot_assigned"
	// RobotPickingUp means the robot reached the vendor and is being loaded.
	RobotPickingUp Status = "robot_picking_up"
	// RobotDelivering means the robot is on its way; a delivery code is active.
	RobotDelivering Status = "robot_delivering"
	// Delivered is terminal: the hand-off was confirmed with the delivery code.
	Delivered Status = "delivered"
	// Cancelled is terminal: the customer withdrew the order before pickup.
	Cancelled Status = "cancelled"
)

// mainPath lists the statuses of an order that completes normally, in order.
var mainPath = []Status{Pending, VendorApproved, RobotAssigned, RobotPickingUp, RobotDelivering, Delivered}

// transitions maps every legal edge to the role that may request it.
var transitions = map[Status]map[Status]Role{
	Pending: {
		VendorApproved: RoleVendor,
		VendorRejected: RoleVendor,
		Cancelled:      RoleCustomer,
	},
	VendorApproved: {
		RobotAssigned: RoleDispatcher,
		Cancelled:     RoleCustomer,
	},
	RobotAssigned: {
		RobotPickingUp: RoleDispatcher,
		Cancelled:      RoleCustomer,
	},
	RobotPickingUp: {
		RobotDelivering: RoleDispatcher,
	},
	RobotDelivering: {
		Delivered: RoleDeliveryVerifier,
	},
}

// AllStatuses returns every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{
		Pending, VendorApproved, VendorRejected, RobotAssigned,
		RobotPickingUp, RobotDelivering, Delivered, Cancelled,
	}
}

// ParseStatus converts a persisted or client supplied value into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

// Validate checks that the status is one of the declared values.
func (s Status) Validate() error {
	for _, valid := range AllStatuses() {
		if s == valid {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid status", string(s)))
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == VendorRejected || s == Delivered || s == Cancelled
}

// HasRobot reports whether an order in status s must reference a robot.
func (s Status) HasRobot() bool {
	return s == RobotAssigned || s == RobotPickingUp || s == RobotDelivering
}

// RequiredRole returns the only role allowed to move an order into s.
// Pending has no required role since it is never a transition target.
func (s Status) RequiredRole() (Role, bool) {
	for _, edges := range transitions {
		if role, ok := edges[s]; ok {
			return role, true
		}
	}
	return "", false
}

// Next returns the legal targets from s.
func (s Status) Next() []Status {
	var next []Status
	for _, candidate := range AllStatuses() {
		if _, ok := transitions[s][candidate]; ok {
			next = append(next, candidate)
		}
	}
	return next
}

// CanTransitionTo reports whether s → target is a declared edge.
func (s Status) CanTransitionTo(target Status) bool {
	_, ok := transitions[s][target]
	return ok
}

// HasPassed reports whether target lies on the normal delivery path at or before s,
// meaning an order in s has already been through target.
func (s Status) HasPassed(target Status) bool {
	current, ok := pathIndex(s)
	if !ok {
		return false
	}
	wanted, ok := pathIndex(target)
	if !ok {
		return false
	}
	return wanted <= current
}

func pathIndex(s Status) (int, bool) {
	for i, status := range mainPath {
		if status == s {
			return i, true
		}
	}
	return 0, false
}

// InvalidTransitionError reports a request for an edge that does not exist.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func NewInvalidTransitionError(from, to Status) *InvalidTransitionError {
	return &InvalidTransitionError{From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
