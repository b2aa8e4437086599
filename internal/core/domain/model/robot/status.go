package robot

import (
	"fmt"

	"robodelivery/internal/pkg/errs"
)

// Status is the operational state of a robot.
type Status string

const (
	Idle        Status = "idle"
	Assigned    Status = "assigned"
	PickingUp   Status = "picking_up"
	Delivering  Status = "delivering"
	Maintenance Status = "maintenance"
	Offline     Status = "offline"
)

// AllStatuses returns every valid robot status.
func AllStatuses() []Status {
	return []Status{Idle, Assigned, PickingUp, Delivering, Maintenance, Offline}
}

// ParseStatus converts a stored value into a Status.
func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

func (s Status) Validate() error {
	for _, valid := range AllStatuses() {
		if s == valid {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%q is not a valid robot status", string(s)))
}

func (s Status) String() string {
	return string(s)
}

// IsBusy reports whether the robot is serving an order in s.
func (s Status) IsBusy() bool {
	return s == Assigned || s == PickingUp || s == Delivering
}
