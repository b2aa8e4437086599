package commands

import (
	"errors"
	"fmt"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

var ErrRecordTelemetryCommandIsNotConstructed = errors.New(
	"RecordTelemetryCommand must be created via NewRecordTelemetryCommand constructor",
)

// Milestone is a progress event reported by a robot along with its telemetry.
type Milestone string

const (
	// MilestoneNone is a plain position and battery reading.
	MilestoneNone Milestone = ""
	// MilestoneArrivedAtVendor starts the pickup.
	MilestoneArrivedAtVendor Milestone = "arrived_at_vendor"
	// MilestoneLoaded starts the delivery.
	MilestoneLoaded Milestone = "loaded"
)

// ParseMilestone converts a wire value into a Milestone.
func ParseMilestone(s string) (Milestone, error) {
	switch m := Milestone(s); m {
	case MilestoneNone, MilestoneArrivedAtVendor, MilestoneLoaded:
		return m, nil
	default:
		return "", errs.NewValueIsInvalidErrorWithCause("milestone is invalid",
			fmt.Errorf("%q is not a known milestone", s))
	}
}

// expectedStatus is the order status a milestone advances from.
func (m Milestone) expectedStatus() (order.Status, bool) {
	switch m {
	case MilestoneArrivedAtVendor:
		return order.RobotAssigned, true
	case MilestoneLoaded:
		return order.RobotPickingUp, true
	default:
		return "", false
	}
}

// RecordTelemetryCommand carries one telemetry reading of a robot.
type RecordTelemetryCommand struct {
	robotID      kernel.UUID
	location     kernel.Location
	batteryLevel int
	milestone    Milestone

	guard guard.ConstructorGuard
}

// NewRecordTelemetryCommand validates a telemetry reading.
func NewRecordTelemetryCommand(
	robotID kernel.UUID,
	location kernel.Location,
	batteryLevel int,
	milestone Milestone,
) (RecordTelemetryCommand, error) {
	var batteryErr error
	if batteryLevel < 0 || batteryLevel > robot.MaxBattery {
		batteryErr = errs.NewValueIsOutOfRangeError("batteryLevel", batteryLevel, 0, robot.MaxBattery)
	}
	_, milestoneErr := ParseMilestone(string(milestone))

	if err := errors.Join(robotID.Validate(), location.Validate(), batteryErr, milestoneErr); err != nil {
		return RecordTelemetryCommand{}, err
	}

	return RecordTelemetryCommand{
		robotID:      robotID,
		location:     location,
		batteryLevel: batteryLevel,
		milestone:    milestone,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c RecordTelemetryCommand) Validate() error {
	return c.guard.Validate(ErrRecordTelemetryCommandIsNotConstructed)
}

func (c RecordTelemetryCommand) RobotID() kernel.UUID      { return c.robotID }
func (c RecordTelemetryCommand) Location() kernel.Location { return c.location }
func (c RecordTelemetryCommand) BatteryLevel() int         { return c.batteryLevel }
func (c RecordTelemetryCommand) Milestone() Milestone      { return c.milestone }
