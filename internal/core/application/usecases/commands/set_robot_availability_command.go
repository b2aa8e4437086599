package commands

import (
	"errors"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/guard"
)

var ErrSetRobotAvailabilityCommandIsNotConstructed = errors.New(
	"SetRobotAvailabilityCommand must be created via NewSetRobotAvailabilityCommand constructor",
)

// SetRobotAvailabilityCommand takes an idle robot out of service (maintenance, offline)
// or puts it back to idle.
type SetRobotAvailabilityCommand struct {
	robotID kernel.UUID
	status  robot.Status

	guard guard.ConstructorGuard
}

// NewSetRobotAvailabilityCommand validates the request.
func NewSetRobotAvailabilityCommand(robotID kernel.UUID, status robot.Status) (SetRobotAvailabilityCommand, error) {
	if err := errors.Join(robotID.Validate(), status.Validate()); err != nil {
		return SetRobotAvailabilityCommand{}, err
	}

	return SetRobotAvailabilityCommand{
		robotID: robotID,
		status:  status,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c SetRobotAvailabilityCommand) Validate() error {
	return c.guard.Validate(ErrSetRobotAvailabilityCommandIsNotConstructed)
}

func (c SetRobotAvailabilityCommand) RobotID() kernel.UUID { return c.robotID }
func (c SetRobotAvailabilityCommand) Status() robot.Status { return c.status }
