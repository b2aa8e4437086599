package commands

import (
	"errors"
	"strings"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

var (
	ErrCreateRobotCommandIsNotConstructed = errors.New(
		"CreateRobotCommand must be created via NewCreateRobotCommand constructor",
	)
	ErrSpeedIsInvalid    = errors.New("speed must be greater than 0")
	ErrCapacityIsInvalid = errors.New("capacity must be greater than 0")
)

// CreateRobotCommand represents an operator adding a robot to the fleet.
// The robot starts idle, empty and freshly maintained.
//
// Example:
//
//	location, _ := kernel.NewLocation(52.5200, 13.4050)
//	capacity, _ := robot.NewPayload(15, 40)
//	cmd, err := NewCreateRobotCommand("RB-07", location, 100, capacity, 6)
//	if err != nil {
//	    return fmt.Errorf("invalid robot data: %w", err)
//	}
//
//	handler := NewCreateRobotCommandHandler(uowFactory, clock)
//	created, err := handler.Handle(ctx, cmd)
type CreateRobotCommand struct { //nolint:recvcheck //using for validation
	robotID      kernel.UUID
	name         string
	location     kernel.Location
	batteryLevel int
	capacity     robot.Payload
	speedKmh     float64

	guard guard.ConstructorGuard
}

// NewCreateRobotCommand creates a command to provision a robot.
// Automatically generates a unique ID for the robot.
func NewCreateRobotCommand(
	name string,
	location kernel.Location,
	batteryLevel int,
	capacity robot.Payload,
	speedKmh float64,
) (CreateRobotCommand, error) {
	command := CreateRobotCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setRobotID(kernel.NewUUID()),
		command.setName(name),
		command.setLocation(location),
		command.setBatteryLevel(batteryLevel),
		command.setCapacity(capacity),
		command.setSpeed(speedKmh),
	); err != nil {
		return CreateRobotCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateRobotCommandIsNotConstructed if validation fails.
func (c CreateRobotCommand) Validate() error {
	return c.guard.Validate(ErrCreateRobotCommandIsNotConstructed)
}

// RobotID returns the robot ID from the command.
func (c CreateRobotCommand) RobotID() kernel.UUID {
	return c.robotID
}

// Name returns the robot name from the command.
func (c CreateRobotCommand) Name() string {
	return c.name
}

// Location returns the robot's starting location.
func (c CreateRobotCommand) Location() kernel.Location {
	return c.location
}

// BatteryLevel returns the starting battery level.
func (c CreateRobotCommand) BatteryLevel() int {
	return c.batteryLevel
}

// Capacity returns the maximum payload of the robot.
func (c CreateRobotCommand) Capacity() robot.Payload {
	return c.capacity
}

// SpeedKmh returns the cruising speed.
func (c CreateRobotCommand) SpeedKmh() float64 {
	return c.speedKmh
}

func (c *CreateRobotCommand) setRobotID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}

	c.robotID = id
	return nil
}

func (c *CreateRobotCommand) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return robot.ErrNameIsRequired
	}

	c.name = name
	return nil
}

func (c *CreateRobotCommand) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}

	c.location = location
	return nil
}

func (c *CreateRobotCommand) setBatteryLevel(level int) error {
	if level < 0 || level > robot.MaxBattery {
		return errs.NewValueIsOutOfRangeError("batteryLevel", level, 0, robot.MaxBattery)
	}

	c.batteryLevel = level
	return nil
}

func (c *CreateRobotCommand) setCapacity(capacity robot.Payload) error {
	if capacity.WeightKg() <= 0 || capacity.VolumeL() <= 0 {
		return ErrCapacityIsInvalid
	}

	c.capacity = capacity
	return nil
}

func (c *CreateRobotCommand) setSpeed(speedKmh float64) error {
	if speedKmh <= 0 {
		return ErrSpeedIsInvalid
	}

	c.speedKmh = speedKmh
	return nil
}
