package commands

import (
	"context"

	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
)

// CreateRobotCommandHandler handles fleet provisioning.
//
// Example:
//
//	handler := NewCreateRobotCommandHandler(uowFactory, clock)
//	cmd, _ := NewCreateRobotCommand("RB-07", location, 100, capacity, 6)
//
//	if _, err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("robot provisioning failed: %w", err)
//	}
type CreateRobotCommandHandler struct {
	uowFactory RobotUoWFactory
	clock      ports.Clock
}

// NewCreateRobotCommandHandler creates a handler for robot provisioning.
func NewCreateRobotCommandHandler(uowFactory RobotUoWFactory, clock ports.Clock) CreateRobotCommandHandler {
	return CreateRobotCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// Handle creates the robot and persists it within a transaction.
// A robot name already in use is an errs.ConflictError.
func (h *CreateRobotCommandHandler) Handle(ctx context.Context, cmd CreateRobotCommand) (*robot.Robot, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	now := h.clock.Now()
	created, err := robot.NewRobot(
		cmd.RobotID(), cmd.Name(), cmd.Location(), cmd.BatteryLevel(), cmd.Capacity(), cmd.SpeedKmh(), now, now,
	)
	if err != nil {
		return nil, err
	}

	if err = uow.RobotRepository().Add(ctx, created); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return created, nil
}
