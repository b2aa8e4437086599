package commands

import (
	"context"

	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
)

// SetRobotAvailabilityCommandHandler changes the service state of idle robots. The write
// is conditional on the status read, so a robot claimed by the dispatcher in between is
// an errs.ConflictError instead of a silently lost reservation.
type SetRobotAvailabilityCommandHandler struct {
	uowFactory RobotUoWFactory
	clock      ports.Clock
}

// NewSetRobotAvailabilityCommandHandler creates the handler.
func NewSetRobotAvailabilityCommandHandler(uowFactory RobotUoWFactory, clock ports.Clock) SetRobotAvailabilityCommandHandler {
	return SetRobotAvailabilityCommandHandler{
		uowFactory: uowFactory,
		clock:      clock,
	}
}

// Handle applies the availability change and returns the robot.
func (h *SetRobotAvailabilityCommandHandler) Handle(
	ctx context.Context,
	cmd SetRobotAvailabilityCommand,
) (*robot.Robot, error) {
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

	robots := uow.RobotRepository()

	r, err := robots.Get(ctx, cmd.RobotID())
	if err != nil {
		return nil, err
	}

	previous := r.Status()
	if err = r.SetAvailability(cmd.Status(), h.clock.Now()); err != nil {
		return nil, err
	}

	if err = robots.UpdateIfStatus(ctx, r, previous); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return r, nil
}
