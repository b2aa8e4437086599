package commands

import (
	"errors"
	"math"

	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// MoveRobotsCommand drives every busy robot one step along its route. It stands in for
// real robots on local runs: each step is reported as telemetry, so the rest of the
// system cannot tell the difference.
//
// Example:
//
//	cmd, _ := NewMoveRobotsCommand(0.05, 1)
//	handler := NewMoveRobotsCommandHandler(uowFactory, telemetryHandler, logger)
//
//	ticker := time.NewTicker(time.Second)
//	for range ticker.C {
//	    if _, err := handler.Handle(ctx, cmd); err != nil {
//	        log.Printf("robot movement failed: %v", err)
//	    }
//	}
type MoveRobotsCommand struct {
	stepKm       float64
	batteryDrain int

	guard guard.ConstructorGuard
}

var ErrMoveRobotsCommandIsNotConstructed = errors.New(
	"MoveRobotsCommand must be created via NewMoveRobotsCommand constructor",
)

// NewMoveRobotsCommand creates a movement step of stepKm kilometres that costs
// batteryDrain percent of battery.
func NewMoveRobotsCommand(stepKm float64, batteryDrain int) (MoveRobotsCommand, error) {
	var stepErr, drainErr error
	if math.IsNaN(stepKm) || stepKm <= 0 {
		stepErr = errs.NewValueIsOutOfRangeError("stepKm", stepKm, 0, math.Inf(1))
	}
	if batteryDrain < 0 || batteryDrain > 100 {
		drainErr = errs.NewValueIsOutOfRangeError("batteryDrain", batteryDrain, 0, 100)
	}
	if err := errors.Join(stepErr, drainErr); err != nil {
		return MoveRobotsCommand{}, err
	}

	return MoveRobotsCommand{
		stepKm:       stepKm,
		batteryDrain: batteryDrain,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrMoveRobotsCommandIsNotConstructed if validation fails.
func (c MoveRobotsCommand) Validate() error {
	return c.guard.Validate(ErrMoveRobotsCommandIsNotConstructed)
}

func (c MoveRobotsCommand) StepKm() float64   { return c.stepKm }
func (c MoveRobotsCommand) BatteryDrain() int { return c.batteryDrain }
