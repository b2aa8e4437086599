package ports

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
)

// RobotRepository defines the persistence contract for fleet robots.
type RobotRepository interface {
	// Add persists a newly provisioned robot. A duplicate name is an errs.ConflictError.
	Add(ctx context.Context, aggregate *robot.Robot) error

	// Get retrieves a robot by id. Returns errs.ObjectNotFoundError when missing.
	Get(ctx context.Context, id kernel.UUID) (*robot.Robot, error)

	// GetAll returns the whole fleet ordered by name.
	GetAll(ctx context.Context) ([]*robot.Robot, error)

	// GetAllDispatchEligible returns idle robots whose battery is above robot.MinDispatchBattery.
	GetAllDispatchEligible(ctx context.Context) ([]*robot.Robot, error)

	// GetByAssignedOrder returns the robot serving orderID, or errs.ObjectNotFoundError.
	GetByAssignedOrder(ctx context.Context, orderID kernel.UUID) (*robot.Robot, error)

	// UpdateIfStatus writes the dispatch columns (status, assigned order, load,
	// maintenance) only if the stored status still equals expected. Claiming an idle
	// robot additionally requires the stored battery to be above robot.MinDispatchBattery.
	// Otherwise it returns errs.ConflictError. Telemetry columns are left alone.
	UpdateIfStatus(ctx context.Context, aggregate *robot.Robot, expected robot.Status) error

	// UpdateTelemetry writes only location, battery level and updated_at.
	UpdateTelemetry(ctx context.Context, aggregate *robot.Robot) error
}
