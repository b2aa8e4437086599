package memory

import (
	"context"
	"sort"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"
)

// RobotRepository implements ports.RobotRepository over a Store.
type RobotRepository struct {
	uow *UnitOfWork
}

func (r *RobotRepository) Add(ctx context.Context, aggregate *robot.Robot) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	return r.uow.write(ctx, func(tx *changes) error {
		for _, state := range r.uow.allRobots() {
			if state.ID.IsEqual(aggregate.ID()) || state.Name == aggregate.Name() {
				return errs.NewConflictError("robot", aggregate.Name(), "unique name")
			}
		}
		tx.robots[aggregate.ID()] = aggregate.Snapshot()
		return nil
	})
}

func (r *RobotRepository) Get(_ context.Context, id kernel.UUID) (*robot.Robot, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	state, ok := r.uow.robot(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("robot", id.String())
	}
	return robot.RestoreRobot(state)
}

func (r *RobotRepository) GetAll(_ context.Context) ([]*robot.Robot, error) {
	return r.restoreSorted(func(robot.State) bool { return true })
}

func (r *RobotRepository) GetAllDispatchEligible(_ context.Context) ([]*robot.Robot, error) {
	return r.restoreSorted(func(state robot.State) bool {
		return state.Status == robot.Idle && state.BatteryLevel > robot.MinDispatchBattery
	})
}

func (r *RobotRepository) GetByAssignedOrder(_ context.Context, orderID kernel.UUID) (*robot.Robot, error) {
	for _, state := range r.uow.allRobots() {
		if state.AssignedOrderID != nil && state.AssignedOrderID.IsEqual(orderID) {
			return robot.RestoreRobot(state)
		}
	}
	return nil, errs.NewObjectNotFoundError("robot", "order "+orderID.String())
}

func (r *RobotRepository) UpdateIfStatus(ctx context.Context, aggregate *robot.Robot, expected robot.Status) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	return r.uow.write(ctx, func(tx *changes) error {
		stored, ok := r.uow.robot(aggregate.ID())
		if !ok {
			return errs.NewObjectNotFoundError("robot", aggregate.ID().String())
		}
		if stored.Status != expected {
			return errs.NewConflictError("robot", aggregate.ID().String(), expected)
		}

		next := aggregate.Snapshot()
		if expected == robot.Idle && next.Status == robot.Assigned && stored.BatteryLevel <= robot.MinDispatchBattery {
			return errs.NewConflictErrorWithCause("robot", aggregate.ID().String(), expected, robot.ErrRobotNotAvailable)
		}

		stored.Status = next.Status
		stored.AssignedOrderID = next.AssignedOrderID
		stored.CurrentLoad = next.CurrentLoad
		stored.LastMaintenance = next.LastMaintenance
		stored.UpdatedAt = next.UpdatedAt
		tx.robots[aggregate.ID()] = stored
		return nil
	})
}

func (r *RobotRepository) UpdateTelemetry(ctx context.Context, aggregate *robot.Robot) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	return r.uow.write(ctx, func(tx *changes) error {
		stored, ok := r.uow.robot(aggregate.ID())
		if !ok {
			return errs.NewObjectNotFoundError("robot", aggregate.ID().String())
		}

		stored.Location = aggregate.Location()
		stored.BatteryLevel = aggregate.BatteryLevel()
		stored.UpdatedAt = aggregate.UpdatedAt()
		tx.robots[aggregate.ID()] = stored
		return nil
	})
}

func (r *RobotRepository) restoreSorted(keep func(robot.State) bool) ([]*robot.Robot, error) {
	states := r.uow.allRobots()
	sort.Slice(states, func(i, j int) bool {
		return states[i].Name < states[j].Name
	})

	var robots []*robot.Robot
	for _, state := range states {
		if !keep(state) {
			continue
		}
		rb, err := robot.RestoreRobot(state)
		if err != nil {
			return nil, err
		}
		robots = append(robots, rb)
	}
	return robots, nil
}
