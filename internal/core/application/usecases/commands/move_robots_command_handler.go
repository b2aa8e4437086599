package commands

import (
	"context"
	"errors"
	"log/slog"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
)

// TelemetryRecorder stores a robot reading and applies its milestone.
type TelemetryRecorder interface {
	Handle(ctx context.Context, cmd RecordTelemetryCommand) (*robot.Robot, error)
}

// MoveRobotsCommandHandler moves assigned robots towards the vendor and delivering
// robots towards the customer. Arrival at the vendor and the end of loading are
// reported as milestones; arrival at the customer is not, the customer confirms with
// the delivery code.
type MoveRobotsCommandHandler struct {
	uowFactory UoWFactory
	recorder   TelemetryRecorder
	logger     *slog.Logger
}

// NewMoveRobotsCommandHandler creates a handler for simulated robot movement.
func NewMoveRobotsCommandHandler(uowFactory UoWFactory, recorder TelemetryRecorder, logger *slog.Logger) MoveRobotsCommandHandler {
	return MoveRobotsCommandHandler{
		uowFactory: uowFactory,
		recorder:   recorder,
		logger:     logger.With("component", "MoveRobotsCommandHandler"),
	}
}

// Handle returns how many readings were reported. Each robot is handled on its own so
// one failing robot does not hold back the rest; failures are joined.
func (h *MoveRobotsCommandHandler) Handle(ctx context.Context, cmd MoveRobotsCommand) (int, error) {
	if err := cmd.Validate(); err != nil {
		return 0, err
	}

	uow := h.uowFactory.Create()

	robots, err := uow.RobotRepository().GetAll(ctx)
	if err != nil {
		return 0, err
	}

	var (
		reported int
		errList  []error
	)
	for _, r := range robots {
		if err = ctx.Err(); err != nil {
			return reported, err
		}

		orderID := r.AssignedOrderID()
		if orderID == nil {
			continue
		}

		o, err := uow.OrderRepository().Get(ctx, *orderID)
		if err != nil {
			errList = append(errList, err)
			continue
		}

		reading, ok, err := h.nextReading(r, o, cmd)
		if err != nil {
			errList = append(errList, err)
			continue
		}
		if !ok {
			continue
		}

		if _, err = h.recorder.Handle(ctx, reading); err != nil {
			h.logger.WarnContext(ctx, "simulated reading rejected",
				"robot_id", r.ID().String(), "order_id", orderID.String(), "error", err)
			errList = append(errList, err)
			continue
		}
		reported++
	}

	return reported, errors.Join(errList...)
}

// nextReading computes where the robot is after one step and which milestone, if any,
// that step completes.
func (h *MoveRobotsCommandHandler) nextReading(
	r *robot.Robot,
	o *order.Order,
	cmd MoveRobotsCommand,
) (RecordTelemetryCommand, bool, error) {
	var (
		target    order.Address
		milestone = MilestoneNone
	)

	switch r.Status() {
	case robot.Assigned:
		target = o.VendorAddress()
	case robot.PickingUp:
		// Loading happens in place and takes one step.
		return h.reading(r, r.Location(), r.BatteryLevel(), MilestoneLoaded)
	case robot.Delivering:
		target = o.DeliveryAddress()
	default:
		return RecordTelemetryCommand{}, false, nil
	}

	destination, ok := target.Location()
	if !ok {
		h.logger.Debug("no coordinates to move towards",
			"robot_id", r.ID().String(), "order_id", o.ID().String())
		return RecordTelemetryCommand{}, false, nil
	}

	arrived, err := r.Location().IsEqual(destination)
	if err != nil {
		return RecordTelemetryCommand{}, false, err
	}
	if arrived && r.Status() == robot.Delivering {
		// Waiting at the door for the delivery code.
		return RecordTelemetryCommand{}, false, nil
	}

	next, err := r.Location().MoveTowards(destination, cmd.StepKm())
	if err != nil {
		return RecordTelemetryCommand{}, false, err
	}

	if r.Status() == robot.Assigned {
		if reached, _ := next.IsEqual(destination); reached {
			milestone = MilestoneArrivedAtVendor
		}
	}

	battery := max(r.BatteryLevel()-cmd.BatteryDrain(), 0)
	return h.reading(r, next, battery, milestone)
}

func (h *MoveRobotsCommandHandler) reading(
	r *robot.Robot,
	location kernel.Location,
	battery int,
	milestone Milestone,
) (RecordTelemetryCommand, bool, error) {
	cmd, err := NewRecordTelemetryCommand(r.ID(), location, battery, milestone)
	if err != nil {
		return RecordTelemetryCommand{}, false, err
	}
	return cmd, true, nil
}
