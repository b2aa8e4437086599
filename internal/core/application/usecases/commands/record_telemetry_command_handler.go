package commands

import (
	"context"
	"errors"
	"log/slog"

	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
)

// RobotAdvancer takes the next robot step for an order.
type RobotAdvancer interface {
	Handle(ctx context.Context, cmd AdvanceRobotCommand) (*order.Order, error)
}

// RecordTelemetryCommandHandler stores robot readings. Only the telemetry columns are
// written, so readings never race with dispatch. A milestone advances the order the
// robot serves.
type RecordTelemetryCommandHandler struct {
	uowFactory RobotUoWFactory
	advancer   RobotAdvancer
	clock      ports.Clock
	metrics    Metrics
	logger     *slog.Logger
}

// NewRecordTelemetryCommandHandler creates a telemetry handler.
func NewRecordTelemetryCommandHandler(
	uowFactory RobotUoWFactory,
	advancer RobotAdvancer,
	clock ports.Clock,
	metrics Metrics,
	logger *slog.Logger,
) RecordTelemetryCommandHandler {
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return RecordTelemetryCommandHandler{
		uowFactory: uowFactory,
		advancer:   advancer,
		clock:      clock,
		metrics:    metrics,
		logger:     logger.With("component", "RecordTelemetryCommandHandler"),
	}
}

// Handle records the reading, then applies the milestone if there is one. A milestone
// for an order that already moved on is ignored.
func (h *RecordTelemetryCommandHandler) Handle(ctx context.Context, cmd RecordTelemetryCommand) (*robot.Robot, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	r, err := h.store(ctx, cmd)
	if err != nil {
		return nil, err
	}
	h.metrics.TelemetryRecorded()

	from, ok := cmd.Milestone().expectedStatus()
	if !ok {
		return r, nil
	}

	orderID := r.AssignedOrderID()
	if orderID == nil {
		h.logger.WarnContext(ctx, "milestone from a robot without an order",
			"robot_id", r.ID().String(), "milestone", string(cmd.Milestone()))
		return r, nil
	}

	advance, err := NewAdvanceRobotCommandFrom(*orderID, from)
	if err != nil {
		return nil, err
	}

	if _, err = h.advancer.Handle(ctx, advance); err != nil {
		if errors.Is(err, ErrNothingToAdvance) {
			h.logger.DebugContext(ctx, "milestone already applied",
				"robot_id", r.ID().String(), "order_id", orderID.String(), "milestone", string(cmd.Milestone()))
			return r, nil
		}
		return nil, err
	}

	return r, nil
}

func (h *RecordTelemetryCommandHandler) store(ctx context.Context, cmd RecordTelemetryCommand) (*robot.Robot, error) {
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

	if err = r.ReportTelemetry(cmd.Location(), cmd.BatteryLevel(), h.clock.Now()); err != nil {
		return nil, err
	}

	if err = robots.UpdateTelemetry(ctx, r); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return r, nil
}
