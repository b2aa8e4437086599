package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/domain/services"
	"robodelivery/internal/metrics"
	"robodelivery/internal/pkg/errs"
)

// DefaultFallbackLeg is the travel time assumed for a leg without coordinates.
const DefaultFallbackLeg = 15 * time.Minute

// errLostClaim marks a candidate that another dispatcher reserved first.
var errLostClaim = errors.New("robot claimed by another dispatch")

// AssignRobotCommandHandler reserves robots for approved orders.
//
// Candidates are ranked from a snapshot read outside any transaction. Each candidate is
// then claimed in its own unit of work: the robot is re-read, reserved with a
// conditional write expecting idle, and the order is moved to robot_assigned with the
// robot and the estimate attached. Both writes commit together. A lost claim moves on to
// the next candidate, so two concurrent dispatches never end up sharing a robot.
type AssignRobotCommandHandler struct {
	uowFactory  UoWFactory
	lifecycle   *OrderLifecycle
	dispatcher  services.RobotDispatcher
	metrics     Metrics
	logger      *slog.Logger
	fallbackLeg time.Duration
}

// NewAssignRobotCommandHandler creates a dispatch handler. A zero fallbackLeg means
// DefaultFallbackLeg.
func NewAssignRobotCommandHandler(
	uowFactory UoWFactory,
	lifecycle *OrderLifecycle,
	dispatcher services.RobotDispatcher,
	metrics Metrics,
	logger *slog.Logger,
	fallbackLeg time.Duration,
) AssignRobotCommandHandler {
	if fallbackLeg <= 0 {
		fallbackLeg = DefaultFallbackLeg
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return AssignRobotCommandHandler{
		uowFactory:  uowFactory,
		lifecycle:   lifecycle,
		dispatcher:  dispatcher,
		metrics:     metrics,
		logger:      logger.With("component", "AssignRobotCommandHandler"),
		fallbackLeg: fallbackLeg,
	}
}

// Handle assigns a robot to the order.
//
// Returns ErrOrderNotAwaitingDispatch when the order is not (or no longer) in
// vendor_approved and ErrNoRobotAvailable when every candidate was taken or none fits.
// Neither changes anything.
func (h *AssignRobotCommandHandler) Handle(ctx context.Context, cmd AssignRobotCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	snapshot := h.uowFactory.Create()

	o, err := snapshot.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}
	if o.Status() != order.VendorApproved {
		h.metrics.DispatchOutcome(metrics.DispatchSkipped)
		return nil, fmt.Errorf("%w: status is %s", ErrOrderNotAwaitingDispatch, o.Status())
	}

	load, err := h.dispatcher.LoadFor(o)
	if err != nil {
		return nil, err
	}

	idle, err := snapshot.RobotRepository().GetAllDispatchEligible(ctx)
	if err != nil {
		return nil, err
	}

	pickup := locationOf(o.VendorAddress())
	dropoff := locationOf(o.DeliveryAddress())

	candidates, err := h.dispatcher.Rank(load, pickup, idle)
	if err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		assigned, err := h.claim(ctx, o.ID(), candidate.ID(), load, pickup, dropoff)
		switch {
		case err == nil:
			h.metrics.DispatchOutcome(metrics.DispatchAssigned)
			return assigned, nil
		case errors.Is(err, errLostClaim):
			h.metrics.DispatchOutcome(metrics.DispatchLostClaim)
			h.logger.DebugContext(ctx, "lost robot claim, trying next candidate",
				"order_id", o.ID().String(), "robot_id", candidate.ID().String(), "error", err)
			continue
		case errors.Is(err, errs.ErrConflict), errors.Is(err, order.ErrInvalidTransition):
			h.metrics.DispatchOutcome(metrics.DispatchSkipped)
			return nil, fmt.Errorf("%w: %w", ErrOrderNotAwaitingDispatch, err)
		default:
			return nil, err
		}
	}

	h.metrics.DispatchOutcome(metrics.DispatchNoRobot)
	h.logger.InfoContext(ctx, "no robot available",
		"order_id", o.ID().String(), "candidates", len(candidates), "load", load.String())
	return nil, ErrNoRobotAvailable
}

// claim reserves robotID for orderID and moves the order to robot_assigned in one unit
// of work.
func (h *AssignRobotCommandHandler) claim(
	ctx context.Context,
	orderID kernel.UUID,
	robotID kernel.UUID,
	load robot.Payload,
	pickup *kernel.Location,
	dropoff *kernel.Location,
) (*order.Order, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	robots := uow.RobotRepository()

	r, err := robots.Get(ctx, robotID)
	if err != nil {
		return nil, err
	}

	now := h.lifecycle.Now()
	if err = r.Assign(orderID, load, now); err != nil {
		if errors.Is(err, robot.ErrRobotNotAvailable) {
			return nil, fmt.Errorf("%w: %w", errLostClaim, err)
		}
		return nil, err
	}

	if err = robots.UpdateIfStatus(ctx, r, robot.Idle); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return nil, fmt.Errorf("%w: %w", errLostClaim, err)
		}
		return nil, err
	}

	eta, err := h.dispatcher.EstimateDelivery(r, pickup, dropoff, h.fallbackLeg)
	if err != nil {
		return nil, err
	}

	applied, err := h.lifecycle.TransitionTx(ctx, uow, TransitionRequest{
		OrderID: orderID,
		Target:  order.RobotAssigned,
		Actor:   order.Dispatcher(),
		Notes:   "robot " + r.Name(),
		Mutate: func(_ context.Context, _ UoW, o *order.Order) error {
			return o.AttachRobot(robotID, now.Add(eta))
		},
	})
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.lifecycle.Complete(ctx, applied)
	return applied.Order, nil
}

func locationOf(address order.Address) *kernel.Location {
	location, ok := address.Location()
	if !ok {
		return nil
	}
	return &location
}
