package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// DefaultNotifyTimeout bounds a single notifier call.
const DefaultNotifyTimeout = 5 * time.Second

// CodeIssuer creates the delivery code for an order entering robot_delivering and
// copies it onto the order, inside the caller's unit of work.
type CodeIssuer interface {
	IssueTx(ctx context.Context, uow UoW, o *order.Order, now time.Time) error
}

// TransitionRequest asks the lifecycle to move one order to Target.
type TransitionRequest struct {
	OrderID kernel.UUID
	Target  order.Status
	Actor   order.Actor
	Notes   string

	// Mutate runs after the status change and before the invariants are checked, inside
	// the same unit of work. The dispatcher uses it to attach the robot.
	Mutate func(ctx context.Context, uow UoW, o *order.Order) error
}

// AppliedTransition is a transition written to a unit of work that has not necessarily
// committed yet. Pass it to Complete after the commit.
type AppliedTransition struct {
	Order *order.Order
	From  order.Status
}

// OrderLifecycle is the single authority over order status.
//
// Every status change goes through Transition or TransitionTx, which load the order,
// validate edge, role and ownership, apply the change and persist it with a conditional
// write keyed on the status read. Side effects that must be atomic with the transition
// (robot release, delivery code issue) happen in the same unit of work. Side effects that
// must not roll it back (notifications, dispatch scheduling) happen in Complete.
//
// Example:
//
//	lifecycle := NewOrderLifecycle(uowFactory, issuer, notifier, scheduler, clock, metrics, logger, 0)
//	o, err := lifecycle.Transition(ctx, TransitionRequest{
//	    OrderID: id,
//	    Target:  order.VendorApproved,
//	    Actor:   vendor,
//	})
type OrderLifecycle struct {
	uowFactory    UoWFactory
	codes         CodeIssuer
	notifier      ports.Notifier
	scheduler     ports.DispatchScheduler
	clock         ports.Clock
	metrics       Metrics
	logger        *slog.Logger
	notifyTimeout time.Duration

	inflight sync.WaitGroup
}

// NewOrderLifecycle wires the lifecycle. A zero notifyTimeout means DefaultNotifyTimeout.
func NewOrderLifecycle(
	uowFactory UoWFactory,
	codes CodeIssuer,
	notifier ports.Notifier,
	scheduler ports.DispatchScheduler,
	clock ports.Clock,
	metrics Metrics,
	logger *slog.Logger,
	notifyTimeout time.Duration,
) *OrderLifecycle {
	if notifyTimeout <= 0 {
		notifyTimeout = DefaultNotifyTimeout
	}
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return &OrderLifecycle{
		uowFactory:    uowFactory,
		codes:         codes,
		notifier:      notifier,
		scheduler:     scheduler,
		clock:         clock,
		metrics:       metrics,
		logger:        logger.With("component", "OrderLifecycle"),
		notifyTimeout: notifyTimeout,
	}
}

// Now returns the lifecycle clock reading.
func (l *OrderLifecycle) Now() time.Time {
	return l.clock.Now()
}

// Transition applies req in its own unit of work and runs the post-commit side effects.
func (l *OrderLifecycle) Transition(ctx context.Context, req TransitionRequest) (*order.Order, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	applied, err := l.TransitionTx(ctx, uow, req)
	if err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	l.Complete(ctx, applied)
	return applied.Order, nil
}

// TransitionTx applies req inside uow without committing it.
//
// Entering cancelled or delivered releases the robot that served the order. Entering
// robot_delivering issues the delivery code. Both are written before the order so that
// the order row is always the last one locked.
func (l *OrderLifecycle) TransitionTx(ctx context.Context, uow UoW, req TransitionRequest) (AppliedTransition, error) {
	orders := uow.OrderRepository()

	o, err := orders.Get(ctx, req.OrderID)
	if err != nil {
		return AppliedTransition{}, err
	}

	from := o.Status()
	robotID := o.RobotID()
	now := l.clock.Now()

	if err = o.Transition(req.Target, req.Actor, req.Notes, now); err != nil {
		l.metrics.TransitionRejected(req.Target, rejectionReason(err))
		return AppliedTransition{}, err
	}

	if req.Mutate != nil {
		if err = req.Mutate(ctx, uow, o); err != nil {
			return AppliedTransition{}, err
		}
	}

	switch req.Target {
	case order.Cancelled, order.Delivered:
		if robotID != nil {
			if err = l.releaseRobot(ctx, uow, *robotID, o.ID(), now); err != nil {
				return AppliedTransition{}, err
			}
		}
	case order.RobotDelivering:
		if err = l.codes.IssueTx(ctx, uow, o, now); err != nil {
			return AppliedTransition{}, fmt.Errorf("issue delivery code: %w", err)
		}
	default:
	}

	if err = o.CheckInvariants(); err != nil {
		return AppliedTransition{}, err
	}

	if err = orders.UpdateIfStatus(ctx, o, from); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			l.metrics.TransitionRejected(req.Target, "conflict")
		}
		return AppliedTransition{}, err
	}

	return AppliedTransition{Order: o, From: from}, nil
}

// Complete runs the side effects of a committed transition. It never fails: notifier
// errors are logged and counted.
func (l *OrderLifecycle) Complete(ctx context.Context, applied AppliedTransition) {
	o := applied.Order
	l.metrics.TransitionApplied(applied.From, o.Status())
	l.logger.InfoContext(ctx, "order transitioned",
		"order_id", o.ID().String(),
		"from", applied.From.String(),
		"to", o.Status().String(),
	)

	if o.Status() == order.VendorApproved {
		l.scheduler.Schedule(o.ID())
	}

	l.notify(ctx, l.event(ports.OrderStatusChanged, applied.From, o))
}

// Created announces a freshly placed order.
func (l *OrderLifecycle) Created(ctx context.Context, o *order.Order) {
	l.logger.InfoContext(ctx, "order created",
		"order_id", o.ID().String(),
		"customer_id", o.CustomerID().String(),
		"vendor_id", o.VendorID().String(),
		"total", o.TotalAmount().StringFixed(2),
	)
	l.notify(ctx, l.event(ports.OrderCreated, "", o))
}

// Wait blocks until every notification started so far has finished.
func (l *OrderLifecycle) Wait() {
	l.inflight.Wait()
}

func (l *OrderLifecycle) notify(ctx context.Context, event ports.OrderEvent) {
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				l.metrics.NotifierFailed()
				l.logger.Error("notifier panicked", "order_id", event.OrderID.String(), "panic", r)
			}
		}()

		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.notifyTimeout)
		defer cancel()

		if err := l.notifier.Notify(notifyCtx, event); err != nil {
			l.metrics.NotifierFailed()
			l.logger.Warn("failed to notify",
				"order_id", event.OrderID.String(),
				"event", string(event.Type),
				"to", event.To.String(),
				"error", err,
			)
		}
	}()
}

func (l *OrderLifecycle) event(eventType ports.EventType, from order.Status, o *order.Order) ports.OrderEvent {
	event := ports.OrderEvent{
		Type:            eventType,
		OrderID:         o.ID(),
		CustomerID:      o.CustomerID(),
		VendorID:        o.VendorID(),
		From:            from,
		To:              o.Status(),
		RobotID:         o.RobotID(),
		TotalAmount:     o.TotalAmount(),
		DeliveryAddress: o.DeliveryAddress(),
		Recipients:      recipientsFor(eventType, o),
		OccurredAt:      o.UpdatedAt(),
	}
	if code, expiresAt := o.DeliveryCode(); code != "" {
		event.DeliveryCode = code
		event.CodeExpiresAt = expiresAt
	}
	return event
}

// recipientsFor decides who hears about an event. The customer hears about everything;
// the vendor hears about new orders and about orders leaving its hands.
func recipientsFor(eventType ports.EventType, o *order.Order) []ports.Recipient {
	customer := ports.Recipient{Role: order.RoleCustomer, ID: o.CustomerID()}
	vendor := ports.Recipient{Role: order.RoleVendor, ID: o.VendorID()}

	if eventType == ports.OrderCreated {
		return []ports.Recipient{vendor, customer}
	}

	switch o.Status() {
	case order.Cancelled, order.RobotAssigned, order.Delivered:
		return []ports.Recipient{customer, vendor}
	default:
		return []ports.Recipient{customer}
	}
}

func (l *OrderLifecycle) releaseRobot(
	ctx context.Context,
	uow UoW,
	robotID kernel.UUID,
	orderID kernel.UUID,
	now time.Time,
) error {
	robots := uow.RobotRepository()

	r, err := robots.GetByAssignedOrder(ctx, orderID)
	if errors.Is(err, errs.ErrObjectNotFound) {
		l.logger.WarnContext(ctx, "no robot serves the order anymore",
			"order_id", orderID.String(), "robot_id", robotID.String())
		return nil
	}
	if err != nil {
		return err
	}

	if !r.ID().IsEqual(robotID) {
		l.logger.WarnContext(ctx, "order is served by another robot",
			"order_id", orderID.String(), "robot_id", robotID.String(), "serving_robot_id", r.ID().String())
	}

	previous := r.Status()
	if err = r.Release(orderID, now); err != nil {
		return err
	}

	return robots.UpdateIfStatus(ctx, r, previous)
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrForbidden):
		return "forbidden"
	case errors.Is(err, errs.ErrConflict):
		return "conflict"
	case errors.Is(err, order.ErrInvalidTransition):
		return "invalid_transition"
	default:
		return "invalid"
	}
}
