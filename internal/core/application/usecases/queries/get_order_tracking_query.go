package queries

import (
	"errors"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/guard"
)

var ErrGetOrderTrackingQueryIsNotConstructed = errors.New(
	"GetOrderTrackingQuery must be created via NewGetOrderTrackingQuery constructor",
)

// GetOrderTrackingQuery reads the live progress of an order.
type GetOrderTrackingQuery struct {
	orderID kernel.UUID
	caller  order.Actor

	guard guard.ConstructorGuard
}

// NewGetOrderTrackingQuery creates a tracking query.
func NewGetOrderTrackingQuery(orderID kernel.UUID, caller order.Actor) (GetOrderTrackingQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderTrackingQuery{}, err
	}

	return GetOrderTrackingQuery{
		orderID: orderID,
		caller:  caller,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetOrderTrackingQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderTrackingQueryIsNotConstructed)
}

func (q GetOrderTrackingQuery) OrderID() kernel.UUID { return q.orderID }
func (q GetOrderTrackingQuery) Caller() order.Actor  { return q.caller }

// Timeline tells which milestones an order went through. Each flag stays true once set,
// so a cancelled order still shows how far it got.
type Timeline struct {
	Placed         bool
	VendorApproved bool
	RobotAssigned  bool
	PickedUp       bool
	OutForDelivery bool
	Delivered      bool
}

// RobotPosition is the last telemetry of the robot serving an order.
type RobotPosition struct {
	ID           kernel.UUID
	Name         string
	Status       robot.Status
	Location     LocationView
	BatteryLevel int
	ReportedAt   time.Time
}

// TrackingView combines the order status, the robot telemetry and the timeline.
type TrackingView struct {
	OrderID               kernel.UUID
	Status                order.Status
	Robot                 *RobotPosition
	EstimatedDeliveryTime *time.Time
	ActualDeliveryTime    *time.Time
	Timeline              Timeline
}

func newTimeline(o *order.Order) Timeline {
	return Timeline{
		Placed:         true,
		VendorApproved: o.Reached(order.VendorApproved),
		RobotAssigned:  o.Reached(order.RobotAssigned),
		PickedUp:       o.Reached(order.RobotPickingUp),
		OutForDelivery: o.Reached(order.RobotDelivering),
		Delivered:      o.Reached(order.Delivered),
	}
}
