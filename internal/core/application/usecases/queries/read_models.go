// Package queries contains read operations for retrieving system state.
// Implements the Query pattern for read operations in the CQRS architecture.
// Queries return read models shaped for the HTTP API and never change state.
//
// Handlers read through a unit of work without beginning a transaction, so they see the
// last committed state and never take write locks.
package queries

import (
	"time"

	"github.com/shopspring/decimal"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
)

// LocationView is a coordinate pair.
type LocationView struct {
	Lat float64
	Lng float64
}

// AddressView is an address snapshot as stored on the order.
type AddressView struct {
	Street     string
	Landmark   string
	City       string
	PostalCode string
	Location   *LocationView
}

// OrderLineView is one snapshotted item.
type OrderLineView struct {
	ItemID    kernel.UUID
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	LineTotal decimal.Decimal
}

// StatusChangeView is one entry of the order history.
type StatusChangeView struct {
	From  order.Status
	To    order.Status
	Role  order.Role
	Notes string
	At    time.Time
}

// OrderView is the full read model of an order.
//
// DeliveryCode is only filled in for the order's customer, who hands it to the robot.
type OrderView struct {
	ID                    kernel.UUID
	CustomerID            kernel.UUID
	VendorID              kernel.UUID
	RobotID               *kernel.UUID
	Status                order.Status
	Items                 []OrderLineView
	TotalAmount           decimal.Decimal
	DeliveryAddress       AddressView
	VendorAddress         AddressView
	Notes                 string
	DeliveryCode          string
	CodeExpiresAt         *time.Time
	EstimatedDeliveryTime *time.Time
	ActualDeliveryTime    *time.Time
	History               []StatusChangeView
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// RobotView is the fleet read model of a robot.
type RobotView struct {
	ID              kernel.UUID
	Name            string
	Status          robot.Status
	Location        LocationView
	BatteryLevel    int
	CapacityKg      float64
	CapacityL       float64
	LoadKg          float64
	LoadL           float64
	SpeedKmh        float64
	AssignedOrderID *kernel.UUID
	LastMaintenance time.Time
	UpdatedAt       time.Time
}

// NewOrderView renders o for caller. The delivery code is only shown to the ordering customer.
func NewOrderView(o *order.Order, caller order.Actor) OrderView {
	view := OrderView{
		ID:                    o.ID(),
		CustomerID:            o.CustomerID(),
		VendorID:              o.VendorID(),
		RobotID:               o.RobotID(),
		Status:                o.Status(),
		TotalAmount:           o.TotalAmount(),
		DeliveryAddress:       newAddressView(o.DeliveryAddress()),
		VendorAddress:         newAddressView(o.VendorAddress()),
		Notes:                 o.Notes(),
		EstimatedDeliveryTime: o.EstimatedDeliveryTime(),
		ActualDeliveryTime:    o.ActualDeliveryTime(),
		CreatedAt:             o.CreatedAt(),
		UpdatedAt:             o.UpdatedAt(),
	}

	for _, line := range o.Lines() {
		view.Items = append(view.Items, OrderLineView{
			ItemID:    line.ItemID(),
			Name:      line.Name(),
			UnitPrice: line.UnitPrice(),
			Quantity:  line.Quantity(),
			LineTotal: line.LineTotal(),
		})
	}

	for _, change := range o.History() {
		view.History = append(view.History, StatusChangeView{
			From:  change.From,
			To:    change.To,
			Role:  change.Actor.Role(),
			Notes: change.Notes,
			At:    change.At,
		})
	}

	if caller.Is(order.RoleCustomer, o.CustomerID()) {
		view.DeliveryCode, view.CodeExpiresAt = o.DeliveryCode()
	}

	return view
}

func newAddressView(address order.Address) AddressView {
	view := AddressView{
		Street:     address.Street(),
		Landmark:   address.Landmark(),
		City:       address.City(),
		PostalCode: address.PostalCode(),
	}
	if location, ok := address.Location(); ok {
		view.Location = &LocationView{Lat: location.Lat(), Lng: location.Lng()}
	}
	return view
}

// NewRobotView renders r for the fleet view.
func NewRobotView(r *robot.Robot) RobotView {
	return RobotView{
		ID:              r.ID(),
		Name:            r.Name(),
		Status:          r.Status(),
		Location:        LocationView{Lat: r.Location().Lat(), Lng: r.Location().Lng()},
		BatteryLevel:    r.BatteryLevel(),
		CapacityKg:      r.Capacity().WeightKg(),
		CapacityL:       r.Capacity().VolumeL(),
		LoadKg:          r.CurrentLoad().WeightKg(),
		LoadL:           r.CurrentLoad().VolumeL(),
		SpeedKmh:        r.SpeedKmh(),
		AssignedOrderID: r.AssignedOrderID(),
		LastMaintenance: r.LastMaintenance(),
		UpdatedAt:       r.UpdatedAt(),
	}
}
