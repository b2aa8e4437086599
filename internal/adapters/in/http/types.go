package http

import (
	"time"

	"robodelivery/internal/core/application/usecases/queries"
)

// Error is the body of every non-2xx response.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Address struct {
	Street     string    `json:"street"`
	Landmark   string    `json:"landmark,omitempty"`
	City       string    `json:"city"`
	PostalCode string    `json:"postalCode"`
	Location   *Location `json:"location,omitempty"`
}

type NewOrderItem struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

type NewOrder struct {
	VendorID        string         `json:"vendorId"`
	Items           []NewOrderItem `json:"items"`
	DeliveryAddress Address        `json:"deliveryAddress"`
	Notes           string         `json:"notes,omitempty"`
}

type OrderLine struct {
	ItemID    string `json:"itemId"`
	Name      string `json:"name"`
	UnitPrice string `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"lineTotal"`
}

type StatusChangeEntry struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Role  string    `json:"role"`
	Notes string    `json:"notes,omitempty"`
	At    time.Time `json:"at"`
}

type Order struct {
	ID                    string              `json:"id"`
	CustomerID            string              `json:"customerId"`
	VendorID              string              `json:"vendorId"`
	RobotID               *string             `json:"robotId,omitempty"`
	Status                string              `json:"status"`
	Items                 []OrderLine         `json:"items"`
	TotalAmount           string              `json:"totalAmount"`
	DeliveryAddress       Address             `json:"deliveryAddress"`
	VendorAddress         Address             `json:"vendorAddress"`
	Notes                 string              `json:"notes,omitempty"`
	DeliveryCode          string              `json:"deliveryCode,omitempty"`
	CodeExpiresAt         *time.Time          `json:"codeExpiresAt,omitempty"`
	EstimatedDeliveryTime *time.Time          `json:"estimatedDeliveryTime,omitempty"`
	ActualDeliveryTime    *time.Time          `json:"actualDeliveryTime,omitempty"`
	History               []StatusChangeEntry `json:"history"`
	CreatedAt             time.Time           `json:"createdAt"`
	UpdatedAt             time.Time           `json:"updatedAt"`
}

type OrderPage struct {
	Orders []Order `json:"orders"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
	Total  int64   `json:"total"`
}

type ListOrdersParams struct {
	Status *string
	Page   *int
	Limit  *int
}

type StatusChange struct {
	Status string `json:"status"`
	Notes  string `json:"notes,omitempty"`
}

type DeliveryConfirmation struct {
	OTP string `json:"otp"`
}

type Timeline struct {
	Placed         bool `json:"placed"`
	VendorApproved bool `json:"vendorApproved"`
	RobotAssigned  bool `json:"robotAssigned"`
	PickedUp       bool `json:"pickedUp"`
	OutForDelivery bool `json:"outForDelivery"`
	Delivered      bool `json:"delivered"`
}

type RobotPosition struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Status       string    `json:"status"`
	Location     Location  `json:"location"`
	BatteryLevel int       `json:"batteryLevel"`
	ReportedAt   time.Time `json:"reportedAt"`
}

type Tracking struct {
	OrderID               string         `json:"orderId"`
	Status                string         `json:"status"`
	Robot                 *RobotPosition `json:"robot,omitempty"`
	EstimatedDeliveryTime *time.Time     `json:"estimatedDeliveryTime,omitempty"`
	ActualDeliveryTime    *time.Time     `json:"actualDeliveryTime,omitempty"`
	Timeline              Timeline       `json:"timeline"`
}

type Payload struct {
	WeightKg float64 `json:"weightKg"`
	VolumeL  float64 `json:"volumeL"`
}

type Robot struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	Location        Location  `json:"location"`
	BatteryLevel    int       `json:"batteryLevel"`
	Capacity        Payload   `json:"capacity"`
	Load            Payload   `json:"load"`
	SpeedKmh        float64   `json:"speedKmh"`
	AssignedOrderID *string   `json:"assignedOrderId,omitempty"`
	LastMaintenance time.Time `json:"lastMaintenance"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type NewRobot struct {
	Name         string   `json:"name"`
	Location     Location `json:"location"`
	BatteryLevel int      `json:"batteryLevel"`
	Capacity     Payload  `json:"capacity"`
	SpeedKmh     float64  `json:"speedKmh"`
}

type Telemetry struct {
	Location     Location `json:"location"`
	BatteryLevel int      `json:"batteryLevel"`
	Milestone    string   `json:"milestone,omitempty"`
}

type Availability struct {
	Status string `json:"status"`
}

func toOrder(view queries.OrderView) Order {
	response := Order{
		ID:                    view.ID.String(),
		CustomerID:            view.CustomerID.String(),
		VendorID:              view.VendorID.String(),
		Status:                view.Status.String(),
		Items:                 make([]OrderLine, 0, len(view.Items)),
		TotalAmount:           view.TotalAmount.StringFixed(2),
		DeliveryAddress:       toAddress(view.DeliveryAddress),
		VendorAddress:         toAddress(view.VendorAddress),
		Notes:                 view.Notes,
		DeliveryCode:          view.DeliveryCode,
		CodeExpiresAt:         view.CodeExpiresAt,
		EstimatedDeliveryTime: view.EstimatedDeliveryTime,
		ActualDeliveryTime:    view.ActualDeliveryTime,
		History:               make([]StatusChangeEntry, 0, len(view.History)),
		CreatedAt:             view.CreatedAt,
		UpdatedAt:             view.UpdatedAt,
	}
	if view.RobotID != nil {
		id := view.RobotID.String()
		response.RobotID = &id
	}

	for _, line := range view.Items {
		response.Items = append(response.Items, OrderLine{
			ItemID:    line.ItemID.String(),
			Name:      line.Name,
			UnitPrice: line.UnitPrice.StringFixed(2),
			Quantity:  line.Quantity,
			LineTotal: line.LineTotal.StringFixed(2),
		})
	}

	for _, change := range view.History {
		response.History = append(response.History, StatusChangeEntry{
			From:  change.From.String(),
			To:    change.To.String(),
			Role:  string(change.Role),
			Notes: change.Notes,
			At:    change.At,
		})
	}

	return response
}

func toAddress(view queries.AddressView) Address {
	address := Address{
		Street:     view.Street,
		Landmark:   view.Landmark,
		City:       view.City,
		PostalCode: view.PostalCode,
	}
	if view.Location != nil {
		address.Location = &Location{Lat: view.Location.Lat, Lng: view.Location.Lng}
	}
	return address
}

func toRobot(view queries.RobotView) Robot {
	response := Robot{
		ID:              view.ID.String(),
		Name:            view.Name,
		Status:          string(view.Status),
		Location:        Location{Lat: view.Location.Lat, Lng: view.Location.Lng},
		BatteryLevel:    view.BatteryLevel,
		Capacity:        Payload{WeightKg: view.CapacityKg, VolumeL: view.CapacityL},
		Load:            Payload{WeightKg: view.LoadKg, VolumeL: view.LoadL},
		SpeedKmh:        view.SpeedKmh,
		LastMaintenance: view.LastMaintenance,
		UpdatedAt:       view.UpdatedAt,
	}
	if view.AssignedOrderID != nil {
		id := view.AssignedOrderID.String()
		response.AssignedOrderID = &id
	}
	return response
}

func toTracking(view queries.TrackingView) Tracking {
	response := Tracking{
		OrderID:               view.OrderID.String(),
		Status:                view.Status.String(),
		EstimatedDeliveryTime: view.EstimatedDeliveryTime,
		ActualDeliveryTime:    view.ActualDeliveryTime,
		Timeline: Timeline{
			Placed:         view.Timeline.Placed,
			VendorApproved: view.Timeline.VendorApproved,
			RobotAssigned:  view.Timeline.RobotAssigned,
			PickedUp:       view.Timeline.PickedUp,
			OutForDelivery: view.Timeline.OutForDelivery,
			Delivered:      view.Timeline.Delivered,
		},
	}
	if view.Robot != nil {
		response.Robot = &RobotPosition{
			ID:           view.Robot.ID.String(),
			Name:         view.Robot.Name,
			Status:       string(view.Robot.Status),
			Location:     Location{Lat: view.Robot.Location.Lat, Lng: view.Robot.Location.Lng},
			BatteryLevel: view.Robot.BatteryLevel,
			ReportedAt:   view.Robot.ReportedAt,
		}
	}
	return response
}
