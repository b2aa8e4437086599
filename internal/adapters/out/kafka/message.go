package kafka

import (
	"time"

	"github.com/shopspring/decimal"

	"robodelivery/internal/core/ports"
)

// OrderChangedMessage is the JSON payload published for every order event.
type OrderChangedMessage struct {
	EventType       string             `json:"event_type"`
	OrderID         string             `json:"order_id"`
	CustomerID      string             `json:"customer_id"`
	VendorID        string             `json:"vendor_id"`
	FromStatus      string             `json:"from_status,omitempty"`
	ToStatus        string             `json:"to_status"`
	RobotID         *string            `json:"robot_id,omitempty"`
	DeliveryCode    string             `json:"delivery_code,omitempty"`
	CodeExpiresAt   *time.Time         `json:"code_expires_at,omitempty"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	DeliveryAddress AddressMessage     `json:"delivery_address"`
	Recipients      []RecipientMessage `json:"recipients"`
	OccurredAt      time.Time          `json:"occurred_at"`
}

type AddressMessage struct {
	Street     string   `json:"street"`
	Landmark   string   `json:"landmark,omitempty"`
	City       string   `json:"city"`
	PostalCode string   `json:"postal_code"`
	Lat        *float64 `json:"lat,omitempty"`
	Lng        *float64 `json:"lng,omitempty"`
}

type RecipientMessage struct {
	Role string `json:"role"`
	ID   string `json:"id"`
}

func newOrderChangedMessage(event ports.OrderEvent) OrderChangedMessage {
	msg := OrderChangedMessage{
		EventType:     string(event.Type),
		OrderID:       event.OrderID.String(),
		CustomerID:    event.CustomerID.String(),
		VendorID:      event.VendorID.String(),
		FromStatus:    event.From.String(),
		ToStatus:      event.To.String(),
		DeliveryCode:  event.DeliveryCode,
		CodeExpiresAt: event.CodeExpiresAt,
		TotalAmount:   event.TotalAmount,
		OccurredAt:    event.OccurredAt.UTC(),
		Recipients:    make([]RecipientMessage, 0, len(event.Recipients)),
	}

	if event.RobotID != nil {
		id := event.RobotID.String()
		msg.RobotID = &id
	}

	address := event.DeliveryAddress
	msg.DeliveryAddress = AddressMessage{
		Street:     address.Street(),
		Landmark:   address.Landmark(),
		City:       address.City(),
		PostalCode: address.PostalCode(),
	}
	if location, ok := address.Location(); ok {
		lat, lng := location.Lat(), location.Lng()
		msg.DeliveryAddress.Lat = &lat
		msg.DeliveryAddress.Lng = &lng
	}

	for _, recipient := range event.Recipients {
		msg.Recipients = append(msg.Recipients, RecipientMessage{
			Role: string(recipient.Role),
			ID:   recipient.ID.String(),
		})
	}

	return msg
}
