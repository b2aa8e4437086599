package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
)

// EventType names what happened to an order.
type EventType string

const (
	OrderCreated       EventType = "order_created"
	OrderStatusChanged EventType = "order_status_changed"
)

// Recipient is who should hear about an event.
type Recipient struct {
	Role order.Role
	ID   kernel.UUID
}

// OrderEvent carries everything a channel needs to render a message. Formatting
// (addresses, currency) is the channel's job.
type OrderEvent struct {
	Type            EventType
	OrderID         kernel.UUID
	CustomerID      kernel.UUID
	VendorID        kernel.UUID
	From            order.Status
	To              order.Status
	RobotID         *kernel.UUID
	DeliveryCode    string
	CodeExpiresAt   *time.Time
	TotalAmount     decimal.Decimal
	DeliveryAddress order.Address
	Recipients      []Recipient
	OccurredAt      time.Time
}

// Notifier delivers order events to people. Calls are best effort: the core never
// waits on them for correctness and never rolls back because of them.
type Notifier interface {
	Notify(ctx context.Context, event OrderEvent) error
}

// DispatchScheduler queues an approved order for robot assignment.
type DispatchScheduler interface {
	Schedule(orderID kernel.UUID)
}

// Clock abstracts the current time.
type Clock interface {
	Now() time.Time
}
