// Package orderrepo provides data transfer objects and mapping functions for order persistence.
// This package implements the repository pattern for the order domain aggregate, handling
// the conversion between domain entities and database representations.
package orderrepo

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Lines and status history live in child tables and are written together with the order.
type OrderDTO struct {
	ID                    uuid.UUID         `gorm:"type:uuid;primaryKey"`
	CustomerID            uuid.UUID         `gorm:"type:uuid;not null;index"`
	VendorID              uuid.UUID         `gorm:"type:uuid;not null;index"`
	RobotID               *uuid.UUID        `gorm:"type:uuid"`
	Status                string            `gorm:"type:varchar(32);not null;index"`
	TotalAmount           decimal.Decimal   `gorm:"type:numeric(12,2);not null"`
	DeliveryAddress       AddressDTO        `gorm:"embedded;embeddedPrefix:delivery_"`
	VendorAddress         AddressDTO        `gorm:"embedded;embeddedPrefix:vendor_"`
	Notes                 string            `gorm:"type:text;not null"`
	DeliveryCode          *string           `gorm:"type:varchar(6)"`
	CodeExpiresAt         *time.Time        `gorm:"type:timestamptz"`
	EstimatedDeliveryTime *time.Time        `gorm:"type:timestamptz"`
	ActualDeliveryTime    *time.Time        `gorm:"type:timestamptz"`
	CreatedAt             time.Time         `gorm:"type:timestamptz;not null;autoCreateTime:false"`
	UpdatedAt             time.Time         `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
	Items                 []OrderItemDTO    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History               []StatusChangeDTO `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order entities.
func (OrderDTO) TableName() string {
	return "orders"
}

// AddressDTO is an address snapshot embedded twice in the order row.
type AddressDTO struct {
	Street     string   `gorm:"type:varchar(255);not null"`
	Landmark   string   `gorm:"type:varchar(255);not null"`
	City       string   `gorm:"type:varchar(128);not null"`
	PostalCode string   `gorm:"type:varchar(16);not null"`
	Lat        *float64 `gorm:"type:double precision"`
	Lng        *float64 `gorm:"type:double precision"`
}

// OrderItemDTO is one order line. Position keeps the order the customer listed items in.
type OrderItemDTO struct {
	OrderID      uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Position     int             `gorm:"primaryKey"`
	ItemID       uuid.UUID       `gorm:"type:uuid;not null"`
	Name         string          `gorm:"type:varchar(255);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Quantity     int             `gorm:"not null"`
	LineTotal    decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	UnitWeightKg float64         `gorm:"type:double precision;not null"`
	UnitVolumeL  float64         `gorm:"type:double precision;not null"`
}

func (OrderItemDTO) TableName() string {
	return "order_items"
}

// StatusChangeDTO is one applied transition. Rows are append only.
type StatusChangeDTO struct {
	OrderID    uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Seq        int        `gorm:"primaryKey"`
	FromStatus string     `gorm:"type:varchar(32);not null"`
	ToStatus   string     `gorm:"type:varchar(32);not null"`
	ActorRole  string     `gorm:"type:varchar(32);not null"`
	ActorID    *uuid.UUID `gorm:"type:uuid"`
	Notes      string     `gorm:"type:text;not null"`
	ChangedAt  time.Time  `gorm:"type:timestamptz;not null"`
}

func (StatusChangeDTO) TableName() string {
	return "order_status_history"
}

// fromDomain converts an order domain aggregate to its database representation.
func fromDomain(o *order.Order) OrderDTO {
	dto := OrderDTO{
		ID:                    o.ID().Bytes(),
		CustomerID:            o.CustomerID().Bytes(),
		VendorID:              o.VendorID().Bytes(),
		RobotID:               rawUUID(o.RobotID()),
		Status:                o.Status().String(),
		TotalAmount:           o.TotalAmount(),
		DeliveryAddress:       addressFromDomain(o.DeliveryAddress()),
		VendorAddress:         addressFromDomain(o.VendorAddress()),
		Notes:                 o.Notes(),
		EstimatedDeliveryTime: o.EstimatedDeliveryTime(),
		ActualDeliveryTime:    o.ActualDeliveryTime(),
		CreatedAt:             o.CreatedAt(),
		UpdatedAt:             o.UpdatedAt(),
	}

	if code, expiresAt := o.DeliveryCode(); code != "" {
		dto.DeliveryCode = &code
		dto.CodeExpiresAt = expiresAt
	}

	for i, line := range o.Lines() {
		dto.Items = append(dto.Items, OrderItemDTO{
			OrderID:      dto.ID,
			Position:     i,
			ItemID:       line.ItemID().Bytes(),
			Name:         line.Name(),
			UnitPrice:    line.UnitPrice(),
			Quantity:     line.Quantity(),
			LineTotal:    line.LineTotal(),
			UnitWeightKg: line.UnitWeightKg(),
			UnitVolumeL:  line.UnitVolumeL(),
		})
	}

	for i, change := range o.History() {
		entry := StatusChangeDTO{
			OrderID:    dto.ID,
			Seq:        i,
			FromStatus: change.From.String(),
			ToStatus:   change.To.String(),
			ActorRole:  string(change.Actor.Role()),
			Notes:      change.Notes,
			ChangedAt:  change.At,
		}
		if !change.Actor.Role().IsSystem() {
			id := change.Actor.ID().Bytes()
			entry.ActorID = &id
		}
		dto.History = append(dto.History, entry)
	}

	return dto
}

// columns returns the mutable columns of the order row for a conditional update.
func (dto OrderDTO) columns() map[string]any {
	return map[string]any{
		"robot_id":                dto.RobotID,
		"status":                  dto.Status,
		"delivery_code":           dto.DeliveryCode,
		"code_expires_at":         dto.CodeExpiresAt,
		"estimated_delivery_time": dto.EstimatedDeliveryTime,
		"actual_delivery_time":    dto.ActualDeliveryTime,
		"updated_at":              dto.UpdatedAt,
	}
}

func addressFromDomain(a order.Address) AddressDTO {
	dto := AddressDTO{
		Street:     a.Street(),
		Landmark:   a.Landmark(),
		City:       a.City(),
		PostalCode: a.PostalCode(),
	}
	if location, ok := a.Location(); ok {
		lat, lng := location.Lat(), location.Lng()
		dto.Lat, dto.Lng = &lat, &lng
	}
	return dto
}

// toDomain converts a database DTO to an order domain aggregate.
// Items and History must be preloaded.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}
	vendorID, err := kernel.UUIDFromBytes(dto.VendorID[:])
	if err != nil {
		return nil, err
	}
	robotID, err := domainUUID(dto.RobotID)
	if err != nil {
		return nil, err
	}
	deliveryAddress, err := addressToDomain(dto.DeliveryAddress)
	if err != nil {
		return nil, err
	}
	vendorAddress, err := addressToDomain(dto.VendorAddress)
	if err != nil {
		return nil, err
	}

	lines := make([]order.Line, 0, len(dto.Items))
	for _, item := range dto.Items {
		itemID, itemErr := kernel.UUIDFromBytes(item.ItemID[:])
		if itemErr != nil {
			return nil, itemErr
		}
		line, lineErr := order.RestoreLine(itemID, item.Name, item.UnitPrice, item.Quantity,
			item.LineTotal, item.UnitWeightKg, item.UnitVolumeL)
		if lineErr != nil {
			return nil, lineErr
		}
		lines = append(lines, line)
	}

	history := make([]order.StatusChange, 0, len(dto.History))
	for _, entry := range dto.History {
		actorID, idErr := domainUUID(entry.ActorID)
		if idErr != nil {
			return nil, idErr
		}
		actor, actorErr := order.RestoreActor(order.Role(entry.ActorRole), actorID)
		if actorErr != nil {
			return nil, actorErr
		}
		history = append(history, order.StatusChange{
			From:  order.Status(entry.FromStatus),
			To:    order.Status(entry.ToStatus),
			Actor: actor,
			Notes: entry.Notes,
			At:    entry.ChangedAt,
		})
	}

	state := order.State{
		ID:                    id,
		CustomerID:            customerID,
		VendorID:              vendorID,
		RobotID:               robotID,
		Lines:                 lines,
		TotalAmount:           dto.TotalAmount,
		Status:                order.Status(dto.Status),
		DeliveryAddress:       deliveryAddress,
		VendorAddress:         vendorAddress,
		Notes:                 dto.Notes,
		CodeExpiresAt:         dto.CodeExpiresAt,
		EstimatedDeliveryTime: dto.EstimatedDeliveryTime,
		ActualDeliveryTime:    dto.ActualDeliveryTime,
		CreatedAt:             dto.CreatedAt,
		UpdatedAt:             dto.UpdatedAt,
		History:               history,
	}
	if dto.DeliveryCode != nil {
		state.DeliveryCode = *dto.DeliveryCode
	}

	return order.RestoreOrder(state)
}

func addressToDomain(dto AddressDTO) (order.Address, error) {
	var location *kernel.Location
	if dto.Lat != nil && dto.Lng != nil {
		loc, err := kernel.NewLocation(*dto.Lat, *dto.Lng)
		if err != nil {
			return order.Address{}, err
		}
		location = &loc
	}
	return order.NewAddress(dto.Street, dto.Landmark, dto.City, dto.PostalCode, location)
}

func rawUUID(id *kernel.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

func domainUUID(raw *uuid.UUID) (*kernel.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := kernel.UUIDFromBytes(raw[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}
