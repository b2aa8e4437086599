// Package deliverycoderepo stores delivery codes, at most one per order.
package deliverycoderepo

import (
	"time"

	"github.com/google/uuid"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/otp"
)

// DeliveryCodeDTO is the delivery_codes row of an order.
type DeliveryCodeDTO struct {
	OrderID   uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Code      string     `gorm:"type:varchar(6);not null"`
	IssuedAt  time.Time  `gorm:"type:timestamptz;not null"`
	ExpiresAt time.Time  `gorm:"type:timestamptz;not null"`
	IsUsed    bool       `gorm:"not null"`
	UsedAt    *time.Time `gorm:"type:timestamptz"`
	Attempts  int        `gorm:"not null"`
}

func (DeliveryCodeDTO) TableName() string {
	return "delivery_codes"
}

func fromDomain(record *otp.Record) DeliveryCodeDTO {
	return DeliveryCodeDTO{
		OrderID:   record.OrderID().Bytes(),
		Code:      record.Code().String(),
		IssuedAt:  record.IssuedAt(),
		ExpiresAt: record.ExpiresAt(),
		IsUsed:    record.IsUsed(),
		UsedAt:    record.UsedAt(),
		Attempts:  record.Attempts(),
	}
}

func toDomain(dto DeliveryCodeDTO) (*otp.Record, error) {
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}

	return otp.RestoreRecord(orderID, otp.Code(dto.Code), dto.IssuedAt, dto.ExpiresAt,
		dto.IsUsed, dto.UsedAt, dto.Attempts)
}
