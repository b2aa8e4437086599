// Package catalogrepo is the read-only view of vendors and items stored next to orders.
package catalogrepo

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
)

// VendorDTO is a vendors row.
type VendorDTO struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Street     string    `gorm:"type:varchar(255);not null"`
	Landmark   string    `gorm:"type:varchar(255);not null"`
	City       string    `gorm:"type:varchar(128);not null"`
	PostalCode string    `gorm:"type:varchar(16);not null"`
	Lat        *float64  `gorm:"type:double precision"`
	Lng        *float64  `gorm:"type:double precision"`
}

func (VendorDTO) TableName() string {
	return "vendors"
}

// CatalogItemDTO is a catalog_items row.
type CatalogItemDTO struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	VendorID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"type:varchar(255);not null"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Available    bool            `gorm:"not null"`
	UnitWeightKg float64         `gorm:"type:double precision;not null"`
	UnitVolumeL  float64         `gorm:"type:double precision;not null"`
}

func (CatalogItemDTO) TableName() string {
	return "catalog_items"
}

func vendorToPort(dto VendorDTO) (ports.Vendor, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return ports.Vendor{}, err
	}

	var location *kernel.Location
	if dto.Lat != nil && dto.Lng != nil {
		loc, locErr := kernel.NewLocation(*dto.Lat, *dto.Lng)
		if locErr != nil {
			return ports.Vendor{}, locErr
		}
		location = &loc
	}

	address, err := order.NewAddress(dto.Street, dto.Landmark, dto.City, dto.PostalCode, location)
	if err != nil {
		return ports.Vendor{}, err
	}

	return ports.Vendor{ID: id, Name: dto.Name, Address: address}, nil
}

func itemToPort(dto CatalogItemDTO) (ports.CatalogItem, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return ports.CatalogItem{}, err
	}
	vendorID, err := kernel.UUIDFromBytes(dto.VendorID[:])
	if err != nil {
		return ports.CatalogItem{}, err
	}

	return ports.CatalogItem{
		ID:           id,
		VendorID:     vendorID,
		Name:         dto.Name,
		Price:        dto.Price,
		Available:    dto.Available,
		UnitWeightKg: dto.UnitWeightKg,
		UnitVolumeL:  dto.UnitVolumeL,
	}, nil
}
