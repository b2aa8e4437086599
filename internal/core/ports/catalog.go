package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
)

// Vendor is the catalog view of a vendor needed to place and dispatch an order.
type Vendor struct {
	ID      kernel.UUID
	Name    string
	Address order.Address
}

// CatalogItem is the catalog view of an item at the time of ordering.
type CatalogItem struct {
	ID           kernel.UUID
	VendorID     kernel.UUID
	Name         string
	Price        decimal.Decimal
	Available    bool
	UnitWeightKg float64
	UnitVolumeL  float64
}

// Catalog is a read-only view of vendors and items. Browsing and pricing live elsewhere.
type Catalog interface {
	// GetVendor returns errs.ObjectNotFoundError for unknown vendors.
	GetVendor(ctx context.Context, id kernel.UUID) (Vendor, error)

	// GetItems returns the known items among ids. Unknown ids are simply absent.
	GetItems(ctx context.Context, ids []kernel.UUID) ([]CatalogItem, error)
}
