package memory

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// Catalog is an in-memory ports.Catalog.
type Catalog struct {
	mu      sync.RWMutex
	vendors map[kernel.UUID]ports.Vendor
	items   map[kernel.UUID]ports.CatalogItem
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		vendors: make(map[kernel.UUID]ports.Vendor),
		items:   make(map[kernel.UUID]ports.CatalogItem),
	}
}

// AddVendor inserts or replaces a vendor.
func (c *Catalog) AddVendor(vendor ports.Vendor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vendors[vendor.ID] = vendor
}

// AddItem inserts or replaces an item.
func (c *Catalog) AddItem(item ports.CatalogItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[item.ID] = item
}

func (c *Catalog) GetVendor(_ context.Context, id kernel.UUID) (ports.Vendor, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	vendor, ok := c.vendors[id]
	if !ok {
		return ports.Vendor{}, errs.NewObjectNotFoundError("vendor", id.String())
	}
	return vendor, nil
}

func (c *Catalog) GetItems(_ context.Context, ids []kernel.UUID) ([]ports.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	items := make([]ports.CatalogItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := c.items[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// Demo catalog ids, shared with the postgres seed migration.
var (
	DemoVendorID     = kernel.MustParseUUID("6f1c2a9e-3b4d-4e5f-8a7b-1c2d3e4f5a60")
	DemoPizzaID      = kernel.MustParseUUID("0b7e4a1c-2d3f-4a5b-9c6d-7e8f9a0b1c21")
	DemoLemonadeID   = kernel.MustParseUUID("1c8f5b2d-3e4a-4b6c-8d7e-8f9a0b1c2d32")
	DemoFamilyBoxID  = kernel.MustParseUUID("2d9a6c3e-4f5b-4c7d-9e8f-9a0b1c2d3e43")
	demoVendorCoords = [2]float64{52.520008, 13.404954}
)

// SeedDemo fills c with the demo vendor and its items.
func SeedDemo(c *Catalog) error {
	location, err := kernel.NewLocation(demoVendorCoords[0], demoVendorCoords[1])
	if err != nil {
		return err
	}
	address, err := order.NewAddress("Alexanderplatz 1", "", "Berlin", "10178", &location)
	if err != nil {
		return err
	}

	c.AddVendor(ports.Vendor{ID: DemoVendorID, Name: "Demo Kitchen", Address: address})
	c.AddItem(ports.CatalogItem{
		ID: DemoPizzaID, VendorID: DemoVendorID, Name: "Margherita",
		Price: decimal.RequireFromString("12.50"), Available: true, UnitWeightKg: 0.6, UnitVolumeL: 3,
	})
	c.AddItem(ports.CatalogItem{
		ID: DemoLemonadeID, VendorID: DemoVendorID, Name: "Lemonade",
		Price: decimal.RequireFromString("3.20"), Available: true, UnitWeightKg: 0.5, UnitVolumeL: 0.5,
	})
	c.AddItem(ports.CatalogItem{
		ID: DemoFamilyBoxID, VendorID: DemoVendorID, Name: "Family Box",
		Price: decimal.RequireFromString("399.00"), Available: true, UnitWeightKg: 6, UnitVolumeL: 20,
	})
	return nil
}
