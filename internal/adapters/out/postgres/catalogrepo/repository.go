package catalogrepo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// GormCatalog implements ports.Catalog using GORM.
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a catalog reader.
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

// GetVendor retrieves a vendor with its pickup address.
func (c *GormCatalog) GetVendor(ctx context.Context, id kernel.UUID) (ports.Vendor, error) {
	if err := id.Validate(); err != nil {
		return ports.Vendor{}, err
	}

	var dto VendorDTO
	if err := c.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Vendor{}, errs.NewObjectNotFoundError("vendor", id.String())
		}
		return ports.Vendor{}, err
	}

	return vendorToPort(dto)
}

// GetItems retrieves the known items among ids.
func (c *GormCatalog) GetItems(ctx context.Context, ids []kernel.UUID) ([]ports.CatalogItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	raw := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.Bytes())
	}

	var dtos []CatalogItemDTO
	if err := c.db.WithContext(ctx).Where("id IN ?", raw).Find(&dtos).Error; err != nil {
		return nil, err
	}

	items := make([]ports.CatalogItem, 0, len(dtos))
	for _, dto := range dtos {
		item, err := itemToPort(dto)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
