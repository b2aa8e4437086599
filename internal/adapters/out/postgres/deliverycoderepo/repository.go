package deliverycoderepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/pkg/errs"
)

// GormDeliveryCodeRepository implements ports.DeliveryCodeRepository using GORM.
type GormDeliveryCodeRepository struct {
	db *gorm.DB
}

// NewGormDeliveryCodeRepository creates a new GORM delivery code repository.
func NewGormDeliveryCodeRepository(db *gorm.DB) *GormDeliveryCodeRepository {
	return &GormDeliveryCodeRepository{db: db}
}

// Save inserts the record or replaces the one stored for the same order.
func (r *GormDeliveryCodeRepository) Save(ctx context.Context, record *otp.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	dto := fromDomain(record)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			UpdateAll: true,
		}).
		Create(&dto).Error
}

// Get retrieves the record of an order.
func (r *GormDeliveryCodeRepository) Get(ctx context.Context, orderID kernel.UUID) (*otp.Record, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dto DeliveryCodeDTO
	if err := r.db.WithContext(ctx).First(&dto, "order_id = ?", orderID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("delivery code", orderID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// MarkUsed flips is_used with UPDATE ... WHERE is_used = false AND code = ?, so of two
// concurrent confirmations only one matches a row.
func (r *GormDeliveryCodeRepository) MarkUsed(ctx context.Context, record *otp.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	db := r.db.WithContext(ctx)
	result := db.Model(&DeliveryCodeDTO{}).
		Where("order_id = ? AND is_used = ? AND code = ?", record.OrderID().Bytes(), false, record.Code().String()).
		Updates(map[string]any{
			"is_used": true,
			"used_at": record.UsedAt(),
		})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&DeliveryCodeDTO{}).Where("order_id = ?", record.OrderID().Bytes()).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("delivery code", record.OrderID().String())
		}
		return errs.NewConflictError("delivery code", record.OrderID().String(), "unused")
	}

	return nil
}

// IncrementAttempts adds one wrong attempt in the database, not in memory.
func (r *GormDeliveryCodeRepository) IncrementAttempts(ctx context.Context, orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Model(&DeliveryCodeDTO{}).
		Where("order_id = ?", orderID.Bytes()).
		UpdateColumn("attempts", gorm.Expr("attempts + 1"))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("delivery code", orderID.String())
	}
	return nil
}
