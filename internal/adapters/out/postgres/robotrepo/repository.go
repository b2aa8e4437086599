package robotrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"robodelivery/internal/adapters/out/postgres/pgerr"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"
)

// GormRobotRepository implements ports.RobotRepository using GORM.
type GormRobotRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker defines the interface for tracking aggregates.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

// NewGormRobotRepository creates a new GORM robot repository.
func NewGormRobotRepository(db *gorm.DB, tracker aggregateTracker) *GormRobotRepository {
	return &GormRobotRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add saves a newly provisioned robot. Names are unique.
func (r *GormRobotRepository) Add(ctx context.Context, aggregate *robot.Robot) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return pgerr.Translate(err, "robot", aggregate.Name(), "unique name")
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Get retrieves a robot by ID.
func (r *GormRobotRepository) Get(ctx context.Context, id kernel.UUID) (*robot.Robot, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto RobotDTO
	if err := r.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("robot", id.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// GetAll retrieves the whole fleet ordered by name.
func (r *GormRobotRepository) GetAll(ctx context.Context) ([]*robot.Robot, error) {
	return r.find(r.db.WithContext(ctx).Order("name ASC"))
}

// GetAllDispatchEligible retrieves idle robots with enough battery.
//
// Example:
//
//	robots, err := repo.GetAllDispatchEligible(ctx)
//	if err != nil {
//		return fmt.Errorf("failed to get eligible robots: %w", err)
//	}
//	for _, r := range robots {
//		fmt.Printf("available: %s (%d%%)\n", r.Name(), r.BatteryLevel())
//	}
func (r *GormRobotRepository) GetAllDispatchEligible(ctx context.Context) ([]*robot.Robot, error) {
	return r.find(r.db.WithContext(ctx).
		Where("status = ? AND battery_level > ?", robot.Idle.String(), robot.MinDispatchBattery).
		Order("name ASC"))
}

// GetByAssignedOrder retrieves the robot serving orderID.
func (r *GormRobotRepository) GetByAssignedOrder(ctx context.Context, orderID kernel.UUID) (*robot.Robot, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dto RobotDTO
	if err := r.db.WithContext(ctx).First(&dto, "assigned_order_id = ?", orderID.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("robot", "assigned to "+orderID.String())
		}
		return nil, err
	}

	return toDomain(dto)
}

// UpdateIfStatus writes the dispatch columns only if the stored status still equals expected.
func (r *GormRobotRepository) UpdateIfStatus(ctx context.Context, aggregate *robot.Robot, expected robot.Status) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	db := r.db.WithContext(ctx)

	query := db.Model(&RobotDTO{}).Where("id = ? AND status = ?", dto.ID, expected.String())
	if isClaim(aggregate, expected) {
		query = query.Where("battery_level > ?", robot.MinDispatchBattery)
	}

	result := query.Updates(dto.dispatchColumns())
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&RobotDTO{}).Where("id = ?", dto.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errs.NewObjectNotFoundError("robot", aggregate.ID().String())
		}
		return errs.NewConflictError("robot", aggregate.ID().String(), expected)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// UpdateTelemetry writes location, battery level and updated_at.
func (r *GormRobotRepository) UpdateTelemetry(ctx context.Context, aggregate *robot.Robot) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&RobotDTO{}).
		Where("id = ?", dto.ID).
		Updates(dto.telemetryColumns())
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("robot", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormRobotRepository) find(query *gorm.DB) ([]*robot.Robot, error) {
	var dtos []RobotDTO
	if err := query.Find(&dtos).Error; err != nil {
		return nil, err
	}

	robots := make([]*robot.Robot, 0, len(dtos))
	for _, dto := range dtos {
		rb, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		robots = append(robots, rb)
	}

	return robots, nil
}

// isClaim reports whether the write reserves an idle robot. A claim also requires the
// stored battery to still be dispatchable.
func isClaim(aggregate *robot.Robot, expected robot.Status) bool {
	return expected == robot.Idle && aggregate.Status() == robot.Assigned
}
