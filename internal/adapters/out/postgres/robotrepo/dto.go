// Package robotrepo maps fleet robots to the robots table.
package robotrepo

import (
	"time"

	"github.com/google/uuid"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/robot"
)

// RobotDTO represents the database structure for persisting robots. Dispatch columns
// (status, assigned order, load, maintenance) and telemetry columns (location, battery)
// are written by separate statements so that neither clobbers the other.
type RobotDTO struct {
	ID              uuid.UUID   `gorm:"type:uuid;primaryKey"`
	Name            string      `gorm:"type:varchar(255);not null;uniqueIndex"`
	Status          string      `gorm:"type:varchar(32);not null;index"`
	Location        LocationDTO `gorm:"embedded;embeddedPrefix:location_"`
	BatteryLevel    int         `gorm:"not null"`
	CapacityKg      float64     `gorm:"type:double precision;not null"`
	CapacityL       float64     `gorm:"type:double precision;not null"`
	LoadKg          float64     `gorm:"type:double precision;not null"`
	LoadL           float64     `gorm:"type:double precision;not null"`
	SpeedKmh        float64     `gorm:"type:double precision;not null"`
	AssignedOrderID *uuid.UUID  `gorm:"type:uuid;index"`
	LastMaintenance time.Time   `gorm:"type:timestamptz;not null"`
	UpdatedAt       time.Time   `gorm:"type:timestamptz;not null;autoUpdateTime:false"`
}

// TableName specifies the database table name for robots.
func (RobotDTO) TableName() string {
	return "robots"
}

// LocationDTO represents the embedded robot position.
type LocationDTO struct {
	Lat float64 `gorm:"type:double precision;not null"`
	Lng float64 `gorm:"type:double precision;not null"`
}

func fromDomain(r *robot.Robot) RobotDTO {
	var assigned *uuid.UUID
	if id := r.AssignedOrderID(); id != nil {
		raw := id.Bytes()
		assigned = &raw
	}

	return RobotDTO{
		ID:     r.ID().Bytes(),
		Name:   r.Name(),
		Status: r.Status().String(),
		Location: LocationDTO{
			Lat: r.Location().Lat(),
			Lng: r.Location().Lng(),
		},
		BatteryLevel:    r.BatteryLevel(),
		CapacityKg:      r.Capacity().WeightKg(),
		CapacityL:       r.Capacity().VolumeL(),
		LoadKg:          r.CurrentLoad().WeightKg(),
		LoadL:           r.CurrentLoad().VolumeL(),
		SpeedKmh:        r.SpeedKmh(),
		AssignedOrderID: assigned,
		LastMaintenance: r.LastMaintenance(),
		UpdatedAt:       r.UpdatedAt(),
	}
}

func (dto RobotDTO) dispatchColumns() map[string]any {
	return map[string]any{
		"status":            dto.Status,
		"assigned_order_id": dto.AssignedOrderID,
		"load_kg":           dto.LoadKg,
		"load_l":            dto.LoadL,
		"last_maintenance":  dto.LastMaintenance,
		"updated_at":        dto.UpdatedAt,
	}
}

func (dto RobotDTO) telemetryColumns() map[string]any {
	return map[string]any{
		"location_lat":  dto.Location.Lat,
		"location_lng":  dto.Location.Lng,
		"battery_level": dto.BatteryLevel,
		"updated_at":    dto.UpdatedAt,
	}
}

func toDomain(dto RobotDTO) (*robot.Robot, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	var assigned *kernel.UUID
	if dto.AssignedOrderID != nil {
		orderID, orderErr := kernel.UUIDFromBytes((*dto.AssignedOrderID)[:])
		if orderErr != nil {
			return nil, orderErr
		}
		assigned = &orderID
	}

	location, err := kernel.NewLocation(dto.Location.Lat, dto.Location.Lng)
	if err != nil {
		return nil, err
	}
	capacity, err := robot.NewPayload(dto.CapacityKg, dto.CapacityL)
	if err != nil {
		return nil, err
	}
	load, err := robot.NewPayload(dto.LoadKg, dto.LoadL)
	if err != nil {
		return nil, err
	}

	return robot.RestoreRobot(robot.State{
		ID:              id,
		Name:            dto.Name,
		Status:          robot.Status(dto.Status),
		Location:        location,
		BatteryLevel:    dto.BatteryLevel,
		Capacity:        capacity,
		CurrentLoad:     load,
		SpeedKmh:        dto.SpeedKmh,
		AssignedOrderID: assigned,
		LastMaintenance: dto.LastMaintenance,
		UpdatedAt:       dto.UpdatedAt,
	})
}
