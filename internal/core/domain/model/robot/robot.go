package robot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

const (
	// MinDispatchBattery is the battery level a robot must exceed to take new orders.
	MinDispatchBattery = 20
	// MaxBattery is a fully charged battery.
	MaxBattery = 100
)

var (
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")

	// ErrRobotIsNotConstructed is returned when a Robot was not created via NewRobot or RestoreRobot.
	ErrRobotIsNotConstructed = errors.New("Robot must be created via NewRobot constructor")

	// ErrRobotNotAvailable is returned when an assignment is attempted on a robot that is
	// not dispatch eligible or cannot carry the load.
	ErrRobotNotAvailable = errors.New("robot is not available for dispatch")

	// ErrOrderMismatch is returned when a phase change names an order the robot is not serving.
	ErrOrderMismatch = errors.New("robot is assigned to a different order")
)

// Robot is a delivery robot of the fleet.
//
// Robot follows these invariants:
//   - name is not empty
//   - battery level is within [0..MaxBattery]
//   - currentLoad fits capacity
//   - assignedOrderID is set iff the status is busy
type Robot struct {
	id              kernel.UUID
	name            string
	status          Status
	location        kernel.Location
	batteryLevel    int
	capacity        Payload
	currentLoad     Payload
	speedKmh        float64
	assignedOrderID *kernel.UUID
	lastMaintenance time.Time
	updatedAt       time.Time
	guard           guard.ConstructorGuard
}

// NewRobot provisions an idle, empty robot.
//
// Example:
//
//	capacity, _ := robot.NewPayload(15, 40)
//	r, err := robot.NewRobot(kernel.NewUUID(), "RB-07", location, 100, capacity, 6, time.Now(), time.Now())
func NewRobot(
	id kernel.UUID,
	name string,
	location kernel.Location,
	batteryLevel int,
	capacity Payload,
	speedKmh float64,
	lastMaintenance time.Time,
	now time.Time,
) (*Robot, error) {
	r := &Robot{
		status:          Idle,
		lastMaintenance: lastMaintenance,
		updatedAt:       now,
		guard:           guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		r.setID(id),
		r.setName(name),
		r.setLocation(location),
		r.setBatteryLevel(batteryLevel),
		r.setSpeed(speedKmh),
		r.setCapacity(capacity),
	); err != nil {
		return nil, err
	}

	return r, nil
}

// State is the persisted shape of a robot.
type State struct {
	ID              kernel.UUID
	Name            string
	Status          Status
	Location        kernel.Location
	BatteryLevel    int
	Capacity        Payload
	CurrentLoad     Payload
	SpeedKmh        float64
	AssignedOrderID *kernel.UUID
	LastMaintenance time.Time
	UpdatedAt       time.Time
}

// RestoreRobot rebuilds a robot from storage and re-checks its invariants.
func RestoreRobot(s State) (*Robot, error) {
	r := &Robot{
		status:          s.Status,
		currentLoad:     s.CurrentLoad,
		lastMaintenance: s.LastMaintenance,
		updatedAt:       s.UpdatedAt,
		guard:           guard.NewConstructorGuard(),
	}
	if s.AssignedOrderID != nil {
		id := *s.AssignedOrderID
		r.assignedOrderID = &id
	}

	if err := errors.Join(
		r.setID(s.ID),
		r.setName(s.Name),
		r.setLocation(s.Location),
		r.setBatteryLevel(s.BatteryLevel),
		r.setSpeed(s.SpeedKmh),
		r.setCapacity(s.Capacity),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}

	if err := r.CheckInvariants(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *Robot) Validate() error {
	if r == nil {
		return ErrRobotIsNotConstructed
	}
	return r.guard.Validate(ErrRobotIsNotConstructed)
}

func (r *Robot) IsEqual(other *Robot) bool {
	return other != nil && r.id.IsEqual(other.id)
}

func (r *Robot) ID() kernel.UUID            { return r.id }
func (r *Robot) Name() string               { return r.name }
func (r *Robot) Status() Status             { return r.status }
func (r *Robot) Location() kernel.Location  { return r.location }
func (r *Robot) BatteryLevel() int          { return r.batteryLevel }
func (r *Robot) Capacity() Payload          { return r.capacity }
func (r *Robot) CurrentLoad() Payload       { return r.currentLoad }
func (r *Robot) SpeedKmh() float64          { return r.speedKmh }
func (r *Robot) LastMaintenance() time.Time { return r.lastMaintenance }
func (r *Robot) UpdatedAt() time.Time       { return r.updatedAt }

// AssignedOrderID returns the order being served, or nil when idle.
func (r *Robot) AssignedOrderID() *kernel.UUID {
	if r.assignedOrderID == nil {
		return nil
	}
	id := *r.assignedOrderID
	return &id
}

// Snapshot returns the persisted shape of the robot.
func (r *Robot) Snapshot() State {
	return State{
		ID:              r.id,
		Name:            r.name,
		Status:          r.status,
		Location:        r.location,
		BatteryLevel:    r.batteryLevel,
		Capacity:        r.capacity,
		CurrentLoad:     r.currentLoad,
		SpeedKmh:        r.speedKmh,
		AssignedOrderID: r.AssignedOrderID(),
		LastMaintenance: r.lastMaintenance,
		UpdatedAt:       r.updatedAt,
	}
}

// IsDispatchEligible reports whether the robot may be offered a new order.
func (r *Robot) IsDispatchEligible() bool {
	return r.status == Idle && r.batteryLevel > MinDispatchBattery
}

// CanCarry reports whether load fits the capacity left after the current load.
func (r *Robot) CanCarry(load Payload) bool {
	free := Payload{
		weightKg: r.capacity.weightKg - r.currentLoad.weightKg,
		volumeL:  r.capacity.volumeL - r.currentLoad.volumeL,
	}
	return load.Fits(free)
}

// Assign reserves the robot for orderID and loads it. The robot must be dispatch
// eligible and able to carry load.
func (r *Robot) Assign(orderID kernel.UUID, load Payload, now time.Time) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	if !r.IsDispatchEligible() {
		return fmt.Errorf("%w: status %s, battery %d", ErrRobotNotAvailable, r.status, r.batteryLevel)
	}
	if !r.CanCarry(load) {
		return fmt.Errorf("%w: load %s exceeds capacity %s", ErrRobotNotAvailable, load, r.capacity)
	}

	r.status = Assigned
	r.assignedOrderID = &orderID
	r.currentLoad = load
	r.updatedAt = now
	return nil
}

// StartPickup moves an assigned robot to picking_up.
func (r *Robot) StartPickup(orderID kernel.UUID, now time.Time) error {
	return r.advance(orderID, Assigned, PickingUp, now)
}

// StartDelivery moves a picking_up robot to delivering.
func (r *Robot) StartDelivery(orderID kernel.UUID, now time.Time) error {
	return r.advance(orderID, PickingUp, Delivering, now)
}

// Release returns the robot to idle from any busy phase, clearing the order and the load.
func (r *Robot) Release(orderID kernel.UUID, now time.Time) error {
	if err := r.checkServing(orderID); err != nil {
		return err
	}

	r.status = Idle
	r.assignedOrderID = nil
	r.currentLoad = Payload{}
	r.updatedAt = now
	return nil
}

// IsServing reports whether the robot is busy with orderID.
func (r *Robot) IsServing(orderID kernel.UUID) bool {
	return r.status.IsBusy() && r.assignedOrderID != nil && r.assignedOrderID.IsEqual(orderID)
}

// ReportTelemetry records a position and battery reading.
func (r *Robot) ReportTelemetry(location kernel.Location, batteryLevel int, now time.Time) error {
	if err := errors.Join(location.Validate(), validateBattery(batteryLevel)); err != nil {
		return err
	}

	r.location = location
	r.batteryLevel = batteryLevel
	r.updatedAt = now
	return nil
}

// SetAvailability lets an operator take an idle robot out of service or put it back.
// Busy robots must be released first.
func (r *Robot) SetAvailability(status Status, now time.Time) error {
	if err := status.Validate(); err != nil {
		return err
	}
	if status.IsBusy() || r.status.IsBusy() {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("cannot change %s to %s outside dispatch", r.status, status))
	}
	if status == Maintenance || (r.status == Maintenance && status == Idle) {
		r.lastMaintenance = now
	}

	r.status = status
	r.updatedAt = now
	return nil
}

// TimeTo estimates how long the robot needs to reach target at its cruising speed.
func (r *Robot) TimeTo(target kernel.Location) (time.Duration, error) {
	km, err := r.location.Distance(target)
	if err != nil {
		return 0, err
	}

	return time.Duration(km / r.speedKmh * float64(time.Hour)), nil
}

// CheckInvariants verifies the order reservation and load invariants.
func (r *Robot) CheckInvariants() error {
	var errList []error

	if r.status.IsBusy() != (r.assignedOrderID != nil) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("assignedOrderID is invalid",
			fmt.Errorf("status %s with order assigned = %t", r.status, r.assignedOrderID != nil)))
	}
	if !r.currentLoad.Fits(r.capacity) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("currentLoad is invalid",
			fmt.Errorf("load %s exceeds capacity %s", r.currentLoad, r.capacity)))
	}

	return errors.Join(errList...)
}

func (r *Robot) advance(orderID kernel.UUID, from, to Status, now time.Time) error {
	if err := r.checkServing(orderID); err != nil {
		return err
	}
	if r.status != from {
		return errs.NewConflictErrorWithCause("robot", r.id, from, fmt.Errorf("status is %s", r.status))
	}

	r.status = to
	r.updatedAt = now
	return nil
}

func (r *Robot) checkServing(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	if !r.IsServing(orderID) {
		return fmt.Errorf("%w: robot %s, order %s", ErrOrderMismatch, r.id, orderID)
	}
	return nil
}

func (r *Robot) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	r.id = id
	return nil
}

func (r *Robot) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameIsRequired
	}
	r.name = name
	return nil
}

func (r *Robot) setLocation(location kernel.Location) error {
	if err := location.Validate(); err != nil {
		return err
	}
	r.location = location
	return nil
}

func (r *Robot) setBatteryLevel(level int) error {
	if err := validateBattery(level); err != nil {
		return err
	}
	r.batteryLevel = level
	return nil
}

func (r *Robot) setSpeed(speedKmh float64) error {
	if !(speedKmh > 0) {
		return errs.NewValueIsInvalidErrorWithCause("speedKmh is invalid", fmt.Errorf("%v is not greater than 0", speedKmh))
	}
	r.speedKmh = speedKmh
	return nil
}

func (r *Robot) setCapacity(capacity Payload) error {
	if capacity.IsZero() {
		return errs.NewValueIsRequiredError("capacity")
	}
	r.capacity = capacity
	return nil
}

func validateBattery(level int) error {
	if level < 0 || level > MaxBattery {
		return errs.NewValueIsOutOfRangeError("batteryLevel", level, 0, MaxBattery)
	}
	return nil
}
