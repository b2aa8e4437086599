package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
)

const deliveryCodeLength = 6

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// StatusChange records one applied transition.
type StatusChange struct {
	From  Status
	To    Status
	Actor Actor
	Notes string
	At    time.Time
}

// Order is the aggregate root of the delivery lifecycle.
//
// Order follows these invariants:
//   - totalAmount always equals the sum of its line totals
//   - robotID is set iff status is robot_assigned, robot_picking_up or robot_delivering
//   - a delivery code is present iff status is robot_delivering
//   - status only moves along declared edges, requested by the role owning the edge
//
// The invariants are enforced locally; cross aggregate ones (the robot pointing back at
// this order) are the job of the application layer and the storage CAS.
type Order struct {
	id         kernel.UUID
	customerID kernel.UUID
	vendorID   kernel.UUID

	// robotID is the reserved robot (nil outside the robot_* statuses)
	robotID *kernel.UUID

	lines       []Line
	totalAmount decimal.Decimal
	status      Status

	deliveryAddress Address
	vendorAddress   Address
	notes           string

	// deliveryCode mirrors the active code while the robot is delivering
	deliveryCode  string
	codeExpiresAt *time.Time

	estimatedDeliveryTime *time.Time
	actualDeliveryTime    *time.Time
	createdAt             time.Time
	updatedAt             time.Time

	history []StatusChange

	isConstructed bool
}

// NewOrder places a new order in status pending. The total is computed from the lines;
// a client supplied total is never trusted.
//
// Example:
//
//	line, _ := order.NewLine(itemID, "Margherita", decimal.RequireFromString("12.50"), 2, 0.6, 1.5)
//	o, err := order.NewOrder(kernel.NewUUID(), customerID, vendorID,
//	    []order.Line{line}, deliveryAddress, vendorAddress, "ring twice", time.Now())
func NewOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	vendorID kernel.UUID,
	lines []Line,
	deliveryAddress Address,
	vendorAddress Address,
	notes string,
	now time.Time,
) (*Order, error) {
	o := &Order{
		status:        Pending,
		notes:         notes,
		createdAt:     now,
		updatedAt:     now,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setIDs(id, customerID, vendorID),
		o.setLines(lines),
		o.setAddresses(deliveryAddress, vendorAddress),
	); err != nil {
		return nil, err
	}

	return o, nil
}

// State is the persisted shape of an order, used by storage adapters to rebuild it.
type State struct {
	ID                    kernel.UUID
	CustomerID            kernel.UUID
	VendorID              kernel.UUID
	RobotID               *kernel.UUID
	Lines                 []Line
	TotalAmount           decimal.Decimal
	Status                Status
	DeliveryAddress       Address
	VendorAddress         Address
	Notes                 string
	DeliveryCode          string
	CodeExpiresAt         *time.Time
	EstimatedDeliveryTime *time.Time
	ActualDeliveryTime    *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	History               []StatusChange
}

// RestoreOrder rebuilds an order from storage and re-checks every local invariant,
// including that the stored total still equals the sum of the lines.
func RestoreOrder(s State) (*Order, error) {
	o := &Order{
		robotID:               copyUUID(s.RobotID),
		status:                s.Status,
		notes:                 s.Notes,
		deliveryCode:          s.DeliveryCode,
		codeExpiresAt:         copyTime(s.CodeExpiresAt),
		estimatedDeliveryTime: copyTime(s.EstimatedDeliveryTime),
		actualDeliveryTime:    copyTime(s.ActualDeliveryTime),
		createdAt:             s.CreatedAt,
		updatedAt:             s.UpdatedAt,
		history:               append([]StatusChange(nil), s.History...),
		isConstructed:         true,
	}

	if err := errors.Join(
		o.setIDs(s.ID, s.CustomerID, s.VendorID),
		o.setLines(s.Lines),
		o.setAddresses(s.DeliveryAddress, s.VendorAddress),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}

	if !o.totalAmount.Equal(s.TotalAmount) {
		return nil, errs.NewValueIsInvalidErrorWithCause("totalAmount is invalid",
			fmt.Errorf("stored %s does not match computed %s", s.TotalAmount, o.totalAmount))
	}

	if err := o.CheckInvariants(); err != nil {
		return nil, err
	}

	return o, nil
}

// Snapshot returns the persisted shape of the order. The result shares nothing with o.
func (o *Order) Snapshot() State {
	return State{
		ID:                    o.id,
		CustomerID:            o.customerID,
		VendorID:              o.vendorID,
		RobotID:               copyUUID(o.robotID),
		Lines:                 o.Lines(),
		TotalAmount:           o.totalAmount,
		Status:                o.status,
		DeliveryAddress:       o.deliveryAddress,
		VendorAddress:         o.vendorAddress,
		Notes:                 o.notes,
		DeliveryCode:          o.deliveryCode,
		CodeExpiresAt:         copyTime(o.codeExpiresAt),
		EstimatedDeliveryTime: copyTime(o.estimatedDeliveryTime),
		ActualDeliveryTime:    copyTime(o.actualDeliveryTime),
		CreatedAt:             o.createdAt,
		UpdatedAt:             o.updatedAt,
		History:               o.History(),
	}
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}

	return nil
}

// IsEqual compares two orders by their identifiers.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID         { return o.id }
func (o *Order) CustomerID() kernel.UUID { return o.customerID }
func (o *Order) VendorID() kernel.UUID   { return o.vendorID }
func (o *Order) Status() Status          { return o.status }
func (o *Order) Notes() string           { return o.notes }
func (o *Order) CreatedAt() time.Time    { return o.createdAt }
func (o *Order) UpdatedAt() time.Time    { return o.updatedAt }

// RobotID returns the reserved robot, or nil when none is attached.
func (o *Order) RobotID() *kernel.UUID {
	return copyUUID(o.robotID)
}

// Lines returns a copy of the order lines.
func (o *Order) Lines() []Line {
	return append([]Line(nil), o.lines...)
}

func (o *Order) TotalAmount() decimal.Decimal {
	return o.totalAmount
}

func (o *Order) DeliveryAddress() Address {
	return o.deliveryAddress
}

func (o *Order) VendorAddress() Address {
	return o.vendorAddress
}

// DeliveryCode returns the active delivery code and its expiry.
// The code is empty outside robot_delivering.
func (o *Order) DeliveryCode() (string, *time.Time) {
	return o.deliveryCode, copyTime(o.codeExpiresAt)
}

func (o *Order) EstimatedDeliveryTime() *time.Time {
	return copyTime(o.estimatedDeliveryTime)
}

func (o *Order) ActualDeliveryTime() *time.Time {
	return copyTime(o.actualDeliveryTime)
}

// History returns the transitions applied to this order, oldest first.
func (o *Order) History() []StatusChange {
	return append([]StatusChange(nil), o.history...)
}

// RequiredCapacity is the total weight and volume the robot has to carry.
func (o *Order) RequiredCapacity() (weightKg float64, volumeL float64) {
	for _, line := range o.lines {
		weightKg += line.WeightKg()
		volumeL += line.VolumeL()
	}
	return weightKg, volumeL
}

// Reached reports whether the order has ever been in status s.
func (o *Order) Reached(s Status) bool {
	if s == Pending || s == o.status || o.status.HasPassed(s) {
		return true
	}
	for _, change := range o.history {
		if change.To == s {
			return true
		}
	}
	return false
}

// VisibleTo reports whether actor may read this order. Customers and vendors only see
// their own orders.
func (o *Order) VisibleTo(actor Actor) bool {
	switch actor.Role() {
	case RoleCustomer:
		return actor.ID().IsEqual(o.customerID)
	case RoleVendor:
		return actor.ID().IsEqual(o.vendorID)
	case RoleOperator, RoleDispatcher, RoleDeliveryVerifier:
		return true
	default:
		return false
	}
}

// Authorize checks that actor may request target, without looking at the current status.
// Wrong role or wrong owner yields an errs.ForbiddenError.
func (o *Order) Authorize(target Status, actor Actor) error {
	role, ok := target.RequiredRole()
	if !ok {
		return NewInvalidTransitionError(o.status, target)
	}
	if actor.Role() != role {
		return errs.NewForbiddenError(fmt.Sprintf("%s may not move an order to %s", actor.Role(), target))
	}

	switch role {
	case RoleVendor:
		if !actor.ID().IsEqual(o.vendorID) {
			return errs.NewForbiddenError("order belongs to another vendor")
		}
	case RoleCustomer:
		if !actor.ID().IsEqual(o.customerID) {
			return errs.NewForbiddenError("order belongs to another customer")
		}
	case RoleDispatcher, RoleDeliveryVerifier, RoleOperator:
	}

	return nil
}

// Transition moves the order to target on behalf of actor.
//
// Errors, in the order they are checked:
//   - ValueIsInvalid: target is not a known status
//   - Forbidden: actor lacks the role for the edge or does not own the order
//   - Conflict: the order already is in target or has moved past it (a concurrent writer won)
//   - InvalidTransition: no edge from the current status to target
//
// Entering cancelled or delivered detaches the robot and clears the delivery code;
// entering delivered stamps actualDeliveryTime. Attaching the robot on robot_assigned and
// the code on robot_delivering is left to AttachRobot and SetDeliveryCode, so callers must
// run CheckInvariants before persisting.
func (o *Order) Transition(target Status, actor Actor, notes string, now time.Time) error {
	if err := target.Validate(); err != nil {
		return err
	}
	if err := o.Authorize(target, actor); err != nil {
		return err
	}
	if target == o.status || o.status.HasPassed(target) {
		return errs.NewConflictErrorWithCause("order", o.id, "eligible for "+string(target),
			fmt.Errorf("status is already %s", o.status))
	}
	if !o.status.CanTransitionTo(target) {
		return NewInvalidTransitionError(o.status, target)
	}

	from := o.status
	o.status = target
	o.updatedAt = now

	if target == Cancelled || target == Delivered {
		o.robotID = nil
		o.deliveryCode = ""
		o.codeExpiresAt = nil
	}
	if target == Delivered {
		at := now
		o.actualDeliveryTime = &at
	}

	o.history = append(o.history, StatusChange{From: from, To: target, Actor: actor, Notes: notes, At: now})
	return nil
}

// AttachRobot records the reserved robot and the delivery estimate. Only valid right
// after the transition to robot_assigned.
func (o *Order) AttachRobot(robotID kernel.UUID, eta time.Time) error {
	if err := robotID.Validate(); err != nil {
		return err
	}
	if o.status != RobotAssigned {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("cannot attach a robot in status %s", o.status))
	}
	if o.robotID != nil && !o.robotID.IsEqual(robotID) {
		return errs.NewValueIsInvalidErrorWithCause("robotID is invalid",
			fmt.Errorf("order already holds robot %s", o.robotID))
	}

	o.robotID = &robotID
	at := eta
	o.estimatedDeliveryTime = &at
	return nil
}

// SetDeliveryCode copies the active delivery code onto the order. Only valid in
// robot_delivering.
func (o *Order) SetDeliveryCode(code string, expiresAt time.Time) error {
	if o.status != RobotDelivering {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid",
			fmt.Errorf("cannot hold a delivery code in status %s", o.status))
	}
	if !isNumericCode(code) {
		return errs.NewValueIsInvalidErrorWithCause("deliveryCode is invalid",
			fmt.Errorf("expected %d digits", deliveryCodeLength))
	}

	o.deliveryCode = code
	at := expiresAt
	o.codeExpiresAt = &at
	return nil
}

// CheckInvariants verifies the robot and delivery code invariants for the current status.
func (o *Order) CheckInvariants() error {
	var errList []error

	if o.status.HasRobot() != (o.robotID != nil) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("robotID is invalid",
			fmt.Errorf("status %s with robot attached = %t", o.status, o.robotID != nil)))
	}
	if (o.status == RobotDelivering) != (o.deliveryCode != "") {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("deliveryCode is invalid",
			fmt.Errorf("status %s with delivery code present = %t", o.status, o.deliveryCode != "")))
	}
	if (o.deliveryCode != "") != (o.codeExpiresAt != nil) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("codeExpiresAt is invalid",
			errors.New("delivery code and its expiry must be set together")))
	}

	return errors.Join(errList...)
}

func (o *Order) setIDs(id, customerID, vendorID kernel.UUID) error {
	if err := errors.Join(id.Validate(), customerID.Validate(), vendorID.Validate()); err != nil {
		return err
	}
	o.id = id
	o.customerID = customerID
	o.vendorID = vendorID
	return nil
}

func (o *Order) setLines(lines []Line) error {
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("items")
	}

	total := decimal.Zero
	for i, line := range lines {
		if err := line.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", i, err)
		}
		total = total.Add(line.LineTotal())
	}

	o.lines = append([]Line(nil), lines...)
	o.totalAmount = total
	return nil
}

func (o *Order) setAddresses(delivery, vendor Address) error {
	if err := errors.Join(delivery.Validate(), vendor.Validate()); err != nil {
		return err
	}
	o.deliveryAddress = delivery
	o.vendorAddress = vendor
	return nil
}

func isNumericCode(code string) bool {
	if len(code) != deliveryCodeLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func copyUUID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
