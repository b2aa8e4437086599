package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrLineIsNotConstructed is returned when a Line was not created via NewLine or RestoreLine.
var ErrLineIsNotConstructed = errs.NewValueIsRequiredError("line must be created via NewLine")

// Line is a snapshot of one catalog item at the moment the order was placed.
// Prices are never re-read from the catalog afterwards.
type Line struct {
	itemID       kernel.UUID
	name         string
	unitPrice    decimal.Decimal
	quantity     int
	lineTotal    decimal.Decimal
	unitWeightKg float64
	unitVolumeL  float64
	guard        guard.ConstructorGuard
}

// NewLine snapshots an item and computes lineTotal = unitPrice × quantity.
func NewLine(
	itemID kernel.UUID,
	name string,
	unitPrice decimal.Decimal,
	quantity int,
	unitWeightKg float64,
	unitVolumeL float64,
) (Line, error) {
	line := Line{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		line.setItemID(itemID),
		line.setName(name),
		line.setUnitPrice(unitPrice),
		line.setQuantity(quantity),
		line.setDimensions(unitWeightKg, unitVolumeL),
	); err != nil {
		return Line{}, err
	}

	line.lineTotal = line.unitPrice.Mul(decimal.NewFromInt(int64(line.quantity)))
	return line, nil
}

// RestoreLine rebuilds a persisted line and checks the stored total still matches.
func RestoreLine(
	itemID kernel.UUID,
	name string,
	unitPrice decimal.Decimal,
	quantity int,
	lineTotal decimal.Decimal,
	unitWeightKg float64,
	unitVolumeL float64,
) (Line, error) {
	line, err := NewLine(itemID, name, unitPrice, quantity, unitWeightKg, unitVolumeL)
	if err != nil {
		return Line{}, err
	}
	if !line.lineTotal.Equal(lineTotal) {
		return Line{}, errs.NewValueIsInvalidErrorWithCause("lineTotal is invalid",
			fmt.Errorf("%s does not equal %s × %d", lineTotal, unitPrice, quantity))
	}
	return line, nil
}

func (l Line) Validate() error {
	return l.guard.Validate(ErrLineIsNotConstructed)
}

func (l Line) ItemID() kernel.UUID        { return l.itemID }
func (l Line) Name() string               { return l.name }
func (l Line) UnitPrice() decimal.Decimal { return l.unitPrice }
func (l Line) Quantity() int              { return l.quantity }
func (l Line) LineTotal() decimal.Decimal { return l.lineTotal }
func (l Line) UnitWeightKg() float64      { return l.unitWeightKg }
func (l Line) UnitVolumeL() float64       { return l.unitVolumeL }
func (l Line) WeightKg() float64          { return l.unitWeightKg * float64(l.quantity) }
func (l Line) VolumeL() float64           { return l.unitVolumeL * float64(l.quantity) }

func (l *Line) setItemID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	l.itemID = id
	return nil
}

func (l *Line) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("name")
	}
	l.name = name
	return nil
}

func (l *Line) setUnitPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return errs.NewValueIsInvalidErrorWithCause("unitPrice is invalid", fmt.Errorf("%s is negative", price))
	}
	l.unitPrice = price
	return nil
}

func (l *Line) setQuantity(quantity int) error {
	if quantity < 1 {
		return errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is less than 1", quantity))
	}
	l.quantity = quantity
	return nil
}

func (l *Line) setDimensions(weightKg, volumeL float64) error {
	if weightKg < 0 || volumeL < 0 {
		return errs.NewValueIsInvalidErrorWithCause("dimensions are invalid",
			fmt.Errorf("weight %.3f kg and volume %.3f l must not be negative", weightKg, volumeL))
	}
	l.unitWeightKg = weightKg
	l.unitVolumeL = volumeL
	return nil
}
