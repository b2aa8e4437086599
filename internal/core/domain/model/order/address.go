package order

import (
	"errors"
	"strings"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

// ErrAddressIsNotConstructed is returned when an Address was not created via NewAddress.
var ErrAddressIsNotConstructed = errs.NewValueIsRequiredError("address must be created via NewAddress")

// Address is a structured location snapshot. It is either street based or, for
// campuses and parks, landmark based; coordinates are optional.
type Address struct {
	street     string
	landmark   string
	city       string
	postalCode string
	location   *kernel.Location
	guard      guard.ConstructorGuard
}

// NewAddress requires a city and at least one of street or landmark.
func NewAddress(street, landmark, city, postalCode string, location *kernel.Location) (Address, error) {
	a := Address{
		street:     strings.TrimSpace(street),
		landmark:   strings.TrimSpace(landmark),
		city:       strings.TrimSpace(city),
		postalCode: strings.TrimSpace(postalCode),
		guard:      guard.NewConstructorGuard(),
	}

	var errList []error
	if a.street == "" && a.landmark == "" {
		errList = append(errList, errs.NewValueIsRequiredError("street or landmark"))
	}
	if a.city == "" {
		errList = append(errList, errs.NewValueIsRequiredError("city"))
	}
	if location != nil {
		if err := location.Validate(); err != nil {
			errList = append(errList, err)
		} else {
			loc := *location
			a.location = &loc
		}
	}
	if err := errors.Join(errList...); err != nil {
		return Address{}, err
	}

	return a, nil
}

func (a Address) Validate() error {
	return a.guard.Validate(ErrAddressIsNotConstructed)
}

func (a Address) Street() string     { return a.street }
func (a Address) Landmark() string   { return a.landmark }
func (a Address) City() string       { return a.city }
func (a Address) PostalCode() string { return a.postalCode }

// Location returns the coordinates, if the address carries any.
func (a Address) Location() (kernel.Location, bool) {
	if a.location == nil {
		return kernel.Location{}, false
	}
	return *a.location, true
}
