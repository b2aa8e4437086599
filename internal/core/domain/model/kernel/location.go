package kernel

import (
	"errors"
	"fmt"
	"math"

	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

const (
	// LatitudeMin is the southern bound of a valid latitude in degrees.
	LatitudeMin = -90.0
	// LatitudeMax is the northern bound of a valid latitude in degrees.
	LatitudeMax = 90.0
	// LongitudeMin is the western bound of a valid longitude in degrees.
	LongitudeMin = -180.0
	// LongitudeMax is the eastern bound of a valid longitude in degrees.
	LongitudeMax = 180.0

	// EarthRadiusKm is the mean Earth radius used for great-circle distances.
	EarthRadiusKm = 6371.0
)

// ErrLocationIsNotConstructed is returned when attempting to use an improperly initialized Location.
var ErrLocationIsNotConstructed = errs.NewValueIsRequiredError(
	"location must be created via NewLocation")

// Location is an immutable latitude/longitude pair in decimal degrees.
// The zero value is invalid and fails validation; use NewLocation.
//
// Example:
//
//	vendor, err := kernel.NewLocation(52.5200, 13.4050)
//	if err != nil {
//	    return err
//	}
//	km, _ := vendor.Distance(customer)
type Location struct { //nolint:recvcheck //using for validation
	lat   float64
	lng   float64
	guard guard.ConstructorGuard
}

// NewLocation creates a Location, validating that lat lies in [LatitudeMin..LatitudeMax]
// and lng in [LongitudeMin..LongitudeMax]. Both violations are reported together.
func NewLocation(lat float64, lng float64) (Location, error) {
	loc := Location{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(loc.setLat(lat), loc.setLng(lng)); err != nil {
		return Location{}, err
	}

	return loc, nil
}

// Validate checks if the Location was properly constructed using a constructor.
func (l Location) Validate() error {
	return l.guard.Validate(ErrLocationIsNotConstructed)
}

// Lat returns the latitude in degrees.
func (l Location) Lat() float64 {
	return l.lat
}

// Lng returns the longitude in degrees.
func (l Location) Lng() float64 {
	return l.lng
}

// String implements fmt.Stringer, e.g. "Location(52.520000,13.405000)".
func (l Location) String() string {
	return fmt.Sprintf("Location(%.6f,%.6f)", l.lat, l.lng)
}

// IsEqual compares two locations for equality.
// Both locations must be properly constructed for the comparison to succeed.
func (l Location) IsEqual(other Location) (bool, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return false, err
	}

	return l == other, nil
}

// Distance returns the great-circle distance to other in kilometres using the
// haversine formula. It is symmetric and zero for identical points.
//
// Example:
//
//	berlin, _ := kernel.NewLocation(52.5200, 13.4050)
//	potsdam, _ := kernel.NewLocation(52.3906, 13.0645)
//	km, err := berlin.Distance(potsdam) // ~27 km
func (l Location) Distance(other Location) (float64, error) {
	if err := errors.Join(l.Validate(), other.Validate()); err != nil {
		return 0, err
	}

	return haversineKm(l.lat, l.lng, other.lat, other.lng), nil
}

// MoveTowards returns a point on the straight segment between l and target that is at
// most km kilometres away from l. When target is closer than km, target itself is returned.
// The interpolation is linear in degrees, which is accurate enough for the short hops of
// a delivery robot.
func (l Location) MoveTowards(target Location, km float64) (Location, error) {
	if km < 0 {
		return Location{}, errs.NewValueIsOutOfRangeError("km", km, 0, math.Inf(1))
	}

	total, err := l.Distance(target)
	if err != nil {
		return Location{}, err
	}

	if total <= km || total == 0 {
		return target, nil
	}

	ratio := km / total
	return NewLocation(
		l.lat+(target.lat-l.lat)*ratio,
		l.lng+(target.lng-l.lng)*ratio,
	)
}

// setLat sets the latitude with validation.
// Pointer receiver is used only by the constructor to validate and assign in one step.
func (l *Location) setLat(lat float64) error {
	if math.IsNaN(lat) || lat < LatitudeMin || lat > LatitudeMax {
		return errs.NewValueIsOutOfRangeError("lat", lat, LatitudeMin, LatitudeMax)
	}

	l.lat = lat
	return nil
}

// setLng sets the longitude with validation.
func (l *Location) setLng(lng float64) error {
	if math.IsNaN(lng) || lng < LongitudeMin || lng > LongitudeMax {
		return errs.NewValueIsOutOfRangeError("lng", lng, LongitudeMin, LongitudeMax)
	}

	l.lng = lng
	return nil
}

func haversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
