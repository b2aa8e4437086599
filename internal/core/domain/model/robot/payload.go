package robot

import (
	"errors"
	"fmt"

	"robodelivery/internal/pkg/errs"
)

// Payload is a weight/volume pair. It is used both for what a robot can carry
// and for what it currently carries.
type Payload struct {
	weightKg float64
	volumeL  float64
}

// NewPayload validates that both components are finite and not negative.
func NewPayload(weightKg, volumeL float64) (Payload, error) {
	var errList []error
	if !(weightKg >= 0) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("weightKg is invalid",
			fmt.Errorf("%v is negative", weightKg)))
	}
	if !(volumeL >= 0) {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("volumeL is invalid",
			fmt.Errorf("%v is negative", volumeL)))
	}
	if err := errors.Join(errList...); err != nil {
		return Payload{}, err
	}
	return Payload{weightKg: weightKg, volumeL: volumeL}, nil
}

func (p Payload) WeightKg() float64 { return p.weightKg }
func (p Payload) VolumeL() float64  { return p.volumeL }

// IsZero reports whether nothing is carried.
func (p Payload) IsZero() bool {
	return p.weightKg == 0 && p.volumeL == 0
}

// Fits reports whether p fits into limit component-wise.
func (p Payload) Fits(limit Payload) bool {
	return p.weightKg <= limit.weightKg && p.volumeL <= limit.volumeL
}

func (p Payload) String() string {
	return fmt.Sprintf("%.2fkg/%.2fl", p.weightKg, p.volumeL)
}
