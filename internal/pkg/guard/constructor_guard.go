// Package guard provides a marker that lets value objects, entities and commands
// detect whether they were built through their constructor or left as zero values.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate on an unconstructed guard
// when the caller passes no error of its own.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard is embedded as a private field. Constructors set it with
// NewConstructorGuard; the zero value fails Validate.
//
// Example:
//
//	type Capacity struct {
//	    weightKg float64
//	    guard    guard.ConstructorGuard
//	}
//
//	func (c Capacity) Validate() error {
//	    return c.guard.Validate(ErrCapacityIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard marked as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil for a constructed guard. Otherwise it returns validationError,
// or ErrDefaultConstructorGuard when validationError is nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
