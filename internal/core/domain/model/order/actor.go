package order

import (
	"fmt"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
)

// Role is the kind of principal requesting a change.
type Role string

const (
	RoleCustomer         Role = "customer"
	RoleVendor           Role = "vendor"
	RoleDispatcher       Role = "dispatcher"
	RoleDeliveryVerifier Role = "delivery_verifier"
	RoleOperator         Role = "operator"
)

// Validate checks that r is a known role.
func (r Role) Validate() error {
	switch r {
	case RoleCustomer, RoleVendor, RoleDispatcher, RoleDeliveryVerifier, RoleOperator:
		return nil
	default:
		return errs.NewValueIsInvalidErrorWithCause("role is invalid", fmt.Errorf("%q is not a valid role", string(r)))
	}
}

// IsSystem reports whether r is an internal role that never comes from a client.
func (r Role) IsSystem() bool {
	return r == RoleDispatcher || r == RoleDeliveryVerifier
}

// Actor identifies who asks for a change. Customers, vendors and operators carry
// their own id; system actors do not.
type Actor struct {
	role Role
	id   kernel.UUID
}

// NewActor builds a client actor. System roles are rejected; use SystemActor for them.
func NewActor(role Role, id kernel.UUID) (Actor, error) {
	if err := role.Validate(); err != nil {
		return Actor{}, err
	}
	if role.IsSystem() {
		return Actor{}, errs.NewValueIsInvalidErrorWithCause("role is invalid",
			fmt.Errorf("%s is reserved for internal callers", role))
	}
	if err := id.Validate(); err != nil {
		return Actor{}, err
	}
	return Actor{role: role, id: id}, nil
}

// SystemActor returns the actor used by the dispatcher or the delivery code verifier.
func SystemActor(role Role) Actor {
	return Actor{role: role}
}

// RestoreActor rebuilds a stored actor. System roles carry no id.
func RestoreActor(role Role, id *kernel.UUID) (Actor, error) {
	if err := role.Validate(); err != nil {
		return Actor{}, err
	}
	if role.IsSystem() {
		return SystemActor(role), nil
	}
	if id == nil {
		return Actor{}, errs.NewValueIsRequiredError("actor id")
	}
	return NewActor(role, *id)
}

// Dispatcher is the actor driving the robot_* transitions.
func Dispatcher() Actor {
	return SystemActor(RoleDispatcher)
}

// DeliveryVerifier is the actor driving robot_delivering → delivered.
func DeliveryVerifier() Actor {
	return SystemActor(RoleDeliveryVerifier)
}

func (a Actor) Role() Role {
	return a.role
}

func (a Actor) ID() kernel.UUID {
	return a.id
}

// Is reports whether the actor has the given role and id.
func (a Actor) Is(role Role, id kernel.UUID) bool {
	return a.role == role && a.id.IsEqual(id)
}

func (a Actor) String() string {
	if a.role.IsSystem() {
		return string(a.role)
	}
	return fmt.Sprintf("%s:%s", a.role, a.id)
}
