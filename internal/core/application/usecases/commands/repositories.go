// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: validation, transaction management, and persistence.
//
// OrderLifecycle is the only code path that changes an order's status. The dispatcher and
// delivery code use cases call it inside their own unit of work so that robot, order and
// code changes commit together.
package commands

import (
	"context"

	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles database transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// RobotRepoFactory provides access to robot repository within a transaction.
	RobotRepoFactory interface {
		RobotRepository() ports.RobotRepository
	}

	// DeliveryCodeRepoFactory provides access to delivery code repository within a transaction.
	DeliveryCodeRepoFactory interface {
		DeliveryCodeRepository() ports.DeliveryCodeRepository
	}

	// OrderUoW manages transactions for order-only operations.
	// Used when commands only modify order aggregates.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// RobotUoW manages transactions for robot-only operations.
	// Used for fleet provisioning and telemetry.
	RobotUoW interface {
		TxManager
		RobotRepoFactory
	}

	// RobotUoWFactory creates new robot unit of work instances.
	RobotUoWFactory interface {
		Create() RobotUoW
	}

	// UoW manages transactions across orders, robots and delivery codes.
	// Used for commands that coordinate changes between multiple aggregate types.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   orderRepo := uow.OrderRepository()
	//   robotRepo := uow.RobotRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		RobotRepoFactory
		DeliveryCodeRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}
)

// Func adapters let a ports.UnitOfWorkFactory serve the narrower factories above.
type (
	FuncUoWFactory      func() UoW
	FuncOrderUoWFactory func() OrderUoW
	FuncRobotUoWFactory func() RobotUoW
)

func (f FuncUoWFactory) Create() UoW           { return f() }
func (f FuncOrderUoWFactory) Create() OrderUoW { return f() }
func (f FuncRobotUoWFactory) Create() RobotUoW { return f() }

// Metrics receives the business counters of the command side. *metrics.Metrics
// implements it.
type Metrics interface {
	TransitionApplied(from, to order.Status)
	TransitionRejected(to order.Status, reason string)
	DispatchOutcome(outcome string)
	DeliveryCodeChecked(result string)
	NotifierFailed()
	TelemetryRecorded()
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) TransitionApplied(order.Status, order.Status) {}
func (NopMetrics) TransitionRejected(order.Status, string)      {}
func (NopMetrics) DispatchOutcome(string)                       {}
func (NopMetrics) DeliveryCodeChecked(string)                   {}
func (NopMetrics) NotifierFailed()                              {}
func (NopMetrics) TelemetryRecorded()                           {}
