// Package ports defines the contracts between the application core and its adapters:
// repositories with conditional writes, the unit of work, the catalog, the notifier,
// the dispatch scheduler and the clock.
package ports

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// OrderFilter narrows Find. Nil fields are not filtered on.
type OrderFilter struct {
	Status     *order.Status
	CustomerID *kernel.UUID
	VendorID   *kernel.UUID
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Limit
}

// OrderRepository defines the persistence contract for order aggregates.
// Orders are never deleted.
type OrderRepository interface {
	// Add persists a new order aggregate with its lines.
	Add(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by id. Returns errs.ObjectNotFoundError when missing.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// UpdateIfStatus writes aggregate only if the stored status still equals expected,
	// as a single conditional update. When nothing matched it returns errs.ConflictError
	// and writes nothing.
	UpdateIfStatus(ctx context.Context, aggregate *order.Order, expected order.Status) error

	// ListByStatus returns up to limit orders in status, oldest first.
	ListByStatus(ctx context.Context, status order.Status, limit int) ([]*order.Order, error)

	// Find returns one page of orders matching filter, newest first, and the total count.
	Find(ctx context.Context, filter OrderFilter, page Page) ([]*order.Order, int64, error)
}
