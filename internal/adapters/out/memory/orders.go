package memory

import (
	"context"
	"sort"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// OrderRepository implements ports.OrderRepository over a Store.
type OrderRepository struct {
	uow *UnitOfWork
}

func (r *OrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	return r.uow.write(ctx, func(tx *changes) error {
		if _, exists := r.uow.order(aggregate.ID()); exists {
			return errs.NewConflictError("order", aggregate.ID().String(), "absent")
		}
		tx.orders[aggregate.ID()] = aggregate.Snapshot()
		return nil
	})
}

func (r *OrderRepository) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	state, ok := r.uow.order(id)
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.RestoreOrder(state)
}

func (r *OrderRepository) UpdateIfStatus(ctx context.Context, aggregate *order.Order, expected order.Status) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	return r.uow.write(ctx, func(tx *changes) error {
		stored, ok := r.uow.order(aggregate.ID())
		if !ok {
			return errs.NewObjectNotFoundError("order", aggregate.ID().String())
		}
		if stored.Status != expected {
			return errs.NewConflictError("order", aggregate.ID().String(), expected)
		}
		tx.orders[aggregate.ID()] = aggregate.Snapshot()
		return nil
	})
}

func (r *OrderRepository) ListByStatus(_ context.Context, status order.Status, limit int) ([]*order.Order, error) {
	states := r.uow.allOrders()
	sort.Slice(states, func(i, j int) bool {
		return olderFirst(states[i], states[j])
	})

	var matched []*order.Order
	for _, state := range states {
		if state.Status != status {
			continue
		}
		if limit > 0 && len(matched) == limit {
			break
		}

		o, err := order.RestoreOrder(state)
		if err != nil {
			return nil, err
		}
		matched = append(matched, o)
	}
	return matched, nil
}

func (r *OrderRepository) Find(_ context.Context, filter ports.OrderFilter, page ports.Page) ([]*order.Order, int64, error) {
	states := r.uow.allOrders()
	sort.Slice(states, func(i, j int) bool {
		return olderFirst(states[j], states[i])
	})

	var matched []order.State
	for _, state := range states {
		if matches(filter, state) {
			matched = append(matched, state)
		}
	}

	total := int64(len(matched))
	start := min(page.Offset(), len(matched))
	end := min(start+page.Limit, len(matched))

	result := make([]*order.Order, 0, end-start)
	for _, state := range matched[start:end] {
		o, err := order.RestoreOrder(state)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, o)
	}
	return result, total, nil
}

func matches(filter ports.OrderFilter, state order.State) bool {
	if filter.Status != nil && state.Status != *filter.Status {
		return false
	}
	if filter.CustomerID != nil && !state.CustomerID.IsEqual(*filter.CustomerID) {
		return false
	}
	if filter.VendorID != nil && !state.VendorID.IsEqual(*filter.VendorID) {
		return false
	}
	return true
}

func olderFirst(a, b order.State) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
