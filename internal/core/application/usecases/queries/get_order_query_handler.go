package queries

import (
	"context"

	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// GetOrderQueryHandler reads single orders.
type GetOrderQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

// NewGetOrderQueryHandler creates a handler for single order reads.
func NewGetOrderQueryHandler(uowFactory ports.UnitOfWorkFactory) GetOrderQueryHandler {
	return GetOrderQueryHandler{uowFactory: uowFactory}
}

// Handle returns the order if the caller may see it. Customers and vendors only see
// their own orders; anyone else gets an errs.ForbiddenError.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderView, error) {
	if err := query.Validate(); err != nil {
		return OrderView{}, err
	}

	o, err := h.uowFactory.Create().OrderRepository().Get(ctx, query.OrderID())
	if err != nil {
		return OrderView{}, err
	}
	if !o.VisibleTo(query.Caller()) {
		return OrderView{}, errs.NewForbiddenError("order belongs to someone else")
	}

	return NewOrderView(o, query.Caller()), nil
}
