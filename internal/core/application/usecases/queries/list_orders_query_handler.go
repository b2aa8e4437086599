package queries

import (
	"context"

	"robodelivery/internal/core/ports"
)

// ListOrdersQueryHandler pages through orders.
type ListOrdersQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

// NewListOrdersQueryHandler creates a handler for order listings.
func NewListOrdersQueryHandler(uowFactory ports.UnitOfWorkFactory) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{uowFactory: uowFactory}
}

// Handle returns the requested page. A page beyond the end is empty, not an error.
func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) (ListOrdersResponse, error) {
	if err := query.Validate(); err != nil {
		return ListOrdersResponse{}, err
	}

	orders, total, err := h.uowFactory.Create().OrderRepository().Find(ctx, query.filter(), query.Page())
	if err != nil {
		return ListOrdersResponse{}, err
	}

	response := ListOrdersResponse{
		Orders: make([]OrderView, 0, len(orders)),
		Page:   query.Page().Number,
		Limit:  query.Page().Limit,
		Total:  total,
	}
	for _, o := range orders {
		response.Orders = append(response.Orders, NewOrderView(o, query.Caller()))
	}
	return response, nil
}
