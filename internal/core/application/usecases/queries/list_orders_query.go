package queries

import (
	"errors"
	"math"

	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via NewListOrdersQuery constructor",
)

// ListOrdersQuery pages through the orders the caller may see, newest first.
// Customers get their own orders, vendors the orders placed with them and operators
// everything.
type ListOrdersQuery struct {
	caller order.Actor
	status *order.Status
	page   ports.Page

	guard guard.ConstructorGuard
}

// NewListOrdersQuery creates a listing query. page 0 means the first page and limit 0
// means ports.DefaultPageLimit; limit may not exceed ports.MaxPageLimit.
func NewListOrdersQuery(caller order.Actor, status *order.Status, page, limit int) (ListOrdersQuery, error) {
	var errList []error

	if status != nil {
		if err := status.Validate(); err != nil {
			errList = append(errList, err)
		}
	}
	if page == 0 {
		page = 1
	}
	if page < 1 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("page", page, 1, math.MaxInt))
	}
	if limit == 0 {
		limit = ports.DefaultPageLimit
	}
	if limit < 1 || limit > ports.MaxPageLimit {
		errList = append(errList, errs.NewValueIsOutOfRangeError("limit", limit, 1, ports.MaxPageLimit))
	}
	if caller.Role().IsSystem() {
		errList = append(errList, errs.NewForbiddenError("orders are listed for clients only"))
	}

	if err := errors.Join(errList...); err != nil {
		return ListOrdersQuery{}, err
	}

	return ListOrdersQuery{
		caller: caller,
		status: status,
		page:   ports.Page{Number: page, Limit: limit},
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}

func (q ListOrdersQuery) Caller() order.Actor   { return q.caller }
func (q ListOrdersQuery) Status() *order.Status { return q.status }
func (q ListOrdersQuery) Page() ports.Page      { return q.page }

// filter scopes the listing to what the caller may see.
func (q ListOrdersQuery) filter() ports.OrderFilter {
	filter := ports.OrderFilter{Status: q.status}

	id := q.caller.ID()
	switch q.caller.Role() {
	case order.RoleCustomer:
		filter.CustomerID = &id
	case order.RoleVendor:
		filter.VendorID = &id
	default:
	}
	return filter
}

// ListOrdersResponse is one page of orders.
type ListOrdersResponse struct {
	Orders []OrderView
	Page   int
	Limit  int
	Total  int64
}
