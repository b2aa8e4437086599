package commands

import (
	"context"
	"errors"
	"fmt"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/ports"
)

// CreateOrderCommandHandler places orders. Every requested item must exist in the
// catalog, belong to the chosen vendor and be available; the total is computed from
// catalog prices.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, catalog, lifecycle)
//	created, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
//	// created.Status() == order.Pending
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	catalog    ports.Catalog
	lifecycle  *OrderLifecycle
}

// NewCreateOrderCommandHandler creates a handler for order creation operations.
func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	catalog ports.Catalog,
	lifecycle *OrderLifecycle,
) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		catalog:    catalog,
		lifecycle:  lifecycle,
	}
}

// Handle validates the items against the catalog, persists the order in pending and
// notifies the vendor and the customer.
func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	vendor, err := h.catalog.GetVendor(ctx, cmd.VendorID())
	if err != nil {
		return nil, err
	}

	lines, err := h.buildLines(ctx, cmd)
	if err != nil {
		return nil, err
	}

	created, err := order.NewOrder(
		cmd.OrderID(),
		cmd.Customer().ID(),
		vendor.ID,
		lines,
		cmd.DeliveryAddress(),
		vendor.Address,
		cmd.Notes(),
		h.lifecycle.Now(),
	)
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, created); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	h.lifecycle.Created(ctx, created)
	return created, nil
}

func (h *CreateOrderCommandHandler) buildLines(ctx context.Context, cmd CreateOrderCommand) ([]order.Line, error) {
	items, err := h.catalog.GetItems(ctx, cmd.ItemIDs())
	if err != nil {
		return nil, err
	}

	known := make(map[kernel.UUID]ports.CatalogItem, len(items))
	for _, item := range items {
		known[item.ID] = item
	}

	var (
		lines   = make([]order.Line, 0, len(cmd.Items()))
		errList []error
	)
	for _, requested := range cmd.Items() {
		item, ok := known[requested.ItemID]
		switch {
		case !ok:
			errList = append(errList, fmt.Errorf("%w: %s is unknown", ErrItemUnavailable, requested.ItemID))
			continue
		case !item.VendorID.IsEqual(cmd.VendorID()):
			errList = append(errList, fmt.Errorf("%w: %s", ErrVendorMismatch, requested.ItemID))
			continue
		case !item.Available:
			errList = append(errList, fmt.Errorf("%w: %s is out of stock", ErrItemUnavailable, requested.ItemID))
			continue
		}

		line, err := order.NewLine(
			item.ID, item.Name, item.Price, requested.Quantity, item.UnitWeightKg, item.UnitVolumeL,
		)
		if err != nil {
			errList = append(errList, err)
			continue
		}
		lines = append(lines, line)
	}

	if err = errors.Join(errList...); err != nil {
		return nil, err
	}
	return lines, nil
}
