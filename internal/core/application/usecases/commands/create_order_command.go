package commands

import (
	"errors"
	"fmt"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/pkg/errs"
	"robodelivery/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrItemsAreRequired = errors.New("at least one item is required")
)

// OrderItem is one requested catalog item and how many of it.
type OrderItem struct {
	ItemID   kernel.UUID
	Quantity int
}

// CreateOrderCommand represents a customer placing an order with one vendor.
// Prices, names and dimensions are taken from the catalog, never from the request.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(customer, vendorID,
//	    []OrderItem{{ItemID: pizzaID, Quantity: 2}}, deliveryAddress, "ring twice")
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID         kernel.UUID
	customer        order.Actor
	vendorID        kernel.UUID
	items           []OrderItem
	deliveryAddress order.Address
	notes           string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand creates a command to place a new order.
// Generates the order id. Repeated items are merged into one entry.
func NewCreateOrderCommand(
	customer order.Actor,
	vendorID kernel.UUID,
	items []OrderItem,
	deliveryAddress order.Address,
	notes string,
) (CreateOrderCommand, error) {
	command := CreateOrderCommand{
		notes: notes,
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		command.setOrderID(kernel.NewUUID()),
		command.setCustomer(customer),
		command.setVendorID(vendorID),
		command.setItems(items),
		command.setDeliveryAddress(deliveryAddress),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	return command, nil
}

// Validate ensures the command was created through the constructor.
// Returns ErrCreateOrderCommandIsNotConstructed if validation fails.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

// OrderID returns the unique identifier for the new order.
func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Customer returns the customer placing the order.
func (c CreateOrderCommand) Customer() order.Actor {
	return c.customer
}

// VendorID returns the vendor the order is placed with.
func (c CreateOrderCommand) VendorID() kernel.UUID {
	return c.vendorID
}

// Items returns a copy of the requested items.
func (c CreateOrderCommand) Items() []OrderItem {
	return append([]OrderItem(nil), c.items...)
}

// ItemIDs returns the distinct requested item ids.
func (c CreateOrderCommand) ItemIDs() []kernel.UUID {
	ids := make([]kernel.UUID, len(c.items))
	for i, item := range c.items {
		ids[i] = item.ItemID
	}
	return ids
}

// DeliveryAddress returns where the order goes.
func (c CreateOrderCommand) DeliveryAddress() order.Address {
	return c.deliveryAddress
}

// Notes returns free-form instructions from the customer.
func (c CreateOrderCommand) Notes() string {
	return c.notes
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}

	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setCustomer(customer order.Actor) error {
	if customer.Role() != order.RoleCustomer {
		return errs.NewForbiddenError("only customers may place orders")
	}
	if err := customer.ID().Validate(); err != nil {
		return err
	}

	c.customer = customer
	return nil
}

func (c *CreateOrderCommand) setVendorID(vendorID kernel.UUID) error {
	if err := vendorID.Validate(); err != nil {
		return err
	}

	c.vendorID = vendorID
	return nil
}

func (c *CreateOrderCommand) setItems(items []OrderItem) error {
	if len(items) == 0 {
		return ErrItemsAreRequired
	}

	merged := make([]OrderItem, 0, len(items))
	index := make(map[kernel.UUID]int, len(items))
	for _, item := range items {
		if err := item.ItemID.Validate(); err != nil {
			return err
		}
		if item.Quantity < 1 {
			return errs.NewValueIsInvalidErrorWithCause("quantity is invalid",
				fmt.Errorf("item %s: quantity %d is below 1", item.ItemID, item.Quantity))
		}

		if i, ok := index[item.ItemID]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[item.ItemID] = len(merged)
		merged = append(merged, item)
	}

	c.items = merged
	return nil
}

func (c *CreateOrderCommand) setDeliveryAddress(address order.Address) error {
	if err := address.Validate(); err != nil {
		return err
	}

	c.deliveryAddress = address
	return nil
}
