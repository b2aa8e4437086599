package commands_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/pkg/errs"
)

func TestNewCreateOrderCommand_ValidInput(t *testing.T) {
	customer, err := order.NewActor(order.RoleCustomer, kernel.NewUUID())
	require.NoError(t, err)
	vendorID := kernel.NewUUID()
	pizza, lemonade := kernel.NewUUID(), kernel.NewUUID()

	cmd, err := commands.NewCreateOrderCommand(customer, vendorID, []commands.OrderItem{
		{ItemID: pizza, Quantity: 1},
		{ItemID: lemonade, Quantity: 2},
		{ItemID: pizza, Quantity: 2},
	}, deliveryAddress(t), "ring twice")

	require.NoError(t, err)
	require.NoError(t, cmd.Validate())
	require.NoError(t, cmd.OrderID().Validate())
	assert.Equal(t, customer, cmd.Customer())
	assert.Equal(t, vendorID, cmd.VendorID())
	assert.Equal(t, "ring twice", cmd.Notes())
	assert.Equal(t, []commands.OrderItem{
		{ItemID: pizza, Quantity: 3},
		{ItemID: lemonade, Quantity: 2},
	}, cmd.Items())
	assert.Equal(t, []kernel.UUID{pizza, lemonade}, cmd.ItemIDs())
}

func TestNewCreateOrderCommand_InvalidInput(t *testing.T) {
	customer, err := order.NewActor(order.RoleCustomer, kernel.NewUUID())
	require.NoError(t, err)
	vendor, err := order.NewActor(order.RoleVendor, kernel.NewUUID())
	require.NoError(t, err)
	item := []commands.OrderItem{{ItemID: kernel.NewUUID(), Quantity: 1}}

	tests := []struct {
		name     string
		customer order.Actor
		vendorID kernel.UUID
		items    []commands.OrderItem
		want     error
	}{
		{"vendor placing an order", vendor, kernel.NewUUID(), item, errs.ErrForbidden},
		{"missing vendor", customer, kernel.UUID{}, item, kernel.ErrUUIDIsNotConstructed},
		{"no items", customer, kernel.NewUUID(), nil, commands.ErrItemsAreRequired},
		{"zero quantity", customer, kernel.NewUUID(),
			[]commands.OrderItem{{ItemID: kernel.NewUUID(), Quantity: 0}}, errs.ErrValueIsInvalid},
		{"missing item id", customer, kernel.NewUUID(),
			[]commands.OrderItem{{Quantity: 1}}, kernel.ErrUUIDIsNotConstructed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := commands.NewCreateOrderCommand(tt.customer, tt.vendorID, tt.items, deliveryAddress(t), "")
			require.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("missing delivery address", func(t *testing.T) {
		_, err := commands.NewCreateOrderCommand(customer, kernel.NewUUID(), item, order.Address{}, "")
		require.Error(t, err)
	})
}
