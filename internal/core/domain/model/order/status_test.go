package order_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/pkg/errs"
)

func TestStatus_Values(t *testing.T) {
	t.Run("should keep wire values stable", func(t *testing.T) {
		expected := []string{
			"pending", "vendor_approved", "vendor_rejected", "robot_assigned",
			"robot_picking_up", "robot_delivering", "delivered", "cancelled",
		}

		var actual []string
		for _, s := range order.AllStatuses() {
			actual = append(actual, s.String())
		}

		assert.Equal(t, expected, actual)
	})
}

func TestParseStatus(t *testing.T) {
	for _, s := range order.AllStatuses() {
		t.Run(fmt.Sprintf("should parse %s", s), func(t *testing.T) {
			parsed, err := order.ParseStatus(string(s))
			require.NoError(t, err)
			assert.Equal(t, s, parsed)
		})
	}

	for _, raw := range []string{"", "Pending", "completed", "assigned"} {
		t.Run(fmt.Sprintf("should reject %q", raw), func(t *testing.T) {
			_, err := order.ParseStatus(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.ErrValueIsInvalid)
		})
	}
}

func TestStatus_Edges(t *testing.T) {
	legal := map[order.Status][]order.Status{
		order.Pending:         {order.VendorApproved, order.VendorRejected, order.Cancelled},
		order.VendorApproved:  {order.RobotAssigned, order.Cancelled},
		order.RobotAssigned:   {order.RobotPickingUp, order.Cancelled},
		order.RobotPickingUp:  {order.RobotDelivering},
		order.RobotDelivering: {order.Delivered},
		order.VendorRejected:  nil,
		order.Delivered:       nil,
		order.Cancelled:       nil,
	}

	for from, targets := range legal {
		t.Run(fmt.Sprintf("edges from %s", from), func(t *testing.T) {
			assert.ElementsMatch(t, targets, from.Next())

			for _, to := range order.AllStatuses() {
				want := false
				for _, target := range targets {
					if target == to {
						want = true
					}
				}
				assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
			}
		})
	}

	t.Run("rejecting an approved order is illegal", func(t *testing.T) {
		assert.False(t, order.VendorApproved.CanTransitionTo(order.VendorRejected))
	})

	t.Run("cancelling after pickup started is illegal", func(t *testing.T) {
		assert.False(t, order.RobotPickingUp.CanTransitionTo(order.Cancelled))
		assert.False(t, order.RobotDelivering.CanTransitionTo(order.Cancelled))
		assert.False(t, order.Delivered.CanTransitionTo(order.Cancelled))
	})
}

func TestStatus_IsTerminal(t *testing.T) {
	for _, s := range order.AllStatuses() {
		assert.Equal(t, len(s.Next()) == 0, s.IsTerminal(), s.String())
	}
}

func TestStatus_RequiredRole(t *testing.T) {
	tests := []struct {
		target order.Status
		role   order.Role
	}{
		{order.VendorApproved, order.RoleVendor},
		{order.VendorRejected, order.RoleVendor},
		{order.Cancelled, order.RoleCustomer},
		{order.RobotAssigned, order.RoleDispatcher},
		{order.RobotPickingUp, order.RoleDispatcher},
		{order.RobotDelivering, order.RoleDispatcher},
		{order.Delivered, order.RoleDeliveryVerifier},
	}

	for _, tt := range tests {
		t.Run(tt.target.String(), func(t *testing.T) {
			role, ok := tt.target.RequiredRole()
			require.True(t, ok)
			assert.Equal(t, tt.role, role)
		})
	}

	_, ok := order.Pending.RequiredRole()
	assert.False(t, ok)
}

func TestStatus_HasPassed(t *testing.T) {
	assert.True(t, order.RobotAssigned.HasPassed(order.VendorApproved))
	assert.True(t, order.RobotAssigned.HasPassed(order.RobotAssigned))
	assert.False(t, order.VendorApproved.HasPassed(order.RobotAssigned))
	assert.False(t, order.Cancelled.HasPassed(order.Pending))
	assert.False(t, order.Delivered.HasPassed(order.Cancelled))
}

func TestInvalidTransitionError(t *testing.T) {
	err := order.NewInvalidTransitionError(order.VendorApproved, order.VendorRejected)

	assert.ErrorIs(t, err, order.ErrInvalidTransition)
	assert.Equal(t, "invalid status transition: vendor_approved -> vendor_rejected", err.Error())
}
