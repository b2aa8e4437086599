package commands_test

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"robodelivery/internal/adapters/out/memory"
	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

func TestOrderLifecycle_EndToEnd(t *testing.T) {
	w := newWorld(t)

	// the nearer robot is almost empty and must be passed over
	flat := w.addRobot(t, "RB-01", mustLocation(t, 52.520008, 13.404954), 15)
	charged := w.addRobot(t, "RB-02", mustLocation(t, 52.5230, 13.4100), 85)

	o := w.placeOrder(t,
		commands.OrderItem{ItemID: memory.DemoFamilyBoxID, Quantity: 1},
		commands.OrderItem{ItemID: memory.DemoPizzaID, Quantity: 8},
	)
	assert.Equal(t, order.Pending, o.Status())
	assert.True(t, decimal.RequireFromString("499.00").Equal(o.TotalAmount()))

	w.approve(t, o.ID())
	w.scheduler.AssertCalled(t, "Schedule", o.ID())

	assigned, err := w.assign(t, o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.RobotAssigned, assigned.Status())
	require.NotNil(t, assigned.RobotID())
	assert.True(t, assigned.RobotID().IsEqual(charged.ID()))
	require.NotNil(t, assigned.EstimatedDeliveryTime())
	assert.True(t, assigned.EstimatedDeliveryTime().After(epoch))
	assert.Equal(t, robot.Idle, w.getRobot(t, flat.ID()).Status())
	assert.Equal(t, robot.Assigned, w.getRobot(t, charged.ID()).Status())

	assert.Equal(t, order.RobotPickingUp, w.step(t, o.ID()).Status())
	assert.Equal(t, robot.PickingUp, w.getRobot(t, charged.ID()).Status())

	delivering := w.step(t, o.ID())
	assert.Equal(t, order.RobotDelivering, delivering.Status())
	code, expiresAt := delivering.DeliveryCode()
	require.Len(t, code, otp.CodeLength)
	require.NotNil(t, expiresAt)
	assert.Equal(t, epoch.Add(30*time.Minute), *expiresAt)

	w.clock.Advance(10 * time.Minute)
	delivered, err := w.confirmCode(t, o.ID(), code, w.customer)
	require.NoError(t, err)

	assert.Equal(t, order.Delivered, delivered.Status())
	require.NotNil(t, delivered.ActualDeliveryTime())
	assert.Equal(t, epoch.Add(10*time.Minute), *delivered.ActualDeliveryTime())
	assert.Nil(t, delivered.RobotID())
	storedCode, _ := delivered.DeliveryCode()
	assert.Empty(t, storedCode)

	released := w.getRobot(t, charged.ID())
	assert.Equal(t, robot.Idle, released.Status())
	assert.Nil(t, released.AssignedOrderID())
	assert.True(t, released.CurrentLoad().IsZero())

	stored := w.getOrder(t, o.ID())
	assert.Equal(t, order.Delivered, stored.Status())
	assert.Len(t, stored.History(), 5)

	w.lifecycle.Wait()
	var types []order.Status
	for _, event := range w.notifier.events() {
		types = append(types, event.To)
		if event.To == order.RobotDelivering {
			assert.Equal(t, code, event.DeliveryCode)
			assert.Equal(t, []ports.Recipient{{Role: order.RoleCustomer, ID: w.customer.ID()}}, event.Recipients)
		}
	}
	assert.ElementsMatch(t, []order.Status{
		order.Pending, order.VendorApproved, order.RobotAssigned,
		order.RobotPickingUp, order.RobotDelivering, order.Delivered,
	}, types)

	assert.Equal(t, 1, w.metrics.count("dispatch:assigned"))
	assert.Equal(t, 1, w.metrics.count("code:ok"))
	assert.Equal(t, 1, w.metrics.count("transition:robot_delivering->delivered"))
}

func TestOrderLifecycle_ConcurrentApprove(t *testing.T) {
	w := newWorld(t)
	o := w.placeOrder(t)

	const racers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []error
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd, err := commands.NewChangeOrderStatusCommand(o.ID(), order.VendorApproved, w.vendor, "")
			if err == nil {
				_, err = w.changeStatus.Handle(t.Context(), cmd)
			}
			mu.Lock()
			results = append(results, err)
			mu.Unlock()
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, errs.ErrConflict)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, order.VendorApproved, w.getOrder(t, o.ID()).Status())
	assert.Len(t, w.getOrder(t, o.ID()).History(), 1)
	assert.Equal(t, racers-1, w.metrics.count("rejected:vendor_approved:conflict"))
}

func TestOrderLifecycle_Rejections(t *testing.T) {
	w := newWorld(t)
	o := w.placeOrder(t)

	otherVendor, err := order.NewActor(order.RoleVendor, kernel.NewUUID())
	require.NoError(t, err)
	otherCustomer, err := order.NewActor(order.RoleCustomer, kernel.NewUUID())
	require.NoError(t, err)

	tests := []struct {
		name   string
		target order.Status
		actor  order.Actor
		want   error
	}{
		{"vendor of another shop", order.VendorApproved, otherVendor, errs.ErrForbidden},
		{"customer approving", order.VendorApproved, w.customer, errs.ErrForbidden},
		{"vendor cancelling", order.Cancelled, w.vendor, errs.ErrForbidden},
		{"customer of another order", order.Cancelled, otherCustomer, errs.ErrForbidden},
		{"operator approving", order.VendorApproved, w.operator, errs.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.transition(t, o.ID(), tt.target, tt.actor)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, order.Pending, w.getOrder(t, o.ID()).Status())
		})
	}

	t.Run("system roles cannot be requested by clients", func(t *testing.T) {
		_, err := commands.NewChangeOrderStatusCommand(o.ID(), order.RobotAssigned, order.Dispatcher(), "")
		require.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("rejecting an approved order is illegal", func(t *testing.T) {
		w.approve(t, o.ID())

		_, err := w.transition(t, o.ID(), order.VendorRejected, w.vendor)
		require.ErrorIs(t, err, order.ErrInvalidTransition)
		assert.Equal(t, 1, w.metrics.count("rejected:vendor_rejected:invalid_transition"))
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := w.transition(t, kernel.NewUUID(), order.VendorApproved, w.vendor)
		require.ErrorIs(t, err, errs.ErrObjectNotFound)
	})
}

func TestCancelOrder(t *testing.T) {
	cancel := func(t *testing.T, w *world, orderID kernel.UUID) (*order.Order, error) {
		t.Helper()
		cmd, err := commands.NewCancelOrderCommand(orderID, w.customer, "changed my mind")
		require.NoError(t, err)
		return w.cancelOrder.Handle(t.Context(), cmd)
	}

	t.Run("pending order", func(t *testing.T) {
		w := newWorld(t)
		o := w.placeOrder(t)

		cancelled, err := cancel(t, w, o.ID())

		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, cancelled.Status())
		assert.Equal(t, "changed my mind", cancelled.History()[0].Notes)
	})

	t.Run("assigned order releases its robot", func(t *testing.T) {
		w := newWorld(t)
		rb := w.addRobot(t, "RB-01", mustLocation(t, 52.52, 13.40), 90)
		o := w.placeOrder(t)
		w.approve(t, o.ID())
		_, err := w.assign(t, o.ID())
		require.NoError(t, err)
		require.Equal(t, robot.Assigned, w.getRobot(t, rb.ID()).Status())

		cancelled, err := cancel(t, w, o.ID())

		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, cancelled.Status())
		assert.Nil(t, cancelled.RobotID())
		released := w.getRobot(t, rb.ID())
		assert.Equal(t, robot.Idle, released.Status())
		assert.Nil(t, released.AssignedOrderID())
		assert.True(t, released.CurrentLoad().IsZero())

		// the robot's next milestone for the cancelled order is a no-op
		cmd, err := commands.NewAdvanceRobotCommand(o.ID())
		require.NoError(t, err)
		_, err = w.advance.Handle(t.Context(), cmd)
		require.ErrorIs(t, err, commands.ErrNothingToAdvance)

		w.lifecycle.Wait()
		var cancelEvent *ports.OrderEvent
		for _, event := range w.notifier.events() {
			if event.To == order.Cancelled {
				cancelEvent = &event
			}
		}
		require.NotNil(t, cancelEvent)
		assert.Len(t, cancelEvent.Recipients, 2)
	})

	t.Run("after pickup started", func(t *testing.T) {
		w := newWorld(t)
		w.addRobot(t, "RB-01", mustLocation(t, 52.52, 13.40), 90)
		o := w.placeOrder(t)
		w.approve(t, o.ID())
		_, err := w.assign(t, o.ID())
		require.NoError(t, err)
		w.step(t, o.ID())

		_, err = cancel(t, w, o.ID())

		require.ErrorIs(t, err, order.ErrInvalidTransition)
		assert.Equal(t, order.RobotPickingUp, w.getOrder(t, o.ID()).Status())
	})

	t.Run("twice", func(t *testing.T) {
		w := newWorld(t)
		o := w.placeOrder(t)
		_, err := cancel(t, w, o.ID())
		require.NoError(t, err)

		_, err = cancel(t, w, o.ID())
		require.ErrorIs(t, err, errs.ErrConflict)
	})

	t.Run("only customers", func(t *testing.T) {
		w := newWorld(t)
		_, err := commands.NewCancelOrderCommand(kernel.NewUUID(), w.vendor, "")
		require.ErrorIs(t, err, errs.ErrForbidden)
	})
}

func TestOrderLifecycle_NotifierFailureDoesNotRollBack(t *testing.T) {
	w := newWorld(t)
	w.notifier.ExpectedCalls = nil
	w.notifier.On("Notify", mock.Anything, mock.Anything).Return(assert.AnError)

	o := w.placeOrder(t)
	w.approve(t, o.ID())
	w.lifecycle.Wait()

	assert.Equal(t, order.VendorApproved, w.getOrder(t, o.ID()).Status())
	assert.Equal(t, 2, w.metrics.count("notifier_failed"))
}

func TestOrderLifecycle_NotifierPanicIsContained(t *testing.T) {
	w := newWorld(t)
	w.notifier.ExpectedCalls = nil
	w.notifier.On("Notify", mock.Anything, mock.Anything).Panic("channel exploded")

	o := w.placeOrder(t)
	w.lifecycle.Wait()

	assert.Equal(t, order.Pending, w.getOrder(t, o.ID()).Status())
	assert.Equal(t, 1, w.metrics.count("notifier_failed"))
}
