package queries_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"robodelivery/internal/adapters/out/memory"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
)

var epoch = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type readWorld struct {
	uows     *memory.UnitOfWorkFactory
	customer order.Actor
	vendor   order.Actor
	operator order.Actor
	vendorID kernel.UUID
}

func newReadWorld(t *testing.T) *readWorld {
	t.Helper()

	w := &readWorld{
		uows:     memory.NewUnitOfWorkFactory(memory.NewStore()),
		vendorID: kernel.NewUUID(),
	}
	w.customer = actor(t, order.RoleCustomer, kernel.NewUUID())
	w.vendor = actor(t, order.RoleVendor, w.vendorID)
	w.operator = actor(t, order.RoleOperator, kernel.NewUUID())
	return w
}

func actor(t *testing.T, role order.Role, id kernel.UUID) order.Actor {
	t.Helper()
	a, err := order.NewActor(role, id)
	require.NoError(t, err)
	return a
}

// placeOrder stores a pending order of w.customer with w.vendor.
func (w *readWorld) placeOrder(t *testing.T, createdAt time.Time) *order.Order {
	t.Helper()

	line, err := order.NewLine(kernel.NewUUID(), "Margherita", decimal.RequireFromString("12.50"), 2, 0.6, 3)
	require.NoError(t, err)
	vendorLocation, err := kernel.NewLocation(52.5200, 13.4050)
	require.NoError(t, err)
	vendorAddress, err := order.NewAddress("Alexanderplatz 1", "", "Berlin", "10178", &vendorLocation)
	require.NoError(t, err)
	deliveryAddress, err := order.NewAddress("Invalidenstr. 50", "blue door", "Berlin", "10115", nil)
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), w.customer.ID(), w.vendorID,
		[]order.Line{line}, deliveryAddress, vendorAddress, "ring twice", createdAt)
	require.NoError(t, err)

	require.NoError(t, w.uows.Create().OrderRepository().Add(t.Context(), o))
	return o
}

// addRobot stores an idle robot near the vendor.
func (w *readWorld) addRobot(t *testing.T, name string) *robot.Robot {
	t.Helper()

	location, err := kernel.NewLocation(52.5210, 13.4060)
	require.NoError(t, err)
	capacity, err := robot.NewPayload(10, 30)
	require.NoError(t, err)

	r, err := robot.NewRobot(kernel.NewUUID(), name, location, 80, capacity, 6, epoch, epoch)
	require.NoError(t, err)
	require.NoError(t, w.uows.Create().RobotRepository().Add(t.Context(), r))
	return r
}

// dispatch drives a stored pending order to robot_delivering with r and code 123456.
func (w *readWorld) dispatch(t *testing.T, o *order.Order, r *robot.Robot) *order.Order {
	t.Helper()
	ctx := t.Context()

	uow := w.uows.Create()
	require.NoError(t, uow.Begin(ctx))
	defer func() { _ = uow.Rollback(ctx) }()

	stored, err := uow.OrderRepository().Get(ctx, o.ID())
	require.NoError(t, err)

	at := epoch.Add(time.Minute)
	require.NoError(t, stored.Transition(order.VendorApproved, w.vendor, "", at))
	require.NoError(t, stored.Transition(order.RobotAssigned, order.Dispatcher(), "", at))
	require.NoError(t, stored.AttachRobot(r.ID(), epoch.Add(25*time.Minute)))
	require.NoError(t, stored.Transition(order.RobotPickingUp, order.Dispatcher(), "", at))
	require.NoError(t, stored.Transition(order.RobotDelivering, order.Dispatcher(), "", at))
	require.NoError(t, stored.SetDeliveryCode("123456", epoch.Add(31*time.Minute)))
	require.NoError(t, stored.CheckInvariants())
	require.NoError(t, uow.OrderRepository().UpdateIfStatus(ctx, stored, order.Pending))

	robots := uow.RobotRepository()
	claimed, err := robots.Get(ctx, r.ID())
	require.NoError(t, err)
	load, err := robot.NewPayload(1.2, 6)
	require.NoError(t, err)
	require.NoError(t, claimed.Assign(o.ID(), load, at))
	require.NoError(t, claimed.StartPickup(o.ID(), at))
	require.NoError(t, claimed.StartDelivery(o.ID(), at))
	require.NoError(t, robots.UpdateIfStatus(ctx, claimed, robot.Idle))

	require.NoError(t, uow.Commit(ctx))
	return stored
}
