package commands_test

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"robodelivery/internal/adapters/out/memory"
	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/domain/services"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/clock"
)

var epoch = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, event ports.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// events returns the events seen so far, in call order.
func (m *MockNotifier) events() []ports.OrderEvent {
	var events []ports.OrderEvent
	for _, call := range m.Calls {
		events = append(events, call.Arguments.Get(1).(ports.OrderEvent))
	}
	return events
}

type MockScheduler struct{ mock.Mock }

func (m *MockScheduler) Schedule(orderID kernel.UUID) {
	m.Called(orderID)
}

// recordingMetrics counts calls by label.
type recordingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{counts: make(map[string]int)}
}

func (m *recordingMetrics) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
}

func (m *recordingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key]
}

func (m *recordingMetrics) TransitionApplied(from, to order.Status) {
	m.inc("transition:" + from.String() + "->" + to.String())
}
func (m *recordingMetrics) TransitionRejected(to order.Status, reason string) {
	m.inc("rejected:" + to.String() + ":" + reason)
}
func (m *recordingMetrics) DispatchOutcome(outcome string)    { m.inc("dispatch:" + outcome) }
func (m *recordingMetrics) DeliveryCodeChecked(result string) { m.inc("code:" + result) }
func (m *recordingMetrics) NotifierFailed()                   { m.inc("notifier_failed") }
func (m *recordingMetrics) TelemetryRecorded()                { m.inc("telemetry") }

// world wires every command handler to one in-memory store.
type world struct {
	uows      *memory.UnitOfWorkFactory
	catalog   *memory.Catalog
	clock     *clock.Manual
	notifier  *MockNotifier
	scheduler *MockScheduler
	metrics   *recordingMetrics
	lifecycle *commands.OrderLifecycle

	customer order.Actor
	vendor   order.Actor
	operator order.Actor

	createOrder  commands.CreateOrderCommandHandler
	changeStatus commands.ChangeOrderStatusCommandHandler
	cancelOrder  commands.CancelOrderCommandHandler
	assignRobot  commands.AssignRobotCommandHandler
	advance      commands.AdvanceRobotCommandHandler
	confirm      commands.ConfirmDeliveryCommandHandler
	createRobot  commands.CreateRobotCommandHandler
	telemetry    commands.RecordTelemetryCommandHandler
	retry        commands.RetryPendingDispatchCommandHandler
	move         commands.MoveRobotsCommandHandler
}

func newWorld(t *testing.T) *world {
	t.Helper()

	w := &world{
		uows:      memory.NewUnitOfWorkFactory(memory.NewStore()),
		catalog:   memory.NewCatalog(),
		clock:     clock.NewManual(epoch),
		notifier:  new(MockNotifier),
		scheduler: new(MockScheduler),
		metrics:   newRecordingMetrics(),
	}
	require.NoError(t, memory.SeedDemo(w.catalog))

	w.notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	w.scheduler.On("Schedule", mock.Anything).Return().Maybe()

	var err error
	w.customer, err = order.NewActor(order.RoleCustomer, kernel.NewUUID())
	require.NoError(t, err)
	w.vendor, err = order.NewActor(order.RoleVendor, memory.DemoVendorID)
	require.NoError(t, err)
	w.operator, err = order.NewActor(order.RoleOperator, kernel.NewUUID())
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)
	uowFactory := commands.FuncUoWFactory(func() commands.UoW { return w.uows.Create() })
	orderUoWFactory := commands.FuncOrderUoWFactory(func() commands.OrderUoW { return w.uows.Create() })
	robotUoWFactory := commands.FuncRobotUoWFactory(func() commands.RobotUoW { return w.uows.Create() })

	w.lifecycle = commands.NewOrderLifecycle(
		uowFactory,
		commands.NewDeliveryCodeIssuer(0),
		w.notifier,
		w.scheduler,
		w.clock,
		w.metrics,
		logger,
		time.Second,
	)

	w.createOrder = commands.NewCreateOrderCommandHandler(orderUoWFactory, w.catalog, w.lifecycle)
	w.changeStatus = commands.NewChangeOrderStatusCommandHandler(w.lifecycle)
	w.cancelOrder = commands.NewCancelOrderCommandHandler(w.lifecycle)
	w.assignRobot = commands.NewAssignRobotCommandHandler(
		uowFactory, w.lifecycle, services.NewRobotDispatcher(), w.metrics, logger, 0)
	w.advance = commands.NewAdvanceRobotCommandHandler(uowFactory, w.lifecycle, logger)
	w.confirm = commands.NewConfirmDeliveryCommandHandler(uowFactory, w.lifecycle, 5, w.metrics, logger)
	w.createRobot = commands.NewCreateRobotCommandHandler(robotUoWFactory, w.clock)
	w.telemetry = commands.NewRecordTelemetryCommandHandler(robotUoWFactory, &w.advance, w.clock, w.metrics, logger)
	w.retry = commands.NewRetryPendingDispatchCommandHandler(orderUoWFactory, &w.assignRobot, logger)
	w.move = commands.NewMoveRobotsCommandHandler(uowFactory, &w.telemetry, logger)

	t.Cleanup(w.lifecycle.Wait)
	return w
}

func mustLocation(t *testing.T, lat, lng float64) kernel.Location {
	t.Helper()
	location, err := kernel.NewLocation(lat, lng)
	require.NoError(t, err)
	return location
}

// deliveryAddress is about 2 km from the demo vendor.
func deliveryAddress(t *testing.T) order.Address {
	t.Helper()
	location := mustLocation(t, 52.5316, 13.3847)
	address, err := order.NewAddress("Invalidenstr. 116", "blue door", "Berlin", "10115", &location)
	require.NoError(t, err)
	return address
}

// placeOrder creates an order with the given demo items for w.customer.
func (w *world) placeOrder(t *testing.T, items ...commands.OrderItem) *order.Order {
	t.Helper()
	if len(items) == 0 {
		items = []commands.OrderItem{{ItemID: memory.DemoPizzaID, Quantity: 2}}
	}

	cmd, err := commands.NewCreateOrderCommand(w.customer, memory.DemoVendorID, items, deliveryAddress(t), "")
	require.NoError(t, err)

	created, err := w.createOrder.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return created
}

// addRobot provisions an idle robot.
func (w *world) addRobot(t *testing.T, name string, location kernel.Location, battery int) *robot.Robot {
	t.Helper()

	capacity, err := robot.NewPayload(20, 60)
	require.NoError(t, err)
	cmd, err := commands.NewCreateRobotCommand(name, location, battery, capacity, 6)
	require.NoError(t, err)

	created, err := w.createRobot.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return created
}

func (w *world) transition(t *testing.T, orderID kernel.UUID, target order.Status, actor order.Actor) (*order.Order, error) {
	t.Helper()
	cmd, err := commands.NewChangeOrderStatusCommand(orderID, target, actor, "")
	require.NoError(t, err)
	return w.changeStatus.Handle(t.Context(), cmd)
}

func (w *world) approve(t *testing.T, orderID kernel.UUID) {
	t.Helper()
	_, err := w.transition(t, orderID, order.VendorApproved, w.vendor)
	require.NoError(t, err)
}

func (w *world) assign(t *testing.T, orderID kernel.UUID) (*order.Order, error) {
	t.Helper()
	cmd, err := commands.NewAssignRobotCommand(orderID)
	require.NoError(t, err)
	return w.assignRobot.Handle(t.Context(), cmd)
}

func (w *world) step(t *testing.T, orderID kernel.UUID) *order.Order {
	t.Helper()
	cmd, err := commands.NewAdvanceRobotCommand(orderID)
	require.NoError(t, err)
	advanced, err := w.advance.Handle(t.Context(), cmd)
	require.NoError(t, err)
	return advanced
}

func (w *world) confirmCode(t *testing.T, orderID kernel.UUID, code string, caller order.Actor) (*order.Order, error) {
	t.Helper()
	cmd, err := commands.NewConfirmDeliveryCommand(orderID, code, caller)
	require.NoError(t, err)
	return w.confirm.Handle(t.Context(), cmd)
}

func (w *world) getOrder(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	o, err := w.uows.Create().OrderRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return o
}

func (w *world) getRobot(t *testing.T, id kernel.UUID) *robot.Robot {
	t.Helper()
	r, err := w.uows.Create().RobotRepository().Get(t.Context(), id)
	require.NoError(t, err)
	return r
}

// delivering drives a fresh order to robot_delivering with a single robot.
func (w *world) delivering(t *testing.T) (*order.Order, *robot.Robot) {
	t.Helper()

	rb := w.addRobot(t, "RB-"+kernel.NewUUID().String()[:8], mustLocation(t, 52.5205, 13.4060), 90)
	o := w.placeOrder(t)
	w.approve(t, o.ID())
	_, err := w.assign(t, o.ID())
	require.NoError(t, err)
	w.step(t, o.ID())
	o = w.step(t, o.ID())
	require.Equal(t, order.RobotDelivering, o.Status())
	return o, rb
}
