package postgres_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	postgresadapter "robodelivery/internal/adapters/out/postgres"
	"robodelivery/internal/adapters/out/postgres/catalogrepo"
	"robodelivery/internal/adapters/out/postgres/postgrestest"
	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/core/domain/services"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/clock"
	"robodelivery/internal/pkg/errs"
)

var (
	epoch        = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	demoVendorID = kernel.MustParseUUID("6f1c2a9e-3b4d-4e5f-8a7b-1c2d3e4f5a60")
	demoPizzaID  = kernel.MustParseUUID("0b7e4a1c-2d3f-4a5b-9c6d-7e8f9a0b1c21")
)

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, event ports.OrderEvent) error {
	return m.Called(ctx, event).Error(0)
}

type MockScheduler struct{ mock.Mock }

func (m *MockScheduler) Schedule(orderID kernel.UUID) {
	m.Called(orderID)
}

// UnitOfWorkIntegrationTestSuite exercises the unit of work, the delivery code and
// catalog repositories, and the command handlers on a real PostgreSQL.
type UnitOfWorkIntegrationTestSuite struct {
	suite.Suite
	database *postgrestest.Database
	factory  ports.UnitOfWorkFactory
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupSuite() {
	database, err := postgrestest.Start(context.Background())
	suite.Require().NoError(err)
	suite.database = database
	suite.factory = postgresadapter.NewGormUnitOfWorkFactory(database.DB)
}

func (suite *UnitOfWorkIntegrationTestSuite) SetupTest() {
	suite.Require().NoError(suite.database.Truncate())
}

func (suite *UnitOfWorkIntegrationTestSuite) TearDownSuite() {
	suite.Require().NoError(suite.database.Terminate(context.Background()))
}

func (suite *UnitOfWorkIntegrationTestSuite) newOrder() *order.Order {
	line, err := order.NewLine(demoPizzaID, "Margherita", decimal.RequireFromString("12.50"), 1, 0.6, 3)
	suite.Require().NoError(err)
	address, err := order.NewAddress("Invalidenstr. 116", "", "Berlin", "10115", nil)
	suite.Require().NoError(err)

	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), demoVendorID,
		[]order.Line{line}, address, address, "", epoch)
	suite.Require().NoError(err)
	return o
}

func (suite *UnitOfWorkIntegrationTestSuite) TestCommitAndRollback() {
	ctx := context.Background()

	committed := suite.newOrder()
	uow := suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, committed))
	suite.Require().NoError(uow.Commit(ctx))

	rolledBack := suite.newOrder()
	uow = suite.factory.Create()
	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, rolledBack))

	// Not visible outside the transaction yet.
	_, err := suite.factory.Create().OrderRepository().Get(ctx, rolledBack.ID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)

	suite.Require().NoError(uow.Rollback(ctx))

	reader := suite.factory.Create()
	_, err = reader.OrderRepository().Get(ctx, committed.ID())
	suite.NoError(err)
	_, err = reader.OrderRepository().Get(ctx, rolledBack.ID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)

	suite.Error(suite.factory.Create().Commit(ctx))
	suite.Error(suite.factory.Create().Rollback(ctx))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestTrackAggregate() {
	ctx := context.Background()
	uow := postgresadapter.NewGormUnitOfWorkFactory(suite.database.DB).Create().(*postgresadapter.GormUnitOfWork)

	suite.Require().NoError(uow.Begin(ctx))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, suite.newOrder()))
	suite.Require().NoError(uow.OrderRepository().Add(ctx, suite.newOrder()))
	suite.Equal(2, uow.TrackedCount())

	suite.Require().NoError(uow.Rollback(ctx))
	suite.Zero(uow.TrackedCount())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestDeliveryCodeRepository() {
	ctx := context.Background()
	o := suite.newOrder()
	codes := suite.factory.Create().DeliveryCodeRepository()
	suite.Require().NoError(suite.factory.Create().OrderRepository().Add(ctx, o))

	_, err := codes.Get(ctx, o.ID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)

	first, err := otp.NewRecord(o.ID(), otp.Code("000123"), epoch, otp.DefaultTTL)
	suite.Require().NoError(err)
	suite.Require().NoError(codes.Save(ctx, first))
	suite.Require().NoError(codes.IncrementAttempts(ctx, o.ID()))
	suite.Require().NoError(codes.IncrementAttempts(ctx, o.ID()))

	stored, err := codes.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(otp.Code("000123"), stored.Code())
	suite.Equal(2, stored.Attempts())
	suite.True(epoch.Add(otp.DefaultTTL).Equal(stored.ExpiresAt()))

	// Re-issuing replaces code, expiry and counter.
	second, err := otp.NewRecord(o.ID(), otp.Code("987654"), epoch.Add(time.Hour), otp.DefaultTTL)
	suite.Require().NoError(err)
	suite.Require().NoError(codes.Save(ctx, second))

	stored, err = codes.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(otp.Code("987654"), stored.Code())
	suite.Zero(stored.Attempts())

	suite.Require().NoError(stored.MarkUsed(epoch.Add(time.Hour + time.Minute)))
	suite.Require().NoError(codes.MarkUsed(ctx, stored))
	suite.ErrorIs(codes.MarkUsed(ctx, stored), errs.ErrConflict)

	used, err := codes.Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.True(used.IsUsed())
	suite.Require().NotNil(used.UsedAt())

	// A record for a code that was replaced in the meantime does not match either.
	suite.ErrorIs(codes.MarkUsed(ctx, first), errs.ErrConflict)

	suite.ErrorIs(codes.IncrementAttempts(ctx, kernel.NewUUID()), errs.ErrObjectNotFound)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestCatalogSeed() {
	ctx := context.Background()
	catalog := catalogrepo.NewGormCatalog(suite.database.DB)

	vendor, err := catalog.GetVendor(ctx, demoVendorID)
	suite.Require().NoError(err)
	suite.Equal("Demo Kitchen", vendor.Name)
	location, ok := vendor.Address.Location()
	suite.Require().True(ok)
	suite.InDelta(52.520008, location.Lat(), 1e-9)

	_, err = catalog.GetVendor(ctx, kernel.NewUUID())
	suite.ErrorIs(err, errs.ErrObjectNotFound)

	items, err := catalog.GetItems(ctx, []kernel.UUID{demoPizzaID, kernel.NewUUID()})
	suite.Require().NoError(err)
	suite.Require().Len(items, 1)
	suite.Equal("Margherita", items[0].Name)
	suite.True(decimal.RequireFromString("12.50").Equal(items[0].Price))
	suite.Equal(demoVendorID, items[0].VendorID)

	items, err = catalog.GetItems(ctx, nil)
	suite.Require().NoError(err)
	suite.Empty(items)
}

func (suite *UnitOfWorkIntegrationTestSuite) TestOrderLifecycleOnPostgres() {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)
	manual := clock.NewManual(epoch)

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil)
	scheduler := new(MockScheduler)
	scheduler.On("Schedule", mock.Anything).Return()

	uowFactory := commands.FuncUoWFactory(func() commands.UoW { return suite.factory.Create() })
	orderUoWFactory := commands.FuncOrderUoWFactory(func() commands.OrderUoW { return suite.factory.Create() })
	robotUoWFactory := commands.FuncRobotUoWFactory(func() commands.RobotUoW { return suite.factory.Create() })

	issuer := commands.NewDeliveryCodeIssuerWithGenerator(0, func() (otp.Code, error) { return "424242", nil })
	lifecycle := commands.NewOrderLifecycle(uowFactory, issuer, notifier, scheduler, manual, nil, logger, time.Second)
	defer lifecycle.Wait()

	createOrder := commands.NewCreateOrderCommandHandler(orderUoWFactory, catalogrepo.NewGormCatalog(suite.database.DB), lifecycle)
	changeStatus := commands.NewChangeOrderStatusCommandHandler(lifecycle)
	assign := commands.NewAssignRobotCommandHandler(uowFactory, lifecycle, services.NewRobotDispatcher(), nil, logger, 0)
	advance := commands.NewAdvanceRobotCommandHandler(uowFactory, lifecycle, logger)
	confirm := commands.NewConfirmDeliveryCommandHandler(uowFactory, lifecycle, otp.DefaultMaxAttempts, nil, logger)
	createRobot := commands.NewCreateRobotCommandHandler(robotUoWFactory, manual)

	location, err := kernel.NewLocation(52.5205, 13.4060)
	suite.Require().NoError(err)
	capacity, err := robot.NewPayload(20, 60)
	suite.Require().NoError(err)
	robotCmd, err := commands.NewCreateRobotCommand("PG-01", location, 90, capacity, 6)
	suite.Require().NoError(err)
	rb, err := createRobot.Handle(ctx, robotCmd)
	suite.Require().NoError(err)

	customer, err := order.NewActor(order.RoleCustomer, kernel.NewUUID())
	suite.Require().NoError(err)
	vendor, err := order.NewActor(order.RoleVendor, demoVendorID)
	suite.Require().NoError(err)
	dropOff, err := kernel.NewLocation(52.5316, 13.3847)
	suite.Require().NoError(err)
	address, err := order.NewAddress("Invalidenstr. 116", "", "Berlin", "10115", &dropOff)
	suite.Require().NoError(err)

	createCmd, err := commands.NewCreateOrderCommand(customer, demoVendorID,
		[]commands.OrderItem{{ItemID: demoPizzaID, Quantity: 3}}, address, "")
	suite.Require().NoError(err)
	o, err := createOrder.Handle(ctx, createCmd)
	suite.Require().NoError(err)
	suite.True(decimal.RequireFromString("37.50").Equal(o.TotalAmount()))

	approveCmd, err := commands.NewChangeOrderStatusCommand(o.ID(), order.VendorApproved, vendor, "")
	suite.Require().NoError(err)
	_, err = changeStatus.Handle(ctx, approveCmd)
	suite.Require().NoError(err)

	// The same approval again loses the conditional write.
	_, err = changeStatus.Handle(ctx, approveCmd)
	suite.ErrorIs(err, errs.ErrConflict)

	assignCmd, err := commands.NewAssignRobotCommand(o.ID())
	suite.Require().NoError(err)
	assigned, err := assign.Handle(ctx, assignCmd)
	suite.Require().NoError(err)
	suite.Require().NotNil(assigned.RobotID())
	suite.Equal(rb.ID(), *assigned.RobotID())

	advanceCmd, err := commands.NewAdvanceRobotCommand(o.ID())
	suite.Require().NoError(err)
	_, err = advance.Handle(ctx, advanceCmd)
	suite.Require().NoError(err)
	delivering, err := advance.Handle(ctx, advanceCmd)
	suite.Require().NoError(err)
	suite.Equal(order.RobotDelivering, delivering.Status())
	code, _ := delivering.DeliveryCode()
	suite.Equal("424242", code)

	wrongCmd, err := commands.NewConfirmDeliveryCommand(o.ID(), "111111", customer)
	suite.Require().NoError(err)
	_, err = confirm.Handle(ctx, wrongCmd)
	suite.ErrorIs(err, otp.ErrCodeInvalid)

	confirmCmd, err := commands.NewConfirmDeliveryCommand(o.ID(), "424242", customer)
	suite.Require().NoError(err)
	delivered, err := confirm.Handle(ctx, confirmCmd)
	suite.Require().NoError(err)
	suite.Equal(order.Delivered, delivered.Status())

	_, err = confirm.Handle(ctx, confirmCmd)
	suite.ErrorIs(err, otp.ErrCodeAlreadyUsed)

	reader := suite.factory.Create()
	stored, err := reader.OrderRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.Equal(order.Delivered, stored.Status())
	suite.Nil(stored.RobotID())
	suite.Len(stored.History(), 5)

	released, err := reader.RobotRepository().Get(ctx, rb.ID())
	suite.Require().NoError(err)
	suite.Equal(robot.Idle, released.Status())
	suite.Nil(released.AssignedOrderID())

	record, err := reader.DeliveryCodeRepository().Get(ctx, o.ID())
	suite.Require().NoError(err)
	suite.True(record.IsUsed())
	suite.Equal(1, record.Attempts())
}

func TestUnitOfWorkIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	suite.Run(t, new(UnitOfWorkIntegrationTestSuite))
}
