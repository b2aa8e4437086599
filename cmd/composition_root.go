package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	apihttp "robodelivery/internal/adapters/in/http"
	kafkain "robodelivery/internal/adapters/in/kafka"
	kafkaout "robodelivery/internal/adapters/out/kafka"
	"robodelivery/internal/adapters/out/lognotifier"
	"robodelivery/internal/adapters/out/memory"
	"robodelivery/internal/adapters/out/postgres"
	"robodelivery/internal/adapters/out/postgres/catalogrepo"
	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/application/usecases/queries"
	"robodelivery/internal/core/domain/services"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/jobs"
	"robodelivery/internal/metrics"
	"robodelivery/internal/pkg/clock"
)

// CompositionRoot owns the object graph of one process.
type CompositionRoot struct {
	config   Config
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	uowFactory ports.UnitOfWorkFactory
	catalog    ports.Catalog
	clock      ports.Clock
	notifier   ports.Notifier
	closers    []func() error

	queue     *jobs.DispatchQueue
	lifecycle *commands.OrderLifecycle

	// Handlers other handlers and jobs hold by pointer.
	assignRobot     commands.AssignRobotCommandHandler
	advanceRobot    commands.AdvanceRobotCommandHandler
	recordTelemetry commands.RecordTelemetryCommandHandler
}

// NewCompositionRoot wires storage, notifier and use cases. gormDB is ignored by the
// memory driver.
func NewCompositionRoot(config Config, logger *slog.Logger, gormDB *gorm.DB) (*CompositionRoot, error) {
	c := &CompositionRoot{
		config:   config,
		logger:   logger,
		registry: prometheus.NewRegistry(),
		clock:    clock.System{},
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c.metrics = metrics.New(c.registry)

	if err := c.initStorage(gormDB); err != nil {
		return nil, err
	}
	if err := c.initNotifier(); err != nil {
		return nil, err
	}

	c.queue = jobs.NewDispatchQueue(jobs.DefaultDispatchQueueSize, logger)
	c.lifecycle = commands.NewOrderLifecycle(
		c.uowFactoryForCommands(),
		commands.NewDeliveryCodeIssuer(config.OTPTTL),
		c.notifier,
		c.queue,
		c.clock,
		c.metrics,
		logger,
		config.NotifyTimeout,
	)

	c.assignRobot = commands.NewAssignRobotCommandHandler(
		c.uowFactoryForCommands(),
		c.lifecycle,
		services.NewRobotDispatcher(),
		c.metrics,
		logger,
		config.DispatchFallbackLeg,
	)
	c.advanceRobot = commands.NewAdvanceRobotCommandHandler(c.uowFactoryForCommands(), c.lifecycle, logger)
	c.recordTelemetry = commands.NewRecordTelemetryCommandHandler(
		c.robotUoWFactory(), &c.advanceRobot, c.clock, c.metrics, logger)

	return c, nil
}

func (c *CompositionRoot) initStorage(gormDB *gorm.DB) error {
	switch c.config.StorageDriver {
	case StorageDriverMemory:
		catalog := memory.NewCatalog()
		if err := memory.SeedDemo(catalog); err != nil {
			return fmt.Errorf("seed demo catalog: %w", err)
		}
		c.uowFactory = memory.NewUnitOfWorkFactory(memory.NewStore())
		c.catalog = catalog
	case StorageDriverPostgres:
		if gormDB == nil {
			return fmt.Errorf("storage driver %s needs a database", c.config.StorageDriver)
		}
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(gormDB)
		c.catalog = catalogrepo.NewGormCatalog(gormDB)
	default:
		return fmt.Errorf("unknown storage driver %q", c.config.StorageDriver)
	}
	return nil
}

func (c *CompositionRoot) initNotifier() error {
	if !c.config.KafkaEnabled() {
		c.notifier = lognotifier.NewNotifier(c.logger)
		return nil
	}

	notifier, err := kafkaout.NewNotifier(c.config.KafkaBrokers, c.config.KafkaOrderChangedTopic)
	if err != nil {
		return fmt.Errorf("kafka notifier: %w", err)
	}
	c.notifier = notifier
	c.closers = append(c.closers, notifier.Close)
	return nil
}

func (c *CompositionRoot) uowFactoryForCommands() commands.UoWFactory {
	return commands.FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) orderUoWFactory() commands.OrderUoWFactory {
	return commands.FuncOrderUoWFactory(func() commands.OrderUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) robotUoWFactory() commands.RobotUoWFactory {
	return commands.FuncRobotUoWFactory(func() commands.RobotUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.orderUoWFactory(), c.catalog, c.lifecycle)
}

func (c *CompositionRoot) CreateChangeOrderStatusCommandHandler() commands.ChangeOrderStatusCommandHandler {
	return commands.NewChangeOrderStatusCommandHandler(c.lifecycle)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.lifecycle)
}

func (c *CompositionRoot) CreateConfirmDeliveryCommandHandler() commands.ConfirmDeliveryCommandHandler {
	return commands.NewConfirmDeliveryCommandHandler(
		c.uowFactoryForCommands(), c.lifecycle, c.config.OTPMaxAttempts, c.metrics, c.logger)
}

func (c *CompositionRoot) CreateCreateRobotCommandHandler() commands.CreateRobotCommandHandler {
	return commands.NewCreateRobotCommandHandler(c.robotUoWFactory(), c.clock)
}

func (c *CompositionRoot) CreateSetRobotAvailabilityCommandHandler() commands.SetRobotAvailabilityCommandHandler {
	return commands.NewSetRobotAvailabilityCommandHandler(c.robotUoWFactory(), c.clock)
}

func (c *CompositionRoot) CreateRetryPendingDispatchCommandHandler() commands.RetryPendingDispatchCommandHandler {
	return commands.NewRetryPendingDispatchCommandHandler(c.orderUoWFactory(), &c.assignRobot, c.logger)
}

func (c *CompositionRoot) CreateMoveRobotsCommandHandler() commands.MoveRobotsCommandHandler {
	return commands.NewMoveRobotsCommandHandler(c.uowFactoryForCommands(), &c.recordTelemetry, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateGetOrderTrackingQueryHandler() queries.GetOrderTrackingQueryHandler {
	return queries.NewGetOrderTrackingQueryHandler(c.uowFactory)
}

func (c *CompositionRoot) CreateGetAllRobotsQueryHandler() queries.GetAllRobotsQueryHandler {
	return queries.NewGetAllRobotsQueryHandler(c.uowFactory)
}

// CreateRouter builds the HTTP API.
func (c *CompositionRoot) CreateRouter() (*echo.Echo, error) {
	auth, err := apihttp.NewAuthenticator(c.config.JWTSecret)
	if err != nil {
		return nil, err
	}

	server := apihttp.NewServer(apihttp.Handlers{
		CreateOrder:          c.CreateCreateOrderCommandHandler(),
		ChangeOrderStatus:    c.CreateChangeOrderStatusCommandHandler(),
		CancelOrder:          c.CreateCancelOrderCommandHandler(),
		ConfirmDelivery:      c.CreateConfirmDeliveryCommandHandler(),
		CreateRobot:          c.CreateCreateRobotCommandHandler(),
		RecordTelemetry:      c.recordTelemetry,
		SetRobotAvailability: c.CreateSetRobotAvailabilityCommandHandler(),
		GetOrder:             c.CreateGetOrderQueryHandler(),
		ListOrders:           c.CreateListOrdersQueryHandler(),
		GetOrderTracking:     c.CreateGetOrderTrackingQueryHandler(),
		GetAllRobots:         c.CreateGetAllRobotsQueryHandler(),
	}, c.logger)

	return apihttp.NewRouter(server, auth, metrics.NewHTTP(c.registry), c.registry, c.logger)
}

// CreateDispatchWorker drains the queue the lifecycle schedules approved orders on.
func (c *CompositionRoot) CreateDispatchWorker() *jobs.DispatchWorker {
	return jobs.NewDispatchWorker(c.queue, &c.assignRobot, c.config.DispatchWorkers, c.logger)
}

// CreateJobManager returns the cron jobs: dispatch retry always, the robot simulator
// when enabled.
func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	retry := c.CreateRetryPendingDispatchCommandHandler()
	retryJob, err := jobs.NewDispatchRetryJob(&retry, c.config.DispatchRetrySpec, jobs.DefaultDispatchRetryLimit, c.logger)
	if err != nil {
		return nil, err
	}

	var simulationJob *jobs.TelemetrySimulationJob
	if c.config.SimulationEnabled {
		move := c.CreateMoveRobotsCommandHandler()
		simulationJob, err = jobs.NewTelemetrySimulationJob(&move, jobs.DefaultSimulationSpec, c.config.SimulationStepKm, c.logger)
		if err != nil {
			return nil, err
		}
	}

	return jobs.NewJobManager(retryJob, simulationJob), nil
}

// CreateTelemetryConsumer returns nil when Kafka is not configured.
func (c *CompositionRoot) CreateTelemetryConsumer() (*kafkain.TelemetryConsumer, error) {
	if !c.config.KafkaEnabled() {
		return nil, nil
	}

	consumer, err := kafkain.NewTelemetryConsumer(
		c.config.KafkaBrokers,
		c.config.KafkaConsumerGroup,
		c.config.KafkaRobotTelemetryTopic,
		&c.recordTelemetry,
		c.logger,
	)
	if err != nil {
		return nil, fmt.Errorf("kafka telemetry consumer: %w", err)
	}
	return consumer, nil
}

// Close waits for in-flight notifications and releases the notifier.
func (c *CompositionRoot) Close() error {
	c.lifecycle.Wait()

	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
