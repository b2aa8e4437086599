package http

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/application/usecases/queries"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"
)

// Handlers are the use cases the API exposes.
type Handlers struct {
	CreateOrder          commands.CreateOrderCommandHandler
	ChangeOrderStatus    commands.ChangeOrderStatusCommandHandler
	CancelOrder          commands.CancelOrderCommandHandler
	ConfirmDelivery      commands.ConfirmDeliveryCommandHandler
	CreateRobot          commands.CreateRobotCommandHandler
	RecordTelemetry      commands.RecordTelemetryCommandHandler
	SetRobotAvailability commands.SetRobotAvailabilityCommandHandler

	GetOrder         queries.GetOrderQueryHandler
	ListOrders       queries.ListOrdersQueryHandler
	GetOrderTracking queries.GetOrderTrackingQueryHandler
	GetAllRobots     queries.GetAllRobotsQueryHandler
}

// Server handles the /api/v1 requests.
// It coordinates between HTTP handlers and application use cases.
type Server struct {
	h      Handlers
	logger *slog.Logger
}

// NewServer creates a new HTTP server with the required command and query handlers.
func NewServer(handlers Handlers, logger *slog.Logger) *Server {
	return &Server{
		h:      handlers,
		logger: logger.With("component", "http"),
	}
}

// CreateOrder handles POST /api/v1/orders - places a new order.
func (s *Server) CreateOrder(ctx echo.Context) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body NewOrder
	if err = ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	vendorID, err := kernel.UUIDFromString(body.VendorID)
	if err != nil {
		return s.fail(ctx, err)
	}

	items := make([]commands.OrderItem, 0, len(body.Items))
	for _, item := range body.Items {
		itemID, err := kernel.UUIDFromString(item.ItemID)
		if err != nil {
			return s.fail(ctx, err)
		}
		items = append(items, commands.OrderItem{ItemID: itemID, Quantity: item.Quantity})
	}

	address, err := fromAddress(body.DeliveryAddress)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewCreateOrderCommand(actor, vendorID, items, address, body.Notes)
	if err != nil {
		return s.fail(ctx, err)
	}

	created, err := s.h.CreateOrder.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, toOrder(queries.NewOrderView(created, actor)))
}

// ListOrders handles GET /api/v1/orders - the caller's orders, newest first.
func (s *Server) ListOrders(ctx echo.Context) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var params ListOrdersParams
	if err = runtime.BindQueryParameter("form", true, false, "status", ctx.QueryParams(), &params.Status); err != nil {
		return s.badRequest(ctx, "Invalid format for parameter status: "+err.Error())
	}
	if err = runtime.BindQueryParameter("form", true, false, "page", ctx.QueryParams(), &params.Page); err != nil {
		return s.badRequest(ctx, "Invalid format for parameter page: "+err.Error())
	}
	if err = runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &params.Limit); err != nil {
		return s.badRequest(ctx, "Invalid format for parameter limit: "+err.Error())
	}

	var status *order.Status
	if params.Status != nil {
		parsed, err := order.ParseStatus(*params.Status)
		if err != nil {
			return s.fail(ctx, err)
		}
		status = &parsed
	}

	query, err := queries.NewListOrdersQuery(actor, status, deref(params.Page), deref(params.Limit))
	if err != nil {
		return s.fail(ctx, err)
	}

	page, err := s.h.ListOrders.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	response := OrderPage{
		Orders: make([]Order, 0, len(page.Orders)),
		Page:   page.Page,
		Limit:  page.Limit,
		Total:  page.Total,
	}
	for _, view := range page.Orders {
		response.Orders = append(response.Orders, toOrder(view))
	}

	return ctx.JSON(http.StatusOK, response)
}

// GetOrder handles GET /api/v1/orders/:id.
func (s *Server) GetOrder(ctx echo.Context) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	orderID, err := s.pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetOrderQuery(orderID, actor)
	if err != nil {
		return s.fail(ctx, err)
	}

	view, err := s.h.GetOrder.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrder(view))
}

// ChangeOrderStatus handles PUT /api/v1/orders/:id/status - vendor approval or
// rejection and customer cancellation.
func (s *Server) ChangeOrderStatus(ctx echo.Context) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	orderID, err := s.pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body StatusChange
	if err = ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	target, err := order.ParseStatus(body.Status)
	if err != nil {
		return s.fail(ctx, err)
	}

	var changed *order.Order
	if target == order.Cancelled && actor.Role() == order.RoleCustomer {
		cmd, err := commands.NewCancelOrderCommand(orderID, actor, body.Notes)
		if err != nil {
			return s.fail(ctx, err)
		}
		changed, err = s.h.CancelOrder.Handle(ctx.Request().Context(), cmd)
		if err != nil {
			return s.fail(ctx, err)
		}
	} else {
		cmd, err := commands.NewChangeOrderStatusCommand(orderID, target, actor, body.Notes)
		if err != nil {
			return s.fail(ctx, err)
		}
		changed, err = s.h.ChangeOrderStatus.Handle(ctx.Request().Context(), cmd)
		if err != nil {
			return s.fail(ctx, err)
		}
	}

	return ctx.JSON(http.StatusOK, toOrder(queries.NewOrderView(changed, actor)))
}

// ConfirmDelivery handles POST /api/v1/orders/:id/confirm-delivery.
func (s *Server) ConfirmDelivery(ctx echo.Context) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	orderID, err := s.pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body DeliveryConfirmation
	if err = ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	cmd, err := commands.NewConfirmDeliveryCommand(orderID, body.OTP, actor)
	if err != nil {
		return s.fail(ctx, err)
	}

	delivered, err := s.h.ConfirmDelivery.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toOrder(queries.NewOrderView(delivered, actor)))
}

// GetOrderTracking handles GET /api/v1/orders/:id/tracking.
func (s *Server) GetOrderTracking(ctx echo.Context) error {
	actor, err := s.actor(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	orderID, err := s.pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	query, err := queries.NewGetOrderTrackingQuery(orderID, actor)
	if err != nil {
		return s.fail(ctx, err)
	}

	view, err := s.h.GetOrderTracking.Handle(ctx.Request().Context(), query)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toTracking(view))
}

// GetRobots handles GET /api/v1/robots - the fleet view.
func (s *Server) GetRobots(ctx echo.Context) error {
	if err := s.requireOperator(ctx); err != nil {
		return s.fail(ctx, err)
	}

	robots, err := s.h.GetAllRobots.Handle(ctx.Request().Context(), queries.NewGetAllRobotsQuery())
	if err != nil {
		return s.fail(ctx, err)
	}

	response := make([]Robot, 0, len(robots))
	for _, view := range robots {
		response = append(response, toRobot(view))
	}

	return ctx.JSON(http.StatusOK, response)
}

// CreateRobot handles POST /api/v1/robots - provisions a robot.
func (s *Server) CreateRobot(ctx echo.Context) error {
	if err := s.requireOperator(ctx); err != nil {
		return s.fail(ctx, err)
	}

	var body NewRobot
	if err := ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	location, err := kernel.NewLocation(body.Location.Lat, body.Location.Lng)
	if err != nil {
		return s.fail(ctx, err)
	}
	capacity, err := robot.NewPayload(body.Capacity.WeightKg, body.Capacity.VolumeL)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewCreateRobotCommand(body.Name, location, body.BatteryLevel, capacity, body.SpeedKmh)
	if err != nil {
		return s.fail(ctx, err)
	}

	created, err := s.h.CreateRobot.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, toRobot(queries.NewRobotView(created)))
}

// RecordTelemetry handles POST /api/v1/robots/:id/telemetry. Robots may only report
// for themselves.
func (s *Server) RecordTelemetry(ctx echo.Context) error {
	principal, ok := principalFrom(ctx)
	if !ok {
		return s.fail(ctx, ErrUnauthenticated)
	}
	robotID, err := s.pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	self := principal.Role == RoleRobot && principal.ID.IsEqual(robotID)
	if !self && !principal.isOperator() {
		return s.fail(ctx, errs.NewForbiddenError("only the robot itself or an operator may report telemetry"))
	}

	var body Telemetry
	if err = ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	location, err := kernel.NewLocation(body.Location.Lat, body.Location.Lng)
	if err != nil {
		return s.fail(ctx, err)
	}
	milestone, err := commands.ParseMilestone(body.Milestone)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewRecordTelemetryCommand(robotID, location, body.BatteryLevel, milestone)
	if err != nil {
		return s.fail(ctx, err)
	}

	updated, err := s.h.RecordTelemetry.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toRobot(queries.NewRobotView(updated)))
}

// SetRobotAvailability handles PUT /api/v1/robots/:id/availability.
func (s *Server) SetRobotAvailability(ctx echo.Context) error {
	if err := s.requireOperator(ctx); err != nil {
		return s.fail(ctx, err)
	}
	robotID, err := s.pathID(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}

	var body Availability
	if err = ctx.Bind(&body); err != nil {
		return s.badRequest(ctx, "Invalid request body")
	}

	status, err := robot.ParseStatus(body.Status)
	if err != nil {
		return s.fail(ctx, err)
	}

	cmd, err := commands.NewSetRobotAvailabilityCommand(robotID, status)
	if err != nil {
		return s.fail(ctx, err)
	}

	updated, err := s.h.SetRobotAvailability.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return s.fail(ctx, err)
	}

	return ctx.JSON(http.StatusOK, toRobot(queries.NewRobotView(updated)))
}

// actor returns the caller as an order actor.
func (s *Server) actor(ctx echo.Context) (order.Actor, error) {
	principal, ok := principalFrom(ctx)
	if !ok {
		return order.Actor{}, ErrUnauthenticated
	}
	return principal.Actor()
}

func (s *Server) requireOperator(ctx echo.Context) error {
	principal, ok := principalFrom(ctx)
	if !ok {
		return ErrUnauthenticated
	}
	if !principal.isOperator() {
		return errs.NewForbiddenError("fleet management is for operators")
	}
	return nil
}

func (s *Server) pathID(ctx echo.Context) (kernel.UUID, error) {
	var raw string
	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &raw,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause("id", err)
	}
	return kernel.UUIDFromString(raw)
}

func (s *Server) fail(ctx echo.Context, err error) error {
	status, body := httpError(err)
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(ctx.Request().Context(), "request failed",
			"method", ctx.Request().Method, "path", ctx.Path(), "error", err)
	}
	return ctx.JSON(status, body)
}

func (s *Server) badRequest(ctx echo.Context, message string) error {
	return ctx.JSON(http.StatusBadRequest, Error{Code: CodeValidationFailed, Message: message})
}

func fromAddress(body Address) (order.Address, error) {
	var location *kernel.Location
	if body.Location != nil {
		parsed, err := kernel.NewLocation(body.Location.Lat, body.Location.Lng)
		if err != nil {
			return order.Address{}, err
		}
		location = &parsed
	}
	return order.NewAddress(body.Street, body.Landmark, body.City, body.PostalCode, location)
}

func deref(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
