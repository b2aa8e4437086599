package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	apihttp "robodelivery/internal/adapters/in/http"
	"robodelivery/internal/adapters/out/memory"
	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/application/usecases/queries"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/domain/services"
	"robodelivery/internal/core/ports"
	"robodelivery/internal/metrics"
	"robodelivery/internal/pkg/clock"
)

const testSecret = "test-secret"

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) Notify(ctx context.Context, event ports.OrderEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockScheduler struct{ mock.Mock }

func (m *MockScheduler) Schedule(orderID kernel.UUID) {
	m.Called(orderID)
}

type ServerSuite struct {
	suite.Suite

	e         *echo.Echo
	auth      *apihttp.Authenticator
	lifecycle *commands.OrderLifecycle
	assign    commands.AssignRobotCommandHandler

	customerID kernel.UUID
	operatorID kernel.UUID
	customer   string
	vendor     string
	operator   string
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)
	uows := memory.NewUnitOfWorkFactory(memory.NewStore())
	catalog := memory.NewCatalog()
	s.Require().NoError(memory.SeedDemo(catalog))

	notifier := new(MockNotifier)
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()
	scheduler := new(MockScheduler)
	scheduler.On("Schedule", mock.Anything).Return().Maybe()

	uowFactory := commands.FuncUoWFactory(func() commands.UoW { return uows.Create() })
	orderUoWFactory := commands.FuncOrderUoWFactory(func() commands.OrderUoW { return uows.Create() })
	robotUoWFactory := commands.FuncRobotUoWFactory(func() commands.RobotUoW { return uows.Create() })
	clk := clock.System{}

	issuer := commands.NewDeliveryCodeIssuerWithGenerator(0, func() (otp.Code, error) {
		return otp.ParseCode("424242")
	})
	s.lifecycle = commands.NewOrderLifecycle(
		uowFactory, issuer, notifier, scheduler, clk, commands.NopMetrics{}, logger, time.Second)

	s.assign = commands.NewAssignRobotCommandHandler(
		uowFactory, s.lifecycle, services.NewRobotDispatcher(), commands.NopMetrics{}, logger, 0)
	advance := commands.NewAdvanceRobotCommandHandler(uowFactory, s.lifecycle, logger)

	server := apihttp.NewServer(apihttp.Handlers{
		CreateOrder:       commands.NewCreateOrderCommandHandler(orderUoWFactory, catalog, s.lifecycle),
		ChangeOrderStatus: commands.NewChangeOrderStatusCommandHandler(s.lifecycle),
		CancelOrder:       commands.NewCancelOrderCommandHandler(s.lifecycle),
		ConfirmDelivery: commands.NewConfirmDeliveryCommandHandler(
			uowFactory, s.lifecycle, otp.DefaultMaxAttempts, commands.NopMetrics{}, logger),
		CreateRobot: commands.NewCreateRobotCommandHandler(robotUoWFactory, clk),
		RecordTelemetry: commands.NewRecordTelemetryCommandHandler(
			robotUoWFactory, &advance, clk, commands.NopMetrics{}, logger),
		SetRobotAvailability: commands.NewSetRobotAvailabilityCommandHandler(robotUoWFactory, clk),
		GetOrder:             queries.NewGetOrderQueryHandler(uows),
		ListOrders:           queries.NewListOrdersQueryHandler(uows),
		GetOrderTracking:     queries.NewGetOrderTrackingQueryHandler(uows),
		GetAllRobots:         queries.NewGetAllRobotsQueryHandler(uows),
	}, logger)

	var err error
	s.auth, err = apihttp.NewAuthenticator(testSecret)
	s.Require().NoError(err)

	registry := prometheus.NewRegistry()
	s.e, err = apihttp.NewRouter(server, s.auth, metrics.NewHTTP(registry), registry, logger)
	s.Require().NoError(err)

	s.customerID = kernel.NewUUID()
	s.operatorID = kernel.NewUUID()
	s.customer = s.token("customer", s.customerID)
	s.vendor = s.token("vendor", memory.DemoVendorID)
	s.operator = s.token("operator", s.operatorID)
}

func (s *ServerSuite) TearDownTest() {
	s.lifecycle.Wait()
}

func (s *ServerSuite) token(role string, id kernel.UUID) string {
	signed, err := s.auth.Sign(role, id, time.Hour)
	s.Require().NoError(err)
	return signed
}

func (s *ServerSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *ServerSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func (s *ServerSuite) requireError(rec *httptest.ResponseRecorder, status int, code string) {
	s.Require().Equal(status, rec.Code, rec.Body.String())
	var body apihttp.Error
	s.decode(rec, &body)
	s.Equal(code, body.Code)
}

func (s *ServerSuite) newOrderBody() apihttp.NewOrder {
	return apihttp.NewOrder{
		VendorID: memory.DemoVendorID.String(),
		Items:    []apihttp.NewOrderItem{{ItemID: memory.DemoPizzaID.String(), Quantity: 2}},
		DeliveryAddress: apihttp.Address{
			Street:     "Invalidenstr. 116",
			City:       "Berlin",
			PostalCode: "10115",
			Location:   &apihttp.Location{Lat: 52.5316, Lng: 13.3847},
		},
	}
}

func (s *ServerSuite) placeOrder() apihttp.Order {
	rec := s.do(http.MethodPost, "/api/v1/orders", s.customer, s.newOrderBody())
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created apihttp.Order
	s.decode(rec, &created)
	return created
}

func (s *ServerSuite) changeStatus(orderID, token, status string) *httptest.ResponseRecorder {
	return s.do(http.MethodPut, "/api/v1/orders/"+orderID+"/status", token, apihttp.StatusChange{Status: status})
}

func (s *ServerSuite) createRobot() apihttp.Robot {
	rec := s.do(http.MethodPost, "/api/v1/robots", s.operator, apihttp.NewRobot{
		Name:         "RB-01",
		Location:     apihttp.Location{Lat: 52.5205, Lng: 13.4060},
		BatteryLevel: 90,
		Capacity:     apihttp.Payload{WeightKg: 20, VolumeL: 60},
		SpeedKmh:     6,
	})
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var created apihttp.Robot
	s.decode(rec, &created)
	return created
}

func (s *ServerSuite) TestHealthAndMetrics() {
	rec := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)

	s.do(http.MethodGet, "/api/v1/orders", s.customer, nil)

	rec = s.do(http.MethodGet, "/metrics", "", nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `http_requests_total{method="GET",route="/api/v1/orders",status="200"}`)
}

func (s *ServerSuite) TestRequiresBearerToken() {
	rec := s.do(http.MethodGet, "/api/v1/orders", "", nil)
	s.requireError(rec, http.StatusUnauthorized, apihttp.CodeUnauthorized)

	rec = s.do(http.MethodGet, "/api/v1/orders", "not-a-token", nil)
	s.requireError(rec, http.StatusUnauthorized, apihttp.CodeUnauthorized)
}

func (s *ServerSuite) TestCreateOrder() {
	created := s.placeOrder()

	s.Equal("pending", created.Status)
	s.Equal(s.customerID.String(), created.CustomerID)
	s.Equal("25.00", created.TotalAmount)
	s.Require().Len(created.Items, 1)
	s.Equal("Margherita", created.Items[0].Name)
	s.Equal("12.50", created.Items[0].UnitPrice)
	s.Empty(created.History)
	s.Nil(created.RobotID)
}

func (s *ServerSuite) TestCreateOrderRejectsInvalidInput() {
	s.Run("schema violation", func() {
		rec := s.do(http.MethodPost, "/api/v1/orders", s.customer, map[string]any{"vendorId": memory.DemoVendorID.String()})
		s.requireError(rec, http.StatusBadRequest, apihttp.CodeValidationFailed)
	})

	s.Run("unknown item", func() {
		body := s.newOrderBody()
		body.Items[0].ItemID = kernel.NewUUID().String()
		rec := s.do(http.MethodPost, "/api/v1/orders", s.customer, body)
		s.requireError(rec, http.StatusBadRequest, apihttp.CodeItemUnavailable)
	})

	s.Run("vendors cannot order", func() {
		rec := s.do(http.MethodPost, "/api/v1/orders", s.vendor, s.newOrderBody())
		s.requireError(rec, http.StatusForbidden, apihttp.CodeForbidden)
	})
}

func (s *ServerSuite) TestGetOrder() {
	created := s.placeOrder()

	s.Run("owner", func() {
		rec := s.do(http.MethodGet, "/api/v1/orders/"+created.ID, s.customer, nil)
		s.Require().Equal(http.StatusOK, rec.Code)
		var got apihttp.Order
		s.decode(rec, &got)
		s.Equal(created.ID, got.ID)
	})

	s.Run("other customer", func() {
		rec := s.do(http.MethodGet, "/api/v1/orders/"+created.ID, s.token("customer", kernel.NewUUID()), nil)
		s.requireError(rec, http.StatusForbidden, apihttp.CodeForbidden)
	})

	s.Run("unknown order", func() {
		rec := s.do(http.MethodGet, "/api/v1/orders/"+kernel.NewUUID().String(), s.customer, nil)
		s.requireError(rec, http.StatusNotFound, apihttp.CodeNotFound)
	})

	s.Run("malformed id", func() {
		rec := s.do(http.MethodGet, "/api/v1/orders/not-an-id", s.customer, nil)
		s.requireError(rec, http.StatusBadRequest, apihttp.CodeValidationFailed)
	})

	s.Run("robots are not order actors", func() {
		rec := s.do(http.MethodGet, "/api/v1/orders/"+created.ID, s.token(apihttp.RoleRobot, kernel.NewUUID()), nil)
		s.requireError(rec, http.StatusForbidden, apihttp.CodeForbidden)
	})
}

func (s *ServerSuite) TestListOrders() {
	for range 3 {
		s.placeOrder()
	}

	rec := s.do(http.MethodGet, "/api/v1/orders?limit=2", s.customer, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var page apihttp.OrderPage
	s.decode(rec, &page)
	s.Len(page.Orders, 2)
	s.Equal(1, page.Page)
	s.Equal(2, page.Limit)
	s.EqualValues(3, page.Total)

	rec = s.do(http.MethodGet, "/api/v1/orders?status=delivered", s.customer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &page)
	s.Empty(page.Orders)

	rec = s.do(http.MethodGet, "/api/v1/orders?limit=500", s.customer, nil)
	s.requireError(rec, http.StatusBadRequest, apihttp.CodeValidationFailed)

	rec = s.do(http.MethodGet, "/api/v1/orders?status=lost", s.customer, nil)
	s.requireError(rec, http.StatusBadRequest, apihttp.CodeValidationFailed)
}

func (s *ServerSuite) TestChangeOrderStatus() {
	created := s.placeOrder()

	rec := s.changeStatus(created.ID, s.customer, "vendor_approved")
	s.requireError(rec, http.StatusForbidden, apihttp.CodeForbidden)

	rec = s.changeStatus(created.ID, s.vendor, "vendor_approved")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var approved apihttp.Order
	s.decode(rec, &approved)
	s.Equal("vendor_approved", approved.Status)
	s.Require().Len(approved.History, 1)
	s.Equal("vendor", approved.History[0].Role)

	rec = s.changeStatus(created.ID, s.vendor, "vendor_approved")
	s.requireError(rec, http.StatusConflict, apihttp.CodeConflict)

	rec = s.changeStatus(created.ID, s.vendor, "vendor_rejected")
	s.requireError(rec, http.StatusBadRequest, apihttp.CodeInvalidTransition)

	rec = s.changeStatus(created.ID, s.vendor, "delivered")
	s.requireError(rec, http.StatusForbidden, apihttp.CodeForbidden)
}

func (s *ServerSuite) TestCustomerCancels() {
	created := s.placeOrder()

	rec := s.do(http.MethodPut, "/api/v1/orders/"+created.ID+"/status", s.customer,
		apihttp.StatusChange{Status: "cancelled", Notes: "changed my mind"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var cancelled apihttp.Order
	s.decode(rec, &cancelled)
	s.Equal("cancelled", cancelled.Status)
	s.Equal("changed my mind", cancelled.History[0].Notes)
}

func (s *ServerSuite) TestFleetIsForOperators() {
	rec := s.do(http.MethodGet, "/api/v1/robots", s.customer, nil)
	s.requireError(rec, http.StatusForbidden, apihttp.CodeForbidden)

	created := s.createRobot()
	s.Equal("idle", created.Status)

	rec = s.do(http.MethodPut, "/api/v1/robots/"+created.ID+"/availability", s.operator,
		apihttp.Availability{Status: "maintenance"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(http.MethodGet, "/api/v1/robots", s.operator, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var robots []apihttp.Robot
	s.decode(rec, &robots)
	s.Require().Len(robots, 1)
	s.Equal("maintenance", robots[0].Status)
}

func (s *ServerSuite) TestRobotsReportOnlyForThemselves() {
	created := s.createRobot()
	reading := apihttp.Telemetry{Location: apihttp.Location{Lat: 52.52, Lng: 13.40}, BatteryLevel: 80}

	rec := s.do(http.MethodPost, "/api/v1/robots/"+created.ID+"/telemetry",
		s.token(apihttp.RoleRobot, kernel.NewUUID()), reading)
	s.requireError(rec, http.StatusForbidden, apihttp.CodeForbidden)

	rec = s.do(http.MethodPost, "/api/v1/robots/"+created.ID+"/telemetry",
		s.token(apihttp.RoleRobot, kernel.MustParseUUID(created.ID)), reading)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var updated apihttp.Robot
	s.decode(rec, &updated)
	s.Equal(80, updated.BatteryLevel)
}

func (s *ServerSuite) TestDeliveryFlow() {
	rb := s.createRobot()
	robotToken := s.token(apihttp.RoleRobot, kernel.MustParseUUID(rb.ID))
	created := s.placeOrder()
	orderID := kernel.MustParseUUID(created.ID)

	rec := s.changeStatus(created.ID, s.vendor, "vendor_approved")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	cmd, err := commands.NewAssignRobotCommand(orderID)
	s.Require().NoError(err)
	_, err = s.assign.Handle(s.T().Context(), cmd)
	s.Require().NoError(err)

	for _, milestone := range []string{"arrived_at_vendor", "loaded"} {
		rec = s.do(http.MethodPost, "/api/v1/robots/"+rb.ID+"/telemetry", robotToken, apihttp.Telemetry{
			Location:     apihttp.Location{Lat: 52.5205, Lng: 13.4060},
			BatteryLevel: 85,
			Milestone:    milestone,
		})
		s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	}

	var view apihttp.Order
	rec = s.do(http.MethodGet, "/api/v1/orders/"+created.ID, s.customer, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &view)
	s.Equal("robot_delivering", view.Status)
	s.Equal("424242", view.DeliveryCode)
	s.NotNil(view.CodeExpiresAt)

	rec = s.do(http.MethodGet, "/api/v1/orders/"+created.ID, s.vendor, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var vendorView apihttp.Order
	s.decode(rec, &vendorView)
	s.Empty(vendorView.DeliveryCode)

	rec = s.do(http.MethodGet, "/api/v1/orders/"+created.ID+"/tracking", s.customer, nil)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var tracking apihttp.Tracking
	s.decode(rec, &tracking)
	s.Require().NotNil(tracking.Robot)
	s.Equal(rb.ID, tracking.Robot.ID)
	s.True(tracking.Timeline.OutForDelivery)
	s.False(tracking.Timeline.Delivered)

	confirmPath := "/api/v1/orders/" + created.ID + "/confirm-delivery"

	rec = s.do(http.MethodPost, confirmPath, s.customer, apihttp.DeliveryConfirmation{OTP: "000000"})
	s.requireError(rec, http.StatusBadRequest, apihttp.CodeOTPInvalid)

	rec = s.do(http.MethodPost, confirmPath, s.customer, apihttp.DeliveryConfirmation{OTP: "424242"})
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.decode(rec, &view)
	s.Equal("delivered", view.Status)
	s.NotNil(view.ActualDeliveryTime)
	s.Len(view.History, 5)

	rec = s.do(http.MethodPost, confirmPath, s.customer, apihttp.DeliveryConfirmation{OTP: "424242"})
	s.requireError(rec, http.StatusBadRequest, apihttp.CodeOTPAlreadyUsed)

	rec = s.do(http.MethodGet, "/api/v1/robots", s.operator, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	var robots []apihttp.Robot
	s.decode(rec, &robots)
	s.Require().Len(robots, 1)
	s.Equal("idle", robots[0].Status)
	s.Nil(robots[0].AssignedOrderID)
}
