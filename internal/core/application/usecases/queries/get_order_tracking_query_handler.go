package queries

import (
	"context"
	"errors"

	"robodelivery/internal/core/ports"
	"robodelivery/internal/pkg/errs"
)

// GetOrderTrackingQueryHandler builds tracking views.
//
// Example:
//
//	handler := NewGetOrderTrackingQueryHandler(uowFactory)
//	query, _ := NewGetOrderTrackingQuery(orderID, customer)
//
//	view, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return err
//	}
//	if view.Timeline.OutForDelivery {
//	    fmt.Printf("robot at %.5f, %.5f\n", view.Robot.Location.Lat, view.Robot.Location.Lng)
//	}
type GetOrderTrackingQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

// NewGetOrderTrackingQueryHandler creates a tracking handler.
func NewGetOrderTrackingQueryHandler(uowFactory ports.UnitOfWorkFactory) GetOrderTrackingQueryHandler {
	return GetOrderTrackingQueryHandler{uowFactory: uowFactory}
}

// Handle returns the tracking view. Robot is nil unless a robot is serving the order.
func (h GetOrderTrackingQueryHandler) Handle(ctx context.Context, query GetOrderTrackingQuery) (TrackingView, error) {
	if err := query.Validate(); err != nil {
		return TrackingView{}, err
	}

	uow := h.uowFactory.Create()

	o, err := uow.OrderRepository().Get(ctx, query.OrderID())
	if err != nil {
		return TrackingView{}, err
	}
	if !o.VisibleTo(query.Caller()) {
		return TrackingView{}, errs.NewForbiddenError("order belongs to someone else")
	}

	view := TrackingView{
		OrderID:               o.ID(),
		Status:                o.Status(),
		EstimatedDeliveryTime: o.EstimatedDeliveryTime(),
		ActualDeliveryTime:    o.ActualDeliveryTime(),
		Timeline:              newTimeline(o),
	}

	if robotID := o.RobotID(); robotID != nil {
		r, err := uow.RobotRepository().Get(ctx, *robotID)
		switch {
		case errors.Is(err, errs.ErrObjectNotFound):
		case err != nil:
			return TrackingView{}, err
		default:
			view.Robot = &RobotPosition{
				ID:           r.ID(),
				Name:         r.Name(),
				Status:       r.Status(),
				Location:     LocationView{Lat: r.Location().Lat(), Lng: r.Location().Lng()},
				BatteryLevel: r.BatteryLevel(),
				ReportedAt:   r.UpdatedAt(),
			}
		}
	}

	return view, nil
}
