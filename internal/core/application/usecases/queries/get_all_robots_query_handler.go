package queries

import (
	"context"

	"robodelivery/internal/core/ports"
)

// GetAllRobotsQueryHandler reads the fleet.
type GetAllRobotsQueryHandler struct {
	uowFactory ports.UnitOfWorkFactory
}

// NewGetAllRobotsQueryHandler creates a handler for fleet queries.
func NewGetAllRobotsQueryHandler(uowFactory ports.UnitOfWorkFactory) GetAllRobotsQueryHandler {
	return GetAllRobotsQueryHandler{uowFactory: uowFactory}
}

// Handle returns every robot sorted by name.
func (h GetAllRobotsQueryHandler) Handle(ctx context.Context, query GetAllRobotsQuery) ([]RobotView, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	robots, err := h.uowFactory.Create().RobotRepository().GetAll(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]RobotView, 0, len(robots))
	for _, r := range robots {
		views = append(views, NewRobotView(r))
	}
	return views, nil
}
