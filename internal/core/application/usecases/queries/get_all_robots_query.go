package queries

import (
	"errors"

	"robodelivery/internal/pkg/guard"
)

var ErrGetAllRobotsQueryIsNotConstructed = errors.New(
	"GetAllRobotsQuery must be created via NewGetAllRobotsQuery constructor",
)

// GetAllRobotsQuery retrieves the whole fleet with its current telemetry and dispatch
// state, ordered by name.
//
// Example:
//
//	query := NewGetAllRobotsQuery()
//	handler := NewGetAllRobotsQueryHandler(uowFactory)
//
//	robots, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("failed to retrieve robots: %w", err)
//	}
//
//	for _, r := range robots {
//	    fmt.Printf("%s %s battery %d%%\n", r.Name, r.Status, r.BatteryLevel)
//	}
type GetAllRobotsQuery struct {
	guard guard.ConstructorGuard
}

// NewGetAllRobotsQuery creates a query to retrieve all robots.
func NewGetAllRobotsQuery() GetAllRobotsQuery {
	return GetAllRobotsQuery{guard: guard.NewConstructorGuard()}
}

// Validate ensures the query was created through the constructor.
// Returns ErrGetAllRobotsQueryIsNotConstructed if validation fails.
func (q GetAllRobotsQuery) Validate() error {
	return q.guard.Validate(ErrGetAllRobotsQueryIsNotConstructed)
}
