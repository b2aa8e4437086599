package services

import (
	"math"
	"sort"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/robot"
)

// RobotDispatcher picks robots for orders.
//
// Selection rules:
//   - only dispatch eligible robots (idle, battery above robot.MinDispatchBattery)
//   - free capacity must fit the order weight and volume
//   - nearest to the pickup point first (great-circle distance, whole metres)
//   - ties go to the most recently maintained robot, then to the smaller id
//
// Example usage:
//
//	dispatcher := services.NewRobotDispatcher()
//	load, _ := dispatcher.LoadFor(o)
//	candidates, err := dispatcher.Rank(load, pickup, robots)
type RobotDispatcher struct{}

// NewRobotDispatcher creates a new RobotDispatcher instance.
func NewRobotDispatcher() RobotDispatcher {
	return RobotDispatcher{}
}

// LoadFor converts the order's required capacity into a robot payload.
func (d RobotDispatcher) LoadFor(o *order.Order) (robot.Payload, error) {
	if err := o.Validate(); err != nil {
		return robot.Payload{}, err
	}
	return robot.NewPayload(o.RequiredCapacity())
}

type candidate struct {
	robot *robot.Robot
	// metres is the distance to pickup rounded to whole metres.
	metres int64
}

// Rank returns the robots able to take load, best first. An empty result is not an error.
// Without pickup coordinates every robot counts as equally near.
func (d RobotDispatcher) Rank(load robot.Payload, pickup *kernel.Location, robots []*robot.Robot) ([]*robot.Robot, error) {
	if pickup != nil {
		if err := pickup.Validate(); err != nil {
			return nil, err
		}
	}

	candidates := make([]candidate, 0, len(robots))
	for _, r := range robots {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if !r.IsDispatchEligible() || !r.CanCarry(load) {
			continue
		}

		var metres int64
		if pickup != nil {
			km, err := r.Location().Distance(*pickup)
			if err != nil {
				return nil, err
			}
			metres = int64(math.Round(km * 1000))
		}
		candidates = append(candidates, candidate{robot: r, metres: metres})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.metres != b.metres {
			return a.metres < b.metres
		}
		if !a.robot.LastMaintenance().Equal(b.robot.LastMaintenance()) {
			return a.robot.LastMaintenance().After(b.robot.LastMaintenance())
		}
		return a.robot.ID().String() < b.robot.ID().String()
	})

	ranked := make([]*robot.Robot, len(candidates))
	for i, c := range candidates {
		ranked[i] = c.robot
	}
	return ranked, nil
}

// EstimateDelivery is the time r needs to reach pickup and then dropoff. Each leg
// without coordinates counts as fallbackLeg.
func (d RobotDispatcher) EstimateDelivery(
	r *robot.Robot,
	pickup *kernel.Location,
	dropoff *kernel.Location,
	fallbackLeg time.Duration,
) (time.Duration, error) {
	if pickup == nil {
		return 2 * fallbackLeg, nil
	}

	toPickup, err := r.TimeTo(*pickup)
	if err != nil {
		return 0, err
	}
	if dropoff == nil {
		return toPickup + fallbackLeg, nil
	}

	km, err := pickup.Distance(*dropoff)
	if err != nil {
		return 0, err
	}
	return toPickup + time.Duration(km/r.SpeedKmh()*float64(time.Hour)), nil
}
