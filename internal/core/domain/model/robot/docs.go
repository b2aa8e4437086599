// Package robot provides the Robot aggregate: one autonomous delivery robot of the fleet,
// its telemetry and its reservation for at most one order.
//
// Key business rules:
//   - a robot is dispatch eligible iff it is idle and its battery is above MinDispatchBattery
//   - assignedOrderID is set iff the robot is assigned, picking up or delivering
//   - currentLoad never exceeds capacity in weight or volume
//   - phases only move idle → assigned → picking_up → delivering, and Release returns to idle
package robot
