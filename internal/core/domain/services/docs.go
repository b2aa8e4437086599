// Package services provides domain services that span the order and robot aggregates.
//
// The package includes:
//   - RobotDispatcher: ranks fleet robots for an approved order and estimates delivery time
//
// Domain services are pure: they never load or persist aggregates. Reserving the chosen
// robot is the job of the application layer, which claims candidates one by one with a
// conditional write.
package services
