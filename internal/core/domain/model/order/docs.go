// Package order provides the Order aggregate and the order lifecycle state machine.
//
// The package includes:
//   - Order: the aggregate root holding the line snapshot, addresses, robot reservation
//     and delivery code of a single customer order
//   - Status: the string-stable lifecycle states and the table of legal edges
//   - Actor and Role: who may request which edge
//   - Line and Address: immutable value objects captured at placement time
//
// Key business rules:
//   - totalAmount is computed server side and always equals the sum of line totals
//   - vendors approve or reject their own pending orders
//   - customers cancel their own orders until the robot starts picking up
//   - only the dispatcher drives robot_assigned, robot_picking_up and robot_delivering
//   - only the delivery code verifier drives robot_delivering → delivered
package order
