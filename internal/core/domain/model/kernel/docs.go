// Package kernel provides the shared value objects of the robot delivery domain.
//
// The package includes:
//   - UUID: identifier value object wrapping github.com/google/uuid
//   - Location: a validated latitude/longitude pair with great-circle distance
//
// Both types are immutable and their zero values are invalid, so aggregates
// validate them on construction and on restore from persistence.
package kernel
