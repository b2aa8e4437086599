package ports

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/otp"
)

// DeliveryCodeRepository stores at most one delivery code record per order.
type DeliveryCodeRepository interface {
	// Save inserts the record or replaces the existing one for the same order.
	Save(ctx context.Context, record *otp.Record) error

	// Get returns the record for orderID, or errs.ObjectNotFoundError.
	Get(ctx context.Context, orderID kernel.UUID) (*otp.Record, error)

	// MarkUsed flips is_used to true only if it is still false. A lost race is an
	// errs.ConflictError.
	MarkUsed(ctx context.Context, record *otp.Record) error

	// IncrementAttempts atomically adds one wrong attempt to the stored counter.
	IncrementAttempts(ctx context.Context, orderID kernel.UUID) error
}
