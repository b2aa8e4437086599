package memory

import (
	"context"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/pkg/errs"
)

// DeliveryCodeRepository implements ports.DeliveryCodeRepository over a Store.
type DeliveryCodeRepository struct {
	uow *UnitOfWork
}

func (r *DeliveryCodeRepository) Save(ctx context.Context, record *otp.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	return r.uow.write(ctx, func(tx *changes) error {
		tx.codes[record.OrderID()] = toCodeState(record)
		return nil
	})
}

func (r *DeliveryCodeRepository) Get(_ context.Context, orderID kernel.UUID) (*otp.Record, error) {
	state, ok := r.uow.code(orderID)
	if !ok {
		return nil, errs.NewObjectNotFoundError("delivery code", orderID.String())
	}

	return otp.RestoreRecord(
		state.orderID,
		otp.Code(state.code),
		state.issuedAt,
		state.expiresAt,
		state.isUsed,
		state.usedAt,
		state.attempts,
	)
}

func (r *DeliveryCodeRepository) MarkUsed(ctx context.Context, record *otp.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	return r.uow.write(ctx, func(tx *changes) error {
		stored, ok := r.uow.code(record.OrderID())
		if !ok {
			return errs.NewObjectNotFoundError("delivery code", record.OrderID().String())
		}
		if stored.isUsed || stored.code != record.Code().String() {
			return errs.NewConflictError("delivery code", record.OrderID().String(), "unused")
		}

		stored.isUsed = true
		stored.usedAt = record.UsedAt()
		tx.codes[record.OrderID()] = stored
		return nil
	})
}

func (r *DeliveryCodeRepository) IncrementAttempts(ctx context.Context, orderID kernel.UUID) error {
	return r.uow.write(ctx, func(tx *changes) error {
		stored, ok := r.uow.code(orderID)
		if !ok {
			return errs.NewObjectNotFoundError("delivery code", orderID.String())
		}

		stored.attempts++
		tx.codes[orderID] = stored
		return nil
	})
}

func toCodeState(record *otp.Record) codeState {
	return codeState{
		orderID:   record.OrderID(),
		code:      record.Code().String(),
		issuedAt:  record.IssuedAt(),
		expiresAt: record.ExpiresAt(),
		isUsed:    record.IsUsed(),
		usedAt:    record.UsedAt(),
		attempts:  record.Attempts(),
	}
}
