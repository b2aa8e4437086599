package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/pkg/errs"
)

// ConfirmDeliveryCommandHandler verifies delivery codes and completes orders.
//
// The code is consumed, the order moved to delivered and the robot released in one unit
// of work. Consuming is a conditional write on is_used = false, so of two concurrent
// confirmations with the right code only one succeeds; the other gets
// otp.ErrCodeAlreadyUsed. A wrong code is counted in a separate unit of work so the
// count survives the failed confirmation.
type ConfirmDeliveryCommandHandler struct {
	uowFactory  UoWFactory
	lifecycle   *OrderLifecycle
	maxAttempts int
	metrics     Metrics
	logger      *slog.Logger
}

// NewConfirmDeliveryCommandHandler creates the handler. maxAttempts <= 0 disables the
// wrong attempt cap.
func NewConfirmDeliveryCommandHandler(
	uowFactory UoWFactory,
	lifecycle *OrderLifecycle,
	maxAttempts int,
	metrics Metrics,
	logger *slog.Logger,
) ConfirmDeliveryCommandHandler {
	if metrics == nil {
		metrics = NopMetrics{}
	}

	return ConfirmDeliveryCommandHandler{
		uowFactory:  uowFactory,
		lifecycle:   lifecycle,
		maxAttempts: maxAttempts,
		metrics:     metrics,
		logger:      logger.With("component", "ConfirmDeliveryCommandHandler"),
	}
}

// Handle verifies the code and returns the delivered order.
//
// Errors: errs.ForbiddenError for a caller who may not see the order,
// otp.ErrCodeAlreadyUsed, otp.ErrCodeExpired, otp.ErrTooManyAttempts, otp.ErrCodeInvalid,
// and order.InvalidTransitionError when the order is not out for delivery.
func (h *ConfirmDeliveryCommandHandler) Handle(ctx context.Context, cmd ConfirmDeliveryCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	applied, err := h.confirm(ctx, cmd)
	h.metrics.DeliveryCodeChecked(checkResult(err))

	if errors.Is(err, otp.ErrCodeInvalid) {
		if countErr := h.registerFailedAttempt(ctx, cmd.OrderID()); countErr != nil {
			h.logger.ErrorContext(ctx, "failed to count wrong delivery code",
				"order_id", cmd.OrderID().String(), "error", countErr)
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	h.lifecycle.Complete(ctx, applied)
	return applied.Order, nil
}

func (h *ConfirmDeliveryCommandHandler) confirm(ctx context.Context, cmd ConfirmDeliveryCommand) (AppliedTransition, error) {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return AppliedTransition{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	o, err := uow.OrderRepository().Get(ctx, cmd.OrderID())
	if err != nil {
		return AppliedTransition{}, err
	}
	if !o.VisibleTo(cmd.Caller()) {
		return AppliedTransition{}, errs.NewForbiddenError("order belongs to another customer")
	}

	codes := uow.DeliveryCodeRepository()

	record, err := codes.Get(ctx, o.ID())
	if errors.Is(err, errs.ErrObjectNotFound) {
		return AppliedTransition{}, order.NewInvalidTransitionError(o.Status(), order.Delivered)
	}
	if err != nil {
		return AppliedTransition{}, err
	}

	now := h.lifecycle.Now()
	if err = record.Check(cmd.Code().String(), now, h.maxAttempts); err != nil {
		return AppliedTransition{}, err
	}

	if o.Status() != order.RobotDelivering {
		return AppliedTransition{}, order.NewInvalidTransitionError(o.Status(), order.Delivered)
	}

	if err = record.MarkUsed(now); err != nil {
		return AppliedTransition{}, err
	}
	if err = codes.MarkUsed(ctx, record); err != nil {
		if errors.Is(err, errs.ErrConflict) {
			return AppliedTransition{}, fmt.Errorf("%w: %w", otp.ErrCodeAlreadyUsed, err)
		}
		return AppliedTransition{}, err
	}

	applied, err := h.lifecycle.TransitionTx(ctx, uow, TransitionRequest{
		OrderID: o.ID(),
		Target:  order.Delivered,
		Actor:   order.DeliveryVerifier(),
		Notes:   "confirmed by " + string(cmd.Caller().Role()),
	})
	if err != nil {
		return AppliedTransition{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return AppliedTransition{}, err
	}

	return applied, nil
}

func (h *ConfirmDeliveryCommandHandler) registerFailedAttempt(ctx context.Context, orderID kernel.UUID) error {
	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.DeliveryCodeRepository().IncrementAttempts(ctx, orderID); err != nil {
		return err
	}

	return uow.Commit(ctx)
}

func checkResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, otp.ErrCodeInvalid):
		return "invalid"
	case errors.Is(err, otp.ErrCodeExpired):
		return "expired"
	case errors.Is(err, otp.ErrCodeAlreadyUsed):
		return "already_used"
	case errors.Is(err, otp.ErrTooManyAttempts):
		return "too_many_attempts"
	default:
		return "error"
	}
}
