package commands_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/core/domain/model/robot"
	"robodelivery/internal/pkg/errs"
)

// wrongCode returns a valid code that differs from code.
func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func TestConfirmDeliveryCommandHandler_Handle(t *testing.T) {
	t.Run("operator may confirm", func(t *testing.T) {
		w := newWorld(t)
		o, rb := w.delivering(t)
		code, _ := o.DeliveryCode()

		delivered, err := w.confirmCode(t, o.ID(), code, w.operator)

		require.NoError(t, err)
		assert.Equal(t, order.Delivered, delivered.Status())
		assert.Equal(t, robot.Idle, w.getRobot(t, rb.ID()).Status())
		assert.Equal(t, order.DeliveryVerifier(), delivered.History()[len(delivered.History())-1].Actor)
	})

	t.Run("second use of the same code", func(t *testing.T) {
		w := newWorld(t)
		o, _ := w.delivering(t)
		code, _ := o.DeliveryCode()
		_, err := w.confirmCode(t, o.ID(), code, w.customer)
		require.NoError(t, err)

		_, err = w.confirmCode(t, o.ID(), code, w.customer)

		require.ErrorIs(t, err, otp.ErrCodeAlreadyUsed)
		assert.Equal(t, 1, w.metrics.count("code:already_used"))
	})

	t.Run("expired code", func(t *testing.T) {
		w := newWorld(t)
		o, rb := w.delivering(t)
		code, _ := o.DeliveryCode()
		w.clock.Advance(31 * time.Minute)

		_, err := w.confirmCode(t, o.ID(), code, w.customer)

		require.ErrorIs(t, err, otp.ErrCodeExpired)
		assert.Equal(t, order.RobotDelivering, w.getOrder(t, o.ID()).Status())
		assert.Equal(t, robot.Delivering, w.getRobot(t, rb.ID()).Status())
	})

	t.Run("wrong codes are counted and capped", func(t *testing.T) {
		w := newWorld(t)
		o, _ := w.delivering(t)
		code, _ := o.DeliveryCode()

		for range otp.DefaultMaxAttempts {
			_, err := w.confirmCode(t, o.ID(), wrongCode(code), w.customer)
			require.ErrorIs(t, err, otp.ErrCodeInvalid)
		}

		record, err := w.uows.Create().DeliveryCodeRepository().Get(t.Context(), o.ID())
		require.NoError(t, err)
		assert.Equal(t, otp.DefaultMaxAttempts, record.Attempts())

		_, err = w.confirmCode(t, o.ID(), code, w.customer)
		require.ErrorIs(t, err, otp.ErrTooManyAttempts)
		assert.Equal(t, order.RobotDelivering, w.getOrder(t, o.ID()).Status())
		assert.Equal(t, otp.DefaultMaxAttempts, w.metrics.count("code:invalid"))
	})

	t.Run("another customer", func(t *testing.T) {
		w := newWorld(t)
		o, _ := w.delivering(t)
		code, _ := o.DeliveryCode()
		stranger, err := order.NewActor(order.RoleCustomer, kernel.NewUUID())
		require.NoError(t, err)

		_, err = w.confirmCode(t, o.ID(), code, stranger)

		require.ErrorIs(t, err, errs.ErrForbidden)
	})

	t.Run("order that is not out for delivery", func(t *testing.T) {
		w := newWorld(t)
		o := w.placeOrder(t)

		_, err := w.confirmCode(t, o.ID(), "123456", w.customer)

		require.ErrorIs(t, err, order.ErrInvalidTransition)
	})

	t.Run("cancelled order", func(t *testing.T) {
		w := newWorld(t)
		o := w.placeOrder(t)
		cmd, err := commands.NewCancelOrderCommand(o.ID(), w.customer, "")
		require.NoError(t, err)
		_, err = w.cancelOrder.Handle(t.Context(), cmd)
		require.NoError(t, err)

		_, err = w.confirmCode(t, o.ID(), "123456", w.customer)

		require.ErrorIs(t, err, order.ErrInvalidTransition)
	})
}

func TestConfirmDeliveryCommandHandler_ConcurrentConfirmations(t *testing.T) {
	w := newWorld(t)
	o, rb := w.delivering(t)
	code, _ := o.DeliveryCode()

	const racers = 5
	errsCh := make(chan error, racers)

	var wg sync.WaitGroup
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd, err := commands.NewConfirmDeliveryCommand(o.ID(), code, w.customer)
			if err == nil {
				_, err = w.confirm.Handle(t.Context(), cmd)
			}
			errsCh <- err
		}()
	}
	wg.Wait()
	close(errsCh)

	var succeeded int
	for err := range errsCh {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, otp.ErrCodeAlreadyUsed)
	}

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, order.Delivered, w.getOrder(t, o.ID()).Status())
	assert.Equal(t, robot.Idle, w.getRobot(t, rb.ID()).Status())
}

func TestNewConfirmDeliveryCommand(t *testing.T) {
	customer, err := order.NewActor(order.RoleCustomer, kernel.NewUUID())
	require.NoError(t, err)
	vendor, err := order.NewActor(order.RoleVendor, kernel.NewUUID())
	require.NoError(t, err)

	tests := []struct {
		name   string
		code   string
		caller order.Actor
		want   error
	}{
		{"letters", "12a456", customer, errs.ErrValueIsInvalid},
		{"too short", "12345", customer, errs.ErrValueIsInvalid},
		{"vendor", "123456", vendor, errs.ErrForbidden},
		{"system actor", "123456", order.DeliveryVerifier(), errs.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := commands.NewConfirmDeliveryCommand(kernel.NewUUID(), tt.code, tt.caller)
			require.ErrorIs(t, err, tt.want)
		})
	}

	cmd, err := commands.NewConfirmDeliveryCommand(kernel.NewUUID(), "042917", customer)
	require.NoError(t, err)
	assert.Equal(t, otp.Code("042917"), cmd.Code())
}
