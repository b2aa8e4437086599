package commands

import (
	"context"
	"time"

	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
)

// DeliveryCodeIssuer generates delivery codes for orders entering robot_delivering.
// Issuing again for the same order replaces the previous record, used or not.
type DeliveryCodeIssuer struct {
	ttl      time.Duration
	generate func() (otp.Code, error)
}

// NewDeliveryCodeIssuer returns an issuer whose codes live for ttl. A zero ttl means
// otp.DefaultTTL.
func NewDeliveryCodeIssuer(ttl time.Duration) *DeliveryCodeIssuer {
	if ttl <= 0 {
		ttl = otp.DefaultTTL
	}
	return &DeliveryCodeIssuer{ttl: ttl, generate: otp.GenerateCode}
}

// NewDeliveryCodeIssuerWithGenerator is NewDeliveryCodeIssuer with a custom code source.
func NewDeliveryCodeIssuerWithGenerator(ttl time.Duration, generate func() (otp.Code, error)) *DeliveryCodeIssuer {
	issuer := NewDeliveryCodeIssuer(ttl)
	issuer.generate = generate
	return issuer
}

// IssueTx stores a fresh record for o and copies the code and its expiry onto o.
func (i *DeliveryCodeIssuer) IssueTx(ctx context.Context, uow UoW, o *order.Order, now time.Time) error {
	code, err := i.generate()
	if err != nil {
		return err
	}

	record, err := otp.NewRecord(o.ID(), code, now, i.ttl)
	if err != nil {
		return err
	}

	if err = uow.DeliveryCodeRepository().Save(ctx, record); err != nil {
		return err
	}

	return o.SetDeliveryCode(record.Code().String(), record.ExpiresAt())
}
