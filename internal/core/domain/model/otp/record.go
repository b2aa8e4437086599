package otp

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"robodelivery/internal/core/domain/model/kernel"
	"robodelivery/internal/pkg/errs"
)

const (
	// DefaultTTL is how long an issued code stays valid.
	DefaultTTL = 30 * time.Minute
	// DefaultMaxAttempts caps wrong guesses per code. Zero disables the cap.
	DefaultMaxAttempts = 5
)

var (
	ErrCodeInvalid     = errors.New("delivery code is invalid")
	ErrCodeExpired     = errors.New("delivery code has expired")
	ErrCodeAlreadyUsed = errors.New("delivery code was already used")
	ErrTooManyAttempts = errors.New("too many wrong delivery code attempts")

	ErrRecordIsNotConstructed = errors.New("Record must be created via NewRecord constructor")
)

// Record is the delivery code issued for one order.
type Record struct {
	orderID   kernel.UUID
	code      Code
	issuedAt  time.Time
	expiresAt time.Time
	isUsed    bool
	usedAt    *time.Time
	attempts  int

	isConstructed bool
}

// NewRecord issues a fresh, unused record expiring ttl after issuedAt.
func NewRecord(orderID kernel.UUID, code Code, issuedAt time.Time, ttl time.Duration) (*Record, error) {
	if ttl <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("ttl is invalid", fmt.Errorf("%s is not positive", ttl))
	}
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	if _, err := ParseCode(string(code)); err != nil {
		return nil, err
	}

	return &Record{
		orderID:       orderID,
		code:          code,
		issuedAt:      issuedAt,
		expiresAt:     issuedAt.Add(ttl),
		isConstructed: true,
	}, nil
}

// RestoreRecord rebuilds a stored record.
func RestoreRecord(
	orderID kernel.UUID,
	code Code,
	issuedAt time.Time,
	expiresAt time.Time,
	isUsed bool,
	usedAt *time.Time,
	attempts int,
) (*Record, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}
	if _, err := ParseCode(string(code)); err != nil {
		return nil, err
	}
	if attempts < 0 {
		return nil, errs.NewValueIsOutOfRangeError("attempts", attempts, 0, "unbounded")
	}
	if isUsed != (usedAt != nil) {
		return nil, errs.NewValueIsInvalidErrorWithCause("usedAt is invalid",
			errors.New("used records must carry the time they were used"))
	}

	r := &Record{
		orderID:       orderID,
		code:          code,
		issuedAt:      issuedAt,
		expiresAt:     expiresAt,
		isUsed:        isUsed,
		attempts:      attempts,
		isConstructed: true,
	}
	if usedAt != nil {
		at := *usedAt
		r.usedAt = &at
	}
	return r, nil
}

func (r *Record) Validate() error {
	if r == nil || !r.isConstructed {
		return ErrRecordIsNotConstructed
	}
	return nil
}

func (r *Record) OrderID() kernel.UUID { return r.orderID }
func (r *Record) Code() Code           { return r.code }
func (r *Record) IssuedAt() time.Time  { return r.issuedAt }
func (r *Record) ExpiresAt() time.Time { return r.expiresAt }
func (r *Record) IsUsed() bool         { return r.isUsed }
func (r *Record) Attempts() int        { return r.attempts }

func (r *Record) UsedAt() *time.Time {
	if r.usedAt == nil {
		return nil
	}
	at := *r.usedAt
	return &at
}

// IsExpired reports whether the code is no longer accepted at now.
func (r *Record) IsExpired(now time.Time) bool {
	return !now.Before(r.expiresAt)
}

// Check compares submitted with the stored code at now. maxAttempts <= 0 disables the
// attempt cap. The comparison runs in constant time.
func (r *Record) Check(submitted string, now time.Time, maxAttempts int) error {
	switch {
	case r.isUsed:
		return ErrCodeAlreadyUsed
	case r.IsExpired(now):
		return ErrCodeExpired
	case maxAttempts > 0 && r.attempts >= maxAttempts:
		return ErrTooManyAttempts
	}

	if subtle.ConstantTimeCompare([]byte(submitted), []byte(r.code)) != 1 {
		return ErrCodeInvalid
	}
	return nil
}

// MarkUsed consumes the record. The flag only ever moves from false to true.
func (r *Record) MarkUsed(now time.Time) error {
	if r.isUsed {
		return ErrCodeAlreadyUsed
	}
	r.isUsed = true
	at := now
	r.usedAt = &at
	return nil
}
