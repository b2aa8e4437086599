package http

import (
	"errors"
	"net/http"

	"robodelivery/internal/core/application/usecases/commands"
	"robodelivery/internal/core/domain/model/order"
	"robodelivery/internal/core/domain/model/otp"
	"robodelivery/internal/pkg/errs"
)

// Error codes clients branch on.
const (
	CodeValidationFailed   = "validation_failed"
	CodeInvalidTransition  = "invalid_transition"
	CodeItemUnavailable    = "item_unavailable"
	CodeVendorMismatch     = "vendor_mismatch"
	CodeOTPInvalid         = "otp_invalid"
	CodeOTPExpired         = "otp_expired"
	CodeOTPAlreadyUsed     = "otp_already_used"
	CodeOTPTooManyAttempts = "otp_too_many_attempts"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeConflict           = "conflict"
	CodeInternal           = "internal_error"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first match wins, and a joined error can match several entries.
var errorMappings = []errorMapping{
	{otp.ErrCodeAlreadyUsed, http.StatusBadRequest, CodeOTPAlreadyUsed},
	{otp.ErrCodeExpired, http.StatusBadRequest, CodeOTPExpired},
	{otp.ErrTooManyAttempts, http.StatusBadRequest, CodeOTPTooManyAttempts},
	{otp.ErrCodeInvalid, http.StatusBadRequest, CodeOTPInvalid},
	{ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthorized},
	{errs.ErrForbidden, http.StatusForbidden, CodeForbidden},
	{errs.ErrObjectNotFound, http.StatusNotFound, CodeNotFound},
	{errs.ErrConflict, http.StatusConflict, CodeConflict},
	{commands.ErrNothingToAdvance, http.StatusConflict, CodeConflict},
	{order.ErrInvalidTransition, http.StatusBadRequest, CodeInvalidTransition},
	{commands.ErrItemUnavailable, http.StatusBadRequest, CodeItemUnavailable},
	{commands.ErrVendorMismatch, http.StatusBadRequest, CodeVendorMismatch},
	{errs.ErrValueIsInvalid, http.StatusBadRequest, CodeValidationFailed},
	{errs.ErrValueIsOutOfRange, http.StatusBadRequest, CodeValidationFailed},
	{errs.ErrValueIsRequired, http.StatusBadRequest, CodeValidationFailed},
	{commands.ErrItemsAreRequired, http.StatusBadRequest, CodeValidationFailed},
	{commands.ErrSpeedIsInvalid, http.StatusBadRequest, CodeValidationFailed},
	{commands.ErrCapacityIsInvalid, http.StatusBadRequest, CodeValidationFailed},
}

// httpError maps a use case error to a status and body. Unknown errors are 500 and
// their text is not exposed.
func httpError(err error) (int, Error) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, Error{Code: m.code, Message: err.Error()}
		}
	}
	return http.StatusInternalServerError, Error{Code: CodeInternal, Message: "internal server error"}
}
