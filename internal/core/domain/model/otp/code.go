package otp

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"robodelivery/internal/pkg/errs"
)

// CodeLength is the number of decimal digits in a delivery code.
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// Code is a 6 digit numeric delivery code. Leading zeros are significant.
type Code string

// GenerateCode draws a uniformly distributed code from crypto/rand.
func GenerateCode() (Code, error) {
	return GenerateCodeFrom(rand.Reader)
}

// GenerateCodeFrom draws a code from r. Tests pass a deterministic reader.
func GenerateCodeFrom(r io.Reader) (Code, error) {
	n, err := rand.Int(r, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate delivery code: %w", err)
	}
	return Code(fmt.Sprintf("%0*d", CodeLength, n.Int64())), nil
}

// ParseCode validates a submitted or stored code.
func ParseCode(s string) (Code, error) {
	if len(s) != CodeLength {
		return "", errs.NewValueIsInvalidErrorWithCause("otp is invalid",
			fmt.Errorf("expected %d digits, got %d characters", CodeLength, len(s)))
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", errs.NewValueIsInvalidErrorWithCause("otp is invalid", fmt.Errorf("%q is not a digit", r))
		}
	}
	return Code(s), nil
}

func (c Code) String() string {
	return string(c)
}
