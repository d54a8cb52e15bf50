package vault

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the fixed-point precision for all vault amounts: 7 decimal places.
// Raw units are int64 values at this scale; decimal strings exist only at the
// presentation boundary and are never fed back into the pipeline.
const Scale = 7

// Amount validation errors, checked in this order; first failure wins.
var (
	ErrEmptyAmount       = errors.New("amount is required")
	ErrNonNumericAmount  = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be greater than 0")
	ErrInsufficientFunds = errors.New("insufficient balance")
	ErrAmountOverflow    = errors.New("amount out of range")
)

// ParseAmount converts a user-entered decimal string into raw units.
// Digits beyond the 7th decimal place are truncated toward zero, never
// rounded up: the user is never charged more than they typed.
func ParseAmount(s string) (int64, error) {
	raw, err := scaleDecimal(s)
	if err != nil {
		return 0, err
	}
	if raw <= 0 {
		return 0, ErrNonPositiveAmount
	}
	return raw, nil
}

// ParseBalance converts a decimal balance string into raw units. Unlike
// ParseAmount it accepts zero, since an account can legitimately hold nothing.
func ParseBalance(s string) (int64, error) {
	raw, err := scaleDecimal(s)
	if err != nil {
		return 0, err
	}
	if raw < 0 {
		return 0, ErrNonPositiveAmount
	}
	return raw, nil
}

func scaleDecimal(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNonNumericAmount, s)
	}

	// Shift left by the scale, then truncate toward zero.
	scaled := d.Shift(Scale).Truncate(0)

	big := scaled.BigInt()
	if !big.IsInt64() {
		return 0, ErrAmountOverflow
	}
	return big.Int64(), nil
}

// FormatAmount renders raw units as a decimal string for display.
// Presentation only; the result must never be parsed back into the pipeline.
func FormatAmount(raw int64) string {
	return decimal.New(raw, -Scale).String()
}
