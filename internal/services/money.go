package services

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// All engine arithmetic runs on integer cents; decimals exist only at the
// boundaries. A decimal with more than two fractional digits is rejected
// rather than rounded, so no caller input is ever silently adjusted.

func toCents(amount decimal.Decimal) (int64, error) {
	if !amount.Equal(amount.Round(2)) {
		return 0, fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidAmount, amount)
	}
	return amount.Shift(2).IntPart(), nil
}

func positiveCents(amount decimal.Decimal) (int64, error) {
	cents, err := toCents(amount)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, fmt.Errorf("%w: %s must be greater than 0", ErrInvalidAmount, amount)
	}
	return cents, nil
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
