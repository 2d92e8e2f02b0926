package pricing

import (
	"errors"
	"math"
)

// ErrAmountOutOfRange is returned when an amount is negative or does not
// fit in an int64 rupiah value.
var ErrAmountOutOfRange = errors.New("amount out of range")

// Multiply returns a*b for non-negative a and b.
func Multiply(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrAmountOutOfRange
	}
	if a != 0 && b > math.MaxInt64/a {
		return 0, ErrAmountOutOfRange
	}
	return a * b, nil
}

// Sum adds non-negative amounts.
func Sum(amounts ...int64) (int64, error) {
	var total int64
	for _, a := range amounts {
		if a < 0 || total > math.MaxInt64-a {
			return 0, ErrAmountOutOfRange
		}
		total += a
	}
	return total, nil
}
