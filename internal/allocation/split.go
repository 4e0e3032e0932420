package allocation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits every share but the last is rounded to
const Precision int32 = 18

var (
	ErrNoShares      = errors.New("cannot split across zero shares")
	ErrInvalidWeight = errors.New("weights must be non-negative with a positive sum")
)

// Split divides total into n shares. The first n-1 are total/n rounded to
// Precision places and the last takes whatever is left, so the sum is exact.
func Split(total decimal.Decimal, n int) ([]decimal.Decimal, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n=%d", ErrNoShares, n)
	}

	shares := make([]decimal.Decimal, n)
	share := total.DivRound(decimal.NewFromInt(int64(n)), Precision)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		shares[i] = share
		allocated = allocated.Add(share)
	}
	shares[n-1] = total.Sub(allocated)
	return shares, nil
}

// SplitWeighted divides total in proportion to weights with the same
// rounding and remainder policy as Split.
func SplitWeighted(total decimal.Decimal, weights []decimal.Decimal) ([]decimal.Decimal, error) {
	if len(weights) == 0 {
		return nil, ErrNoShares
	}

	sum := decimal.Zero
	for _, w := range weights {
		if w.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidWeight, w)
		}
		sum = sum.Add(w)
	}
	if !sum.IsPositive() {
		return nil, ErrInvalidWeight
	}

	shares := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i := 0; i < len(weights)-1; i++ {
		shares[i] = total.Mul(weights[i]).DivRound(sum, Precision)
		allocated = allocated.Add(shares[i])
	}
	shares[len(weights)-1] = total.Sub(allocated)
	return shares, nil
}
