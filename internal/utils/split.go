package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var centsPerUnit = decimal.NewFromInt(100)

// SplitAmount divides total into count two-decimal shares that sum to total
// exactly. The split works in whole cents: every share gets the same base
// amount and the leftover cents go one each to the leading shares, so 500
// split three ways is 166.67, 166.67, 166.66. Every share is positive; a
// total smaller than count cents cannot be split and is rejected.
func SplitAmount(total decimal.Decimal, count int) ([]decimal.Decimal, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	if total.Sign() <= 0 {
		return nil, fmt.Errorf("total must be positive, got %s", total)
	}

	cents := total.Mul(centsPerUnit)
	if !cents.IsInteger() {
		return nil, fmt.Errorf("total must have at most two decimal places, got %s", total)
	}
	n := decimal.NewFromInt(int64(count))
	if cents.LessThan(n) {
		return nil, fmt.Errorf("total %s is too small to split into %d positive shares", total, count)
	}

	base, rem := cents.QuoRem(n, 0)
	baseCents := base.IntPart()
	extra := rem.IntPart()

	shares := make([]decimal.Decimal, count)
	for i := range shares {
		c := baseCents
		if int64(i) < extra {
			c++
		}
		shares[i] = decimal.New(c, -2)
	}
	return shares, nil
}
