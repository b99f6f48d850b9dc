package settlement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Payout returns floor(stake / a * b). The product is taken first so the
// floor sees the exact quotient.
func Payout(stake, a, b decimal.Decimal) (decimal.Decimal, error) {
	if err := ValidateConvert(a, b); err != nil {
		return decimal.Zero, err
	}
	q, r := stake.Mul(b).QuoRem(a, 0)
	if r.IsNegative() {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return q, nil
}

// Delta is the signed balance change for one settled bet: the payout on a
// win, the full stake taken back on a loss.
func Delta(won bool, stake, payout decimal.Decimal) decimal.Decimal {
	if won {
		return payout
	}
	return stake.Neg()
}

func ValidateConvert(a, b decimal.Decimal) error {
	if !a.IsPositive() {
		return fmt.Errorf("%w: a=%s must be positive", ErrInvalidConvert, a)
	}
	if b.IsNegative() {
		return fmt.Errorf("%w: b=%s must not be negative", ErrInvalidConvert, b)
	}
	return nil
}
