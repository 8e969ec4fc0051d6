package valueobject

import (
	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of decimal places every stored amount is kept at.
const MoneyPlaces int32 = 2

var hundred = decimal.NewFromInt(100)

// RoundMoney rounds to MoneyPlaces, half away from zero. For the non-negative
// amounts the refund pipeline works with this is plain half-up rounding.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// NonNegative returns d, or zero if d is negative
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Prorate returns amount * part / whole rounded to MoneyPlaces.
// A zero whole prorates to zero.
func Prorate(amount, part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return RoundMoney(amount.Mul(part).Div(whole))
}

// SplitByWeights divides total across weights in proportion, rounding each
// share to MoneyPlaces. The last share with a non-zero weight absorbs the
// rounding residue so the shares always sum to total exactly.
func SplitByWeights(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	shares := make([]decimal.Decimal, len(weights))
	sum := decimal.Zero
	last := -1
	for i, w := range weights {
		shares[i] = decimal.Zero
		if w.IsPositive() {
			sum = sum.Add(w)
			last = i
		}
	}
	if last < 0 {
		return shares
	}

	allocated := decimal.Zero
	for i, w := range weights {
		if !w.IsPositive() || i == last {
			continue
		}
		shares[i] = Prorate(total, w, sum)
		allocated = allocated.Add(shares[i])
	}
	shares[last] = total.Sub(allocated)
	return shares
}

// ToMinorUnits converts a rounded amount to integer minor units (cents)
func ToMinorUnits(d decimal.Decimal) int64 {
	return RoundMoney(d).Mul(hundred).IntPart()
}

// FromMinorUnits converts integer minor units (cents) back to an amount
func FromMinorUnits(cents int64) decimal.Decimal {
	return decimal.New(cents, -MoneyPlaces)
}
