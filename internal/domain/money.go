package domain

import "github.com/shopspring/decimal"

// MinorUnitExp is the number of fractional digits an amount may carry.
const MinorUnitExp = 2

var minorUnitScale = decimal.New(1, MinorUnitExp)

// MaxAmount is the largest amount accepted anywhere. Its cent value fits in
// an int64 and in the BIGINT *_minor columns with room to spare.
var MaxAmount = decimal.RequireFromString("999999999999.99")

// WithinAmountLimit reports whether |amount| does not exceed MaxAmount.
func WithinAmountLimit(amount decimal.Decimal) bool {
	return amount.Abs().LessThanOrEqual(MaxAmount)
}

// MinorUnits converts an amount to integer cents. ok is false when the amount
// is finer than a cent or outside MaxAmount.
func MinorUnits(amount decimal.Decimal) (minor int64, ok bool) {
	if !WithinAmountLimit(amount) || !HasCentPrecision(amount) {
		return 0, false
	}
	return amount.Mul(minorUnitScale).IntPart(), true
}

// ToMinorUnits converts an amount that already passed validation to integer
// cents. Anything finer than a cent is truncated; it panics outside MaxAmount
// rather than wrap.
func ToMinorUnits(amount decimal.Decimal) int64 {
	if !WithinAmountLimit(amount) {
		panic("domain: amount " + amount.String() + " exceeds MaxAmount")
	}
	return amount.Mul(minorUnitScale).Truncate(0).IntPart()
}

func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -MinorUnitExp)
}

// HasCentPrecision reports whether amount carries at most two fractional digits.
func HasCentPrecision(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(MinorUnitExp))
}

// IsWholeAmount reports whether amount has no fractional part.
func IsWholeAmount(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(0))
}
