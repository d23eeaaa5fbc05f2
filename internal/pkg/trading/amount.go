// Package trading provides order sizing helpers.
package trading

import (
	"github.com/shopspring/decimal"
)

// MaxPrecision bounds the decimal places an exchange may ask for.
const MaxPrecision = 18

// RoundAmount rounds amount to precision decimal places, half-up.
// Amounts are non-negative, so decimal's half-away-from-zero rounding is half-up here.
func RoundAmount(amount decimal.Decimal, precision int) decimal.Decimal {
	if precision < 0 {
		precision = 0
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}
	return amount.Round(int32(precision))
}

// BuyAmount converts a quote-currency notional into a base amount at price,
// rounded to precision. A non-positive price yields zero.
func BuyAmount(notional, price decimal.Decimal, precision int) decimal.Decimal {
	if !price.IsPositive() || !notional.IsPositive() {
		return decimal.Zero
	}
	raw := notional.DivRound(price, MaxPrecision+2)
	return RoundAmount(raw, precision)
}

// PrecisionFromStep returns the number of decimal places implied by an exchange
// step size such as "0.00010000" (4). ok is false for non-positive or
// unparsable steps.
func PrecisionFromStep(step string) (int, bool) {
	d, err := decimal.NewFromString(step)
	if err != nil || !d.IsPositive() {
		return 0, false
	}
	for p := 0; p <= MaxPrecision; p++ {
		if d.Round(int32(p)).Equal(d) {
			return p, true
		}
	}
	return 0, false
}
