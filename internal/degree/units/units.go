// Package units holds the unit arithmetic shared by the fulfillment engine.
// Units are decimals so that sums over a plan reconcile exactly.
package units

import (
	"strings"

	"github.com/shopspring/decimal"
)

var Zero = decimal.Zero

func New(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// Parse reads a unit literal such as "3.00". Malformed input yields zero.
func Parse(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

func Max(a, b decimal.Decimal) decimal.Decimal {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

func Sum(vals ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vals {
		total = total.Add(v)
	}
	return total
}

func Positive(d decimal.Decimal) bool { return d.Sign() > 0 }

// Remaining is max(0, required - completed).
func Remaining(required, completed decimal.Decimal) decimal.Decimal {
	return Max(decimal.Zero, required.Sub(completed))
}
