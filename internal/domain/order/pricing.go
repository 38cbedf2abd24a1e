package order

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// DiscountedUnitPrice returns the unit price after applying a whole-percentage
// discount, rounded half away from zero to the nearest minor currency unit.
// A discount of 0 returns the price unchanged; 100 returns zero. Pure, no
// failure modes.
func DiscountedUnitPrice(price int64, discountPercent int) int64 {
	if discountPercent <= 0 {
		return price
	}
	if discountPercent >= 100 {
		return 0
	}

	factor := decimal.NewFromInt(int64(100 - discountPercent)).Div(hundred)
	return decimal.NewFromInt(price).Mul(factor).Round(0).IntPart()
}
