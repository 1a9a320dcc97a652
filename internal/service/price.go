package service

import "github.com/shopspring/decimal"

// SplitAmount divides the charged amount equally across quantity
// participants.  The unit price is the division rounded to cents; the
// rounding remainder, positive or negative, is
// assigned to the first participant so the per-row prices always sum
// to the amount charged.  100.00 over 4 yields 25.00 each; 100.00 over
// 3 yields 33.34, 33.33, 33.33.
func SplitAmount(amount decimal.Decimal, quantity int) []decimal.Decimal {
	qty := decimal.NewFromInt(int64(quantity))
	unit := amount.DivRound(qty, 2)
	prices := make([]decimal.Decimal, quantity)
	for i := range prices {
		prices[i] = unit
	}
	remainder := amount.Sub(unit.Mul(qty))
	prices[0] = prices[0].Add(remainder)
	return prices
}
