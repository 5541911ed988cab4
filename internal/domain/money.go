package domain

import "github.com/shopspring/decimal"

// LineSubtotal is quantity * unit price rounded to cents.
func LineSubtotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// SumLines adds up the line subtotals, recomputed from quantity and unit price.
func SumLines(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineSubtotal(l.Quantity, l.UnitPrice))
	}
	return total.Round(2)
}

// SameCents reports whether a and b are equal once rounded to two decimals.
func SameCents(a, b decimal.Decimal) bool {
	return a.Round(2).Equal(b.Round(2))
}
