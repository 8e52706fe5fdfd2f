// Package pricing computes line subtotals and order totals from snapshot prices.
// Quantities are validated upstream; the engine trusts its input.
package pricing

import "github.com/shopspring/decimal"

type Modifier struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
	Modifiers []Modifier
}

type LineTotal struct {
	Subtotal  decimal.Decimal
	Modifiers []decimal.Decimal
}

type Quote struct {
	Lines []LineTotal
	Total decimal.Decimal
}

// Price returns subtotal = unit_price*quantity + sum(modifier unit_price*modifier quantity)
// for every line, in input order, and the grand total of those subtotals.
func Price(lines []Line) Quote {
	quote := Quote{
		Lines: make([]LineTotal, len(lines)),
		Total: decimal.Zero,
	}
	for i, line := range lines {
		lt := LineTotal{
			Subtotal:  line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
			Modifiers: make([]decimal.Decimal, len(line.Modifiers)),
		}
		for j, m := range line.Modifiers {
			sub := m.UnitPrice.Mul(decimal.NewFromInt(int64(m.Quantity)))
			lt.Modifiers[j] = sub
			lt.Subtotal = lt.Subtotal.Add(sub)
		}
		quote.Lines[i] = lt
		quote.Total = quote.Total.Add(lt.Subtotal)
	}
	return quote
}
