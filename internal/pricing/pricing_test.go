package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name      string
		lines     []Line
		subtotals []string
		total     string
	}{
		{
			name: "item with one modifier",
			lines: []Line{
				{UnitPrice: d("25000"), Quantity: 2, Modifiers: []Modifier{{UnitPrice: d("3000"), Quantity: 1}}},
			},
			subtotals: []string{"53000"},
			total:     "53000",
		},
		{
			name: "modifier quantity is not multiplied by line quantity",
			lines: []Line{
				{UnitPrice: d("10000"), Quantity: 3, Modifiers: []Modifier{{UnitPrice: d("2000"), Quantity: 2}}},
			},
			subtotals: []string{"34000"},
			total:     "34000",
		},
		{
			name: "several lines",
			lines: []Line{
				{UnitPrice: d("20000"), Quantity: 1},
				{UnitPrice: d("15500.50"), Quantity: 2, Modifiers: []Modifier{
					{UnitPrice: d("1000"), Quantity: 1},
					{UnitPrice: d("0"), Quantity: 3},
				}},
			},
			subtotals: []string{"20000", "32001"},
			total:     "52001",
		},
		{
			name: "no float drift",
			lines: []Line{
				{UnitPrice: d("0.1"), Quantity: 1},
				{UnitPrice: d("0.2"), Quantity: 1},
			},
			subtotals: []string{"0.1", "0.2"},
			total:     "0.3",
		},
		{
			name:      "empty cart",
			lines:     nil,
			subtotals: nil,
			total:     "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Price(tt.lines)
			if len(q.Lines) != len(tt.subtotals) {
				t.Fatalf("got %d lines, want %d", len(q.Lines), len(tt.subtotals))
			}
			for i, want := range tt.subtotals {
				if !q.Lines[i].Subtotal.Equal(d(want)) {
					t.Errorf("line %d subtotal = %s, want %s", i, q.Lines[i].Subtotal, want)
				}
			}
			if !q.Total.Equal(d(tt.total)) {
				t.Errorf("total = %s, want %s", q.Total, tt.total)
			}
		})
	}
}

func TestPriceTotalIsSumOfSubtotals(t *testing.T) {
	lines := []Line{
		{UnitPrice: d("12345.67"), Quantity: 7, Modifiers: []Modifier{{UnitPrice: d("99.99"), Quantity: 4}}},
		{UnitPrice: d("1"), Quantity: 99},
	}
	q := Price(lines)
	sum := decimal.Zero
	for _, l := range q.Lines {
		sum = sum.Add(l.Subtotal)
	}
	if !sum.Equal(q.Total) {
		t.Fatalf("total %s != sum of subtotals %s", q.Total, sum)
	}
	if len(q.Lines[0].Modifiers) != 1 || !q.Lines[0].Modifiers[0].Equal(d("399.96")) {
		t.Fatalf("modifier subtotal = %v", q.Lines[0].Modifiers)
	}
}
