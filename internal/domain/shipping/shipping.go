// Package shipping computes the flat shipping fee and the shipment notice
// for the shippable units of a checkout.
package shipping

import (
	"github.com/shopspring/decimal"
)

// DefaultFee is the flat fee charged once per checkout that ships anything.
var DefaultFee = decimal.NewFromInt(30)

var gramsPerKg = decimal.NewFromInt(1000)

// Item is one shippable unit. A cart line with quantity 3 contributes three
// Items.
type Item interface {
	Name() string
	// Weight returns the unit weight in kilograms.
	Weight() decimal.Decimal
}

// Group aggregates the units that share a name.
type Group struct {
	Name       string
	Count      int
	UnitWeight decimal.Decimal
	// Weight is UnitWeight * Count in kilograms.
	Weight decimal.Decimal
}

// Grams returns the group weight in grams.
func (g Group) Grams() decimal.Decimal {
	return g.Weight.Mul(gramsPerKg)
}

// Notice is the shipment summary handed to the shipping provider.
type Notice struct {
	Groups []Group
	// TotalWeight is the package weight in kilograms.
	TotalWeight decimal.Decimal
}

// Calculator charges a flat fee regardless of weight or unit count.
type Calculator struct {
	fee decimal.Decimal
}

// NewCalculator creates a Calculator charging fee.
func NewCalculator(fee decimal.Decimal) *Calculator {
	return &Calculator{fee: fee}
}

// Fee returns zero when nothing ships and the flat fee otherwise.
func (c *Calculator) Fee(items []Item) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	return c.fee
}

// Notice groups items by name in first-seen order. Units of the same name
// are assumed to share the weight of the first one seen.
func (c *Calculator) Notice(items []Item) Notice {
	var (
		groups []Group
		index  = make(map[string]int)
	)
	for _, it := range items {
		i, ok := index[it.Name()]
		if !ok {
			i = len(groups)
			index[it.Name()] = i
			groups = append(groups, Group{Name: it.Name(), UnitWeight: it.Weight()})
		}
		groups[i].Count++
	}

	total := decimal.Zero
	for i := range groups {
		g := &groups[i]
		g.Weight = g.UnitWeight.Mul(decimal.NewFromInt(int64(g.Count)))
		total = total.Add(g.Weight)
	}

	return Notice{Groups: groups, TotalWeight: total}
}
