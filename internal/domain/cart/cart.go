// Package cart accumulates product selections before checkout.
package cart

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/kart-checkout/internal/domain/product"
)

// InvalidQuantityError indicates a non-positive quantity was requested.
type InvalidQuantityError struct {
	Name     string
	Quantity int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s, got %d", e.Name, e.Quantity)
}

// Line is a single cart entry.
type Line struct {
	Item     product.Item
	Quantity int
}

// Total returns price * quantity for the line.
func (l Line) Total() decimal.Decimal {
	return l.Item.Price().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Option configures a Cart.
type Option func(*Cart)

// WithClock overrides the clock used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Cart) {
		c.now = now
	}
}

// Cart maps items, by identity, to requested quantities. Lines keep the
// order in which items were first added.
//
// Adding to the cart is a soft reservation: stock is checked but never
// decremented. A Cart is not safe for concurrent use.
type Cart struct {
	lines []Line
	index map[product.Item]int

	lg  *zap.Logger
	now func() time.Time
}

// New creates an empty cart.
func New(lg *zap.Logger, opts ...Option) *Cart {
	if lg == nil {
		lg = zap.NewNop()
	}
	c := &Cart{
		index: make(map[product.Item]int),
		lg:    lg,
		now:   time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Add puts quantity units of item into the cart, merging with an existing
// line for the same item. The requested quantity of this call alone is
// checked against the item's available quantity.
func (c *Cart) Add(item product.Item, quantity int) error {
	if quantity <= 0 {
		return &InvalidQuantityError{Name: item.Name(), Quantity: quantity}
	}
	if item.IsExpired(c.now()) {
		return &product.ExpiredItemError{Name: item.Name()}
	}
	if quantity > item.Quantity() {
		return &product.InsufficientStockError{
			Name:      item.Name(),
			Available: item.Quantity(),
			Requested: quantity,
		}
	}

	if i, ok := c.index[item]; ok {
		c.lines[i].Quantity += quantity
	} else {
		c.index[item] = len(c.lines)
		c.lines = append(c.lines, Line{Item: item, Quantity: quantity})
	}

	c.lg.Info("Added to cart",
		zap.Int("quantity", quantity),
		zap.String("product", item.Name()),
	)
	return nil
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Quantity returns the requested quantity for item, or zero.
func (c *Cart) Quantity(item product.Item) int {
	if i, ok := c.index[item]; ok {
		return c.lines[i].Quantity
	}
	return 0
}

// Len returns the number of distinct items.
func (c *Cart) Len() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Subtotal returns the sum of price * quantity over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.lines = nil
	clear(c.index)
}
