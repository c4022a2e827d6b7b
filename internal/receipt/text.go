// Package receipt renders checkout notifications for humans and machines.
package receipt

import (
	"context"
	"fmt"
	"io"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-checkout/internal/domain/checkout"
	"github.com/xenking/kart-checkout/internal/domain/shipping"
)

const rule = "----------------------"

// Printer writes the console shipment notice and receipt.
//
// Write errors are sticky: after the first failure nothing more is written
// and Err reports the failure.
type Printer struct {
	w   io.Writer
	err error
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Err returns the first write error.
func (p *Printer) Err() error {
	return p.err
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	if _, err := fmt.Fprintf(p.w, format, args...); err != nil {
		p.err = errors.Wrap(err, "write receipt")
	}
}

func (p *Printer) ShipmentNotice(_ context.Context, n shipping.Notice) {
	p.printf("** Shipment notice **\n")
	for _, g := range n.Groups {
		p.printf("%dx %s %sg\n", g.Count, g.Name, g.Grams().StringFixed(0))
	}
	p.printf("Total package weight %skg\n", n.TotalWeight.StringFixed(1))
}

func (p *Printer) Receipt(_ context.Context, r *checkout.Receipt) {
	p.printf("** Checkout receipt **\n")
	for _, l := range r.Lines {
		p.printf("%dx %s %s\n", l.Quantity, l.Name, l.Total.StringFixed(0))
	}
	p.printf("%s\n", rule)
	p.printf("Subtotal %s\n", r.Subtotal.StringFixed(0))
	p.printf("Shipping %s\n", r.Shipping.StringFixed(0))
	p.printf("Amount %s\n", r.Total.StringFixed(0))
}

func (p *Printer) Settled(_ context.Context, r *checkout.Receipt) {
	p.printf("Customer balance after payment: %s\n", r.Balance.String())
}

// Error prints a rejection or add failure.
func (p *Printer) Error(err error) {
	p.printf("Error: %s\n", err)
}

// Header prints a scenario title.
func (p *Printer) Header(n int, title string) {
	if n > 1 {
		p.printf("\n")
	}
	p.printf("=== Test Case %d: %s ===\n", n, title)
}

// Added reports an item put into the cart.
func (p *Printer) Added(name string, quantity int) {
	p.printf("Added %dx %s to cart\n", quantity, name)
}
