package receipt

import (
	"context"
	"io"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/kart-checkout/internal/domain/checkout"
	"github.com/xenking/kart-checkout/internal/domain/shipping"
)

// JSONPrinter writes one JSON object per line for every event.
type JSONPrinter struct {
	w   io.Writer
	e   jx.Encoder
	err error
}

// NewJSONPrinter creates a JSONPrinter writing to w.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{w: w}
}

// Err returns the first write error.
func (p *JSONPrinter) Err() error {
	return p.err
}

// event encodes a single {"event": name, ...} line. fields writes the
// remaining object fields.
func (p *JSONPrinter) event(name string, fields func(e *jx.Encoder)) {
	if p.err != nil {
		return
	}
	p.e.Reset()
	p.e.ObjStart()
	p.e.FieldStart("event")
	p.e.Str(name)
	fields(&p.e)
	p.e.ObjEnd()

	b := append(p.e.Bytes(), '\n')
	if _, err := p.w.Write(b); err != nil {
		p.err = errors.Wrap(err, "write event")
	}
}

func number(e *jx.Encoder, field string, v decimal.Decimal) {
	e.FieldStart(field)
	e.Raw([]byte(v.String()))
}

func (p *JSONPrinter) ShipmentNotice(_ context.Context, n shipping.Notice) {
	p.event("shipment_notice", func(e *jx.Encoder) {
		e.FieldStart("items")
		e.ArrStart()
		for _, g := range n.Groups {
			e.ObjStart()
			e.FieldStart("name")
			e.Str(g.Name)
			e.FieldStart("count")
			e.Int(g.Count)
			number(e, "grams", g.Grams())
			e.ObjEnd()
		}
		e.ArrEnd()
		number(e, "total_weight_kg", n.TotalWeight)
	})
}

func (p *JSONPrinter) Receipt(_ context.Context, r *checkout.Receipt) {
	p.event("receipt", func(e *jx.Encoder) {
		e.FieldStart("id")
		e.Str(r.ID.String())
		e.FieldStart("customer")
		e.Str(r.Customer)
		e.FieldStart("lines")
		e.ArrStart()
		for _, l := range r.Lines {
			e.ObjStart()
			e.FieldStart("name")
			e.Str(l.Name)
			e.FieldStart("quantity")
			e.Int(l.Quantity)
			number(e, "unit_price", l.UnitPrice)
			number(e, "total", l.Total)
			e.ObjEnd()
		}
		e.ArrEnd()
		number(e, "subtotal", r.Subtotal)
		number(e, "shipping", r.Shipping)
		number(e, "amount", r.Total)
	})
}

func (p *JSONPrinter) Settled(_ context.Context, r *checkout.Receipt) {
	p.event("settled", func(e *jx.Encoder) {
		e.FieldStart("id")
		e.Str(r.ID.String())
		number(e, "balance", r.Balance)
	})
}

func (p *JSONPrinter) Error(err error) {
	p.event("error", func(e *jx.Encoder) {
		e.FieldStart("message")
		e.Str(err.Error())
	})
}

func (p *JSONPrinter) Header(n int, title string) {
	p.event("scenario", func(e *jx.Encoder) {
		e.FieldStart("number")
		e.Int(n)
		e.FieldStart("title")
		e.Str(title)
	})
}

func (p *JSONPrinter) Added(name string, quantity int) {
	p.event("added", func(e *jx.Encoder) {
		e.FieldStart("product")
		e.Str(name)
		e.FieldStart("quantity")
		e.Int(quantity)
	})
}
