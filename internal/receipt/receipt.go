package receipt

import (
	"io"

	"github.com/go-faster/errors"

	"github.com/xenking/kart-checkout/internal/domain/checkout"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Writer is a checkout.Notifier that also reports the demo flow around a
// checkout.
type Writer interface {
	checkout.Notifier
	Header(n int, title string)
	Added(name string, quantity int)
	Error(err error)
	Err() error
}

var (
	_ Writer = (*Printer)(nil)
	_ Writer = (*JSONPrinter)(nil)
)

// New returns the Writer for format.
func New(format string, w io.Writer) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewPrinter(w), nil
	case FormatJSON:
		return NewJSONPrinter(w), nil
	default:
		return nil, errors.Errorf("unknown output format %q", format)
	}
}
